package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JohnDeved/rahash/internal/catalog"
	"github.com/JohnDeved/rahash/internal/lookup"
	"github.com/JohnDeved/rahash/internal/retroachievements"
	"github.com/JohnDeved/rahash/internal/util"
	"github.com/JohnDeved/rahash/internal/wishlist"
)

func wishlistCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "wishlist",
		Aliases: []string{"wl"},
		Short:   "Work with the want-to-play wish list (game_hashes.json)",
	}

	consolesCmd := &cobra.Command{
		Use:   "consoles",
		Short: "List the consoles on the wish list",
		Args:  cobra.NoArgs,
		RunE:  runWishlistConsoles,
	}
	consolesCmd.Flags().Bool("json", false, "Output JSON")

	gamesCmd := &cobra.Command{
		Use:   "games <console>",
		Short: "List the games of one console",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runWishlistGames,
	}
	gamesCmd.Flags().Bool("json", false, "Output JSON")
	gamesCmd.Flags().String("region", "", "Only list games with a hash for this region (e.g. USA)")

	getCmd := &cobra.Command{
		Use:   "get <title>",
		Short: "Pick the preferred region of one game and resolve its URL",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runWishlistGet,
	}
	getCmd.Flags().Bool("json", false, "Output JSON")

	allCmd := &cobra.Command{
		Use:   "all",
		Short: "Resolve every game and write the missing-games report",
		Args:  cobra.NoArgs,
		RunE:  runWishlistAll,
	}
	allCmd.Flags().String("console", "", "Only resolve games of this console")
	allCmd.Flags().Bool("json", false, "Output JSON")

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Rebuild the wish list from your RetroAchievements want-to-play list",
		Args:  cobra.NoArgs,
		RunE:  runWishlistSync,
	}
	syncCmd.Flags().String("user", "", "RetroAchievements username (default from config or RA_USERNAME)")

	cmd.AddCommand(consolesCmd, gamesCmd, getCmd, allCmd, syncCmd)
	return cmd
}

func runWishlistConsoles(cmd *cobra.Command, _ []string) error {
	wl, err := loadWishlist()
	if err != nil {
		return err
	}

	type consoleOut struct {
		Console string `json:"console"`
		Games   int    `json:"games"`
	}
	out := []consoleOut{}
	for _, c := range wl.Consoles() {
		out = append(out, consoleOut{Console: c, Games: len(wl.GamesFor(c))})
	}

	jsonMode, _ := cmd.Flags().GetBool("json")
	if jsonMode {
		return printJSON(out)
	}
	for _, c := range out {
		fmt.Printf("%-40s  %d\n", c.Console, c.Games)
	}
	return nil
}

func runWishlistGames(cmd *cobra.Command, args []string) error {
	wl, err := loadWishlist()
	if err != nil {
		return err
	}
	console := strings.Join(args, " ")
	games := wl.GamesFor(console)
	if len(games) == 0 {
		return fmt.Errorf("no games for console %q", console)
	}
	if region, _ := cmd.Flags().GetString("region"); region != "" {
		games = slices.DeleteFunc(games, func(g wishlist.Game) bool {
			c, ok := g.Regions.Get(region)
			return !ok || len(c) == 0
		})
	}

	jsonMode, _ := cmd.Flags().GetBool("json")
	if jsonMode {
		type gameOut struct {
			Title   string   `json:"title"`
			Regions []string `json:"regions"`
		}
		out := make([]gameOut, 0, len(games))
		for _, g := range games {
			out = append(out, gameOut{Title: g.Title, Regions: g.Regions.Codes()})
		}
		return printJSON(out)
	}
	for _, g := range games {
		fmt.Printf("%-60s  %s\n", g.Title, strings.Join(g.Regions.Codes(), ","))
	}
	return nil
}

func runWishlistGet(cmd *cobra.Command, args []string) error {
	wl, err := loadWishlist()
	if err != nil {
		return err
	}
	title := strings.Join(args, " ")
	g, ok := wl.Find(title)
	if !ok {
		if s := wl.Suggest(title, 5); len(s) > 0 {
			fmt.Fprintln(os.Stderr, "Did you mean:")
			for _, sug := range s {
				fmt.Fprintf(os.Stderr, "  %s\n", sug.Title)
			}
		}
		return fmt.Errorf("game %q not in wish list", title)
	}

	svc, _, err := newService()
	if err != nil {
		return err
	}
	r, err := svc.ByGame(g)
	if err != nil {
		return err
	}

	jsonMode, _ := cmd.Flags().GetBool("json")
	if jsonMode {
		return printJSON(r)
	}
	fmt.Printf("Title:    %s (%s)\n", r.Title, r.Console)
	fmt.Printf("Region:   %s\n", r.Region)
	if !r.Preferred {
		fmt.Printf("          no preferred region tag, first candidate used\n")
	}
	fmt.Printf("Hash:     %s\n", r.Hash)
	fmt.Printf("Platform: %s\n", r.Platform)
	fmt.Printf("URL:      %s\n", r.URL)
	return nil
}

func runWishlistAll(cmd *cobra.Command, _ []string) error {
	wl, err := loadWishlist()
	if err != nil {
		return err
	}
	games := wl.Games
	if console, _ := cmd.Flags().GetString("console"); console != "" {
		games = wl.GamesFor(console)
	}

	svc, _, err := newService()
	if err != nil {
		return err
	}
	rep, batchErr := svc.Batch(games)
	if err := lookup.WriteMissingReport(osFs, cfg.MissingReportPath, rep.MissingTitles()); err != nil {
		return fmt.Errorf("writing missing report: %w", err)
	}
	if batchErr != nil {
		fmt.Fprintf(os.Stderr, "%d missing titles written to %s\n", len(rep.Missing), cfg.MissingReportPath)
		if errors.Is(batchErr, catalog.ErrCatalogUnavailable) {
			return fmt.Errorf("%w (run 'rahash catalog update')", batchErr)
		}
		return batchErr
	}

	jsonMode, _ := cmd.Flags().GetBool("json")
	if jsonMode {
		return printJSON(rep)
	}
	for _, r := range rep.Resolved {
		fmt.Printf("%-50s  %-6s  %s\n", util.TruncatePath(r.Title, 50), r.Region, r.URL)
	}
	fmt.Fprintf(os.Stderr, "\n%d resolved, %d missing, %d without a preferred region tag.\n",
		len(rep.Resolved), len(rep.Missing), len(rep.Unpreferred))
	if len(rep.Missing) > 0 {
		fmt.Fprintf(os.Stderr, "Missing titles written to %s\n", cfg.MissingReportPath)
	}
	return nil
}

func runWishlistSync(cmd *cobra.Command, _ []string) error {
	user, key := cfg.RACredentials()
	if u, _ := cmd.Flags().GetString("user"); u != "" {
		user = u
	}
	ra, err := retroachievements.NewClient(user, key)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	wl, err := ra.BuildWishlist(ctx, func(done, total int, title string) {
		fmt.Fprintf(os.Stderr, "\r\033[K  [%d/%d] %s", done, total, util.TruncatePath(title, 60))
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}

	if err := wl.Save(osFs, cfg.WishlistPath); err != nil {
		return fmt.Errorf("saving wish list: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Saved %d games across %d consoles to %s\n",
		len(wl.Games), len(wl.Consoles()), cfg.WishlistPath)
	return nil
}
