package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/JohnDeved/rahash/internal/catalog"
	"github.com/JohnDeved/rahash/internal/client"
	"github.com/JohnDeved/rahash/internal/config"
	"github.com/JohnDeved/rahash/internal/index"
	"github.com/JohnDeved/rahash/internal/logging"
	"github.com/JohnDeved/rahash/internal/lookup"
	"github.com/JohnDeved/rahash/internal/resolver"
	"github.com/JohnDeved/rahash/internal/server"
	"github.com/JohnDeved/rahash/internal/tui"
	"github.com/JohnDeved/rahash/internal/wishlist"
)

var (
	cfg  *config.Config
	osFs = afero.NewOsFs()
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rahash",
		Short: "Find archive.org downloads for RetroAchievements hashes",
		Long: `rahash - Resolve RetroAchievements ROM hashes to archive.org download URLs
using the community hash catalog, and pick the best region for every game on
your want-to-play list.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		RunE:              runTUI,
	}

	lookupCmd := &cobra.Command{
		Use:   "lookup <hash>...",
		Short: "Resolve hashes to download URLs",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runLookup,
	}
	lookupCmd.Flags().Bool("json", false, "Output JSON")

	resolveCmd := &cobra.Command{
		Use:   "resolve <catalog-path>",
		Short: "Resolve a raw catalog path to its platform and URL",
		Args:  cobra.ExactArgs(1),
		RunE:  runResolve,
	}
	resolveCmd.Flags().Bool("json", false, "Output JSON")

	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the local index by file name",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSearch,
	}
	searchCmd.Flags().String("platform", "", "Filter by platform bucket (e.g. SNES, PS2_A_M)")
	searchCmd.Flags().Int("limit", 50, "Maximum number of results")
	searchCmd.Flags().Bool("json", false, "Output JSON")

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics",
		RunE:  runStats,
	}
	statsCmd.Flags().Bool("json", false, "Output JSON")

	mirrorCmd := &cobra.Command{
		Use:   "mirror",
		Short: "Inspect the platform mirrors",
	}
	mirrorLsCmd := &cobra.Command{
		Use:   "ls [bucket-or-url]",
		Short: "List mirror roots, or the files in one mirror directory",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMirrorList,
	}
	mirrorLsCmd.Flags().Bool("json", false, "Output JSON")
	mirrorLsCmd.Flags().Bool("name-only", false, "Only print names")
	mirrorLsCmd.Flags().Int("limit", 0, "Limit number of entries (0 = unlimited)")
	mirrorCmd.AddCommand(mirrorLsCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the hash lookup HTTP API",
		RunE:  runServe,
	}
	serveCmd.Flags().String("addr", "", "Listen address (default from config)")

	rootCmd.AddCommand(lookupCmd, resolveCmd, wishlistCommand(), catalogCommand(),
		searchCmd, statsCmd, mirrorCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup(_ *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := logging.Init(config.LogDir(), cfg.LogLevel, os.Stderr); err != nil {
		return fmt.Errorf("initialising logging: %w", err)
	}
	return nil
}

// newService opens the catalog and builds the lookup service around it. A
// missing catalog is not an error here: lookups report it.
func newService() (*lookup.Service, *catalog.Handle, error) {
	res, err := cfg.Resolver()
	if err != nil {
		return nil, nil, err
	}
	h := catalog.Open(osFs, cfg.CatalogPath)
	return lookup.New(h, res, cfg.Order()), h, nil
}

func loadWishlist() (*wishlist.Wishlist, error) {
	return wishlist.Load(osFs, cfg.WishlistPath)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	if !isInteractiveTerminal() {
		return cmd.Help()
	}

	svc, _, err := newService()
	if err != nil {
		return err
	}

	// The index only backs the search tab; the TUI works without it.
	db, err := index.OpenDB(config.DBPath())
	if err != nil {
		log.Warn().Err(err).Msg("could not open index DB")
		db = nil
	}
	if db != nil {
		defer db.Close()
	}

	// Console logging would scribble over the alternate screen.
	if err := logging.Init(config.LogDir(), cfg.LogLevel, nil); err != nil {
		return err
	}

	return tui.Run(tui.Deps{
		Lookup:        svc,
		DB:            db,
		LoadWishlist:  loadWishlist,
		MinHashLength: cfg.MinHashLength,
	})
}

func runLookup(cmd *cobra.Command, args []string) error {
	svc, _, err := newService()
	if err != nil {
		return err
	}
	jsonMode, _ := cmd.Flags().GetBool("json")

	type hashOut struct {
		Query  string         `json:"query"`
		Result *lookup.Result `json:"result,omitempty"`
		Error  string         `json:"error,omitempty"`
	}
	out := make([]hashOut, 0, len(args))
	var failed int
	for _, arg := range args {
		q := strings.TrimSpace(arg)
		o := hashOut{Query: q}
		err := catalog.ValidHash(q, cfg.MinHashLength)
		if err == nil {
			var r lookup.Result
			r, err = svc.ByHash(q)
			if err == nil {
				o.Result = &r
			}
		}
		if err != nil {
			if errors.Is(err, catalog.ErrCatalogUnavailable) {
				return fmt.Errorf("%w (run 'rahash catalog update')", err)
			}
			o.Error = err.Error()
			failed++
		}
		out = append(out, o)
	}

	if jsonMode {
		if err := printJSON(out); err != nil {
			return err
		}
	} else {
		for _, o := range out {
			if o.Result == nil {
				fmt.Printf("%s\t%s\n", o.Query, o.Error)
				continue
			}
			fmt.Printf("%s\t%-10s\t%s\n", o.Query, o.Result.Platform, o.Result.URL)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d hashes not resolved", failed, len(args))
	}
	return nil
}

func runResolve(cmd *cobra.Command, args []string) error {
	res, err := cfg.Resolver()
	if err != nil {
		return err
	}
	r := res.Resolve(args[0])

	jsonMode, _ := cmd.Flags().GetBool("json")
	if jsonMode {
		return printJSON(r)
	}
	fmt.Printf("Platform: %s\n", r.Bucket)
	fmt.Printf("Path:     %s\n", r.Path)
	fmt.Printf("URL:      %s\n", r.URL)
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	db, err := index.OpenDB(config.DBPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	platform, _ := cmd.Flags().GetString("platform")
	limit, _ := cmd.Flags().GetInt("limit")
	jsonMode, _ := cmd.Flags().GetBool("json")

	results, err := db.SearchPlatform(query, platform, limit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if results == nil {
		results = []index.Rom{}
	}

	if jsonMode {
		out := struct {
			Query    string      `json:"query"`
			Platform string      `json:"platform,omitempty"`
			Count    int         `json:"count"`
			Results  []index.Rom `json:"results"`
		}{
			Query:    query,
			Platform: platform,
			Count:    len(results),
			Results:  results,
		}
		return printJSON(out)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		fmt.Println("Tip: Run 'rahash catalog index' to build the search index first.")
		return nil
	}
	for _, r := range results {
		fmt.Printf("%-60s  %-10s  %s\n", r.Name, r.Platform, r.Hash)
	}
	fmt.Fprintf(os.Stderr, "\n%d results found.\n", len(results))
	return nil
}

func runStats(cmd *cobra.Command, _ []string) error {
	db, err := index.OpenDB(config.DBPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	stats, err := db.GetStats()
	if err != nil {
		return err
	}
	stale, err := db.IsStale(cfg.IndexStaleDays)
	if err != nil {
		return err
	}

	jsonMode, _ := cmd.Flags().GetBool("json")
	if jsonMode {
		out := struct {
			index.Stats
			Stale    bool   `json:"stale"`
			Database string `json:"database"`
		}{
			Stats:    stats,
			Stale:    stale,
			Database: config.DBPath(),
		}
		return printJSON(out)
	}

	fmt.Printf("Index Statistics:\n")
	fmt.Printf("  Buckets:   %d\n", stats.Buckets)
	fmt.Printf("  ROMs:      %d\n", stats.Roms)
	platforms := make([]string, 0, len(stats.Platforms))
	for p := range stats.Platforms {
		platforms = append(platforms, p)
	}
	sort.Strings(platforms)
	for _, p := range platforms {
		fmt.Printf("    %-10s %d\n", p, stats.Platforms[p])
	}
	if stats.ImportedAt.IsZero() {
		fmt.Printf("  Imported:  never\n")
	} else {
		fmt.Printf("  Imported:  %s\n", stats.ImportedAt.Local().Format("2006-01-02 15:04"))
	}
	if stale {
		fmt.Printf("  Stale:     yes (older than %d days, run 'rahash catalog index')\n", cfg.IndexStaleDays)
	}
	fmt.Printf("  Database:  %s\n", config.DBPath())
	return nil
}

func runMirrorList(cmd *cobra.Command, args []string) error {
	res, err := cfg.Resolver()
	if err != nil {
		return err
	}
	jsonMode, _ := cmd.Flags().GetBool("json")

	if len(args) == 0 {
		type mirrorOut struct {
			Bucket resolver.Bucket `json:"bucket"`
			Root   string          `json:"root"`
		}
		var out []mirrorOut
		for _, b := range resolver.Buckets() {
			out = append(out, mirrorOut{Bucket: b, Root: res.Mirror(b)})
		}
		if jsonMode {
			return printJSON(out)
		}
		for _, m := range out {
			fmt.Printf("%-10s  %s\n", m.Bucket, m.Root)
		}
		return nil
	}

	dirURL := args[0]
	if b, err := resolver.ParseBucket(dirURL); err == nil {
		dirURL = res.Mirror(b)
	}
	if !strings.HasPrefix(dirURL, "http://") && !strings.HasPrefix(dirURL, "https://") {
		return fmt.Errorf("%q is neither a bucket name nor an http(s) URL", args[0])
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	c := client.New(cfg.RequestsPerSecond)
	entries, err := c.ListDirectory(ctx, dirURL)
	if err != nil {
		return err
	}

	limit, _ := cmd.Flags().GetInt("limit")
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}

	if jsonMode {
		out := struct {
			URL     string         `json:"url"`
			Entries []client.Entry `json:"entries"`
		}{URL: dirURL, Entries: entries}
		if out.Entries == nil {
			out.Entries = []client.Entry{}
		}
		return printJSON(out)
	}

	nameOnly, _ := cmd.Flags().GetBool("name-only")
	fmt.Println(dirURL)
	for _, e := range entries {
		if nameOnly {
			if e.IsDir {
				fmt.Printf("%s/\n", e.Name)
			} else {
				fmt.Println(e.Name)
			}
			continue
		}
		kind := "F"
		if e.IsDir {
			kind = "D"
		}
		fmt.Printf("%s\t%-12s\t%-20s\t%s\n", kind, e.Size, e.Date, e.Name)
	}
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	svc, h, err := newService()
	if err != nil {
		return err
	}
	res, err := cfg.Resolver()
	if err != nil {
		return err
	}

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = cfg.ListenAddr
	}

	router := server.NewRouter(server.Deps{
		Lookup:        svc,
		Resolver:      res,
		Wishlist:      loadWishlist,
		Reload:        h.Reload,
		MinHashLength: cfg.MinHashLength,
	})

	if err := h.Err(); err != nil {
		log.Warn().Err(err).Str("catalog", h.Path()).Msg("serving without a catalog; POST /api/reload once it exists")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	return server.ListenAndServe(ctx, addr, router)
}

func isInteractiveTerminal() bool {
	inInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	outInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (inInfo.Mode()&os.ModeCharDevice) != 0 && (outInfo.Mode()&os.ModeCharDevice) != 0
}
