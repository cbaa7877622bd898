package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/JohnDeved/rahash/internal/catalog"
	"github.com/JohnDeved/rahash/internal/client"
	"github.com/JohnDeved/rahash/internal/config"
	"github.com/JohnDeved/rahash/internal/index"
	"github.com/JohnDeved/rahash/internal/util"
)

func catalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Download and index the hash catalog",
	}

	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Download the hash catalog",
		Args:  cobra.NoArgs,
		RunE:  runCatalogUpdate,
	}
	updateCmd.Flags().String("url", "", "Catalog URL (default from config)")
	updateCmd.Flags().Bool("index", false, "Rebuild the local search index afterwards")

	indexCmd := &cobra.Command{
		Use:   "index",
		Short: "Import the catalog into the local search index",
		Args:  cobra.NoArgs,
		RunE:  runCatalogIndex,
	}
	indexCmd.Flags().Bool("force", false, "Rebuild even when the index is not stale")

	cmd.AddCommand(updateCmd, indexCmd)
	return cmd
}

func runCatalogUpdate(cmd *cobra.Command, _ []string) error {
	catalogURL, _ := cmd.Flags().GetString("url")
	if catalogURL == "" {
		catalogURL = cfg.CatalogURL
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	fmt.Fprintf(os.Stderr, "Downloading %s\n", catalogURL)
	c := client.New(cfg.RequestsPerSecond)
	data, cat, err := c.FetchCatalog(ctx, catalogURL, cfg.MaxFetchAttempts)
	if err != nil {
		return err
	}

	if err := osFs.MkdirAll(filepath.Dir(cfg.CatalogPath), 0o755); err != nil {
		return err
	}
	tmp := cfg.CatalogPath + ".tmp"
	if err := afero.WriteFile(osFs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing catalog: %w", err)
	}
	if err := osFs.Rename(tmp, cfg.CatalogPath); err != nil {
		return fmt.Errorf("writing catalog: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Saved %d entries in %d buckets (%s) to %s\n",
		cat.Len(), len(cat.Buckets), util.FormatBytes(int64(len(data))), cfg.CatalogPath)

	if reindex, _ := cmd.Flags().GetBool("index"); reindex {
		return importCatalog(cat)
	}
	return nil
}

func runCatalogIndex(cmd *cobra.Command, _ []string) error {
	force, _ := cmd.Flags().GetBool("force")
	if !force {
		db, err := index.OpenDB(config.DBPath())
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		stale, err := db.IsStale(cfg.IndexStaleDays)
		db.Close()
		if err != nil {
			return err
		}
		if !stale {
			fmt.Fprintf(os.Stderr, "Index is up to date (use --force to rebuild).\n")
			return nil
		}
	}

	cat, err := catalog.LoadFile(osFs, cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("%w (run 'rahash catalog update')", err)
	}
	return importCatalog(cat)
}

func importCatalog(cat *catalog.Catalog) error {
	res, err := cfg.Resolver()
	if err != nil {
		return err
	}
	db, err := index.OpenDB(config.DBPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	n, err := db.ImportCatalog(cat, res)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Indexed %d ROMs into %s\n", n, config.DBPath())
	return nil
}
