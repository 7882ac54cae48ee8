package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/k0take/onioncrawl/internal/config"
	"github.com/k0take/onioncrawl/internal/database"
)

// NewStatsCmd creates the stats command.
func NewStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show statistics about the crawl database",
		Long: `Stats summarizes the pages stored by previous crawl runs:
total page count, pages per domain, pages per worker, and body size
distribution.

Examples:
  # Show database statistics
  onioncrawl stats

  # Machine-readable output
  onioncrawl stats --json

  # Count pages under a URL prefix
  onioncrawl stats --prefix http://exampleonion.onion/docs/`,
		Args: cobra.NoArgs,
		RunE: runStatsCmd,
	}

	cmd.Flags().String("db-dir", "",
		"Database directory (default: XDG data directory)")
	cmd.Flags().BoolP("json", "j", false,
		"Output statistics as JSON")
	cmd.Flags().String("prefix", "",
		"Also count pages whose URL starts with this prefix")

	return cmd
}

// dbStats is the aggregated view rendered by the stats command.
type dbStats struct {
	TotalPages  int64                 `json:"total_pages"`
	ByDomain    []database.GroupCount `json:"by_domain"`
	ByWorker    []database.GroupCount `json:"by_worker"`
	BodySizes   database.SizeStats    `json:"body_sizes"`
	Prefix      string                `json:"prefix,omitempty"`
	PrefixPages int64                 `json:"prefix_pages,omitempty"`
}

// runStatsCmd executes the stats command.
func runStatsCmd(cmd *cobra.Command, _ []string) error {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	prefix, err := cmd.Flags().GetString("prefix")
	if err != nil {
		return err
	}

	store, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	stats, err := collectStats(cmd.Context(), store, prefix)
	if err != nil {
		return err
	}

	if asJSON {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(stats)
	}

	printStats(cmd, stats)
	return nil
}

// collectStats gathers all aggregates from the store.
func collectStats(ctx context.Context, store *database.Store, prefix string) (*dbStats, error) {
	total, err := store.CountPages(ctx)
	if err != nil {
		return nil, err
	}

	byDomain, err := store.CountByDomain(ctx)
	if err != nil {
		return nil, err
	}

	byWorker, err := store.CountByWorker(ctx)
	if err != nil {
		return nil, err
	}

	sizes, err := store.BodySizeStats(ctx)
	if err != nil {
		return nil, err
	}

	stats := &dbStats{
		TotalPages: total,
		ByDomain:   byDomain,
		ByWorker:   byWorker,
		BodySizes:  sizes,
	}

	if prefix != "" {
		count, err := store.CountByURLPrefix(ctx, prefix)
		if err != nil {
			return nil, err
		}
		stats.Prefix = prefix
		stats.PrefixPages = count
	}

	return stats, nil
}

// printStats renders the statistics as plain text.
func printStats(cmd *cobra.Command, stats *dbStats) {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintln(out, "CRAWL DATABASE STATISTICS")
	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintf(out, "\nTotal pages: %d\n", stats.TotalPages)

	if stats.Prefix != "" {
		fmt.Fprintf(out, "Pages under %s: %d\n", stats.Prefix, stats.PrefixPages)
	}

	if len(stats.ByDomain) > 0 {
		fmt.Fprintln(out, "\nPages per domain:")
		for _, gc := range stats.ByDomain {
			fmt.Fprintf(out, "  %-50s %d\n", gc.Key, gc.Count)
		}
	}

	if len(stats.ByWorker) > 0 {
		fmt.Fprintln(out, "\nPages per worker:")
		for _, gc := range stats.ByWorker {
			fmt.Fprintf(out, "  %-12s %d\n", gc.Key, gc.Count)
		}
	}

	if stats.BodySizes.Pages > 0 {
		fmt.Fprintln(out, "\nBody sizes:")
		fmt.Fprintf(out, "  min: %d bytes\n", stats.BodySizes.MinBytes)
		fmt.Fprintf(out, "  max: %d bytes\n", stats.BodySizes.MaxBytes)
		fmt.Fprintf(out, "  avg: %.1f bytes\n", stats.BodySizes.AvgBytes)
	}

	fmt.Fprintln(out)
}
