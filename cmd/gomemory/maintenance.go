package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/gomemory-mcp/internal/storage"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show store statistics and index health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := a.repo.Stats(cmd.Context())
			if err != nil {
				return err
			}
			report, err := a.indexer().Verify(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Backend:       %s\n", stats.Backend)
			fmt.Fprintf(out, "Location:      %s\n", stats.Location)
			fmt.Fprintf(out, "Indexed items: %d\n", stats.IndexedCount)
			fmt.Fprintf(out, "Stored items:  %d\n", stats.RecordCount)
			if !stats.LastUpdated.IsZero() {
				fmt.Fprintf(out, "Last updated:  %s\n", stats.LastUpdated.Format(time.RFC3339))
			}

			if report.Healthy() {
				fmt.Fprintln(out, "Index:         healthy")
				return nil
			}
			fmt.Fprintln(out, "Index:         needs rebuild (run gomemory rebuild)")
			printIDs(out, "Missing from index", report.Orphaned)
			printIDs(out, "Missing records", report.Dangling)
			printIDs(out, "Unreadable", report.Unreadable)
			printIDs(out, "Stale entries", report.HashMismatch)
			return nil
		},
	}
}

func newRebuildCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Regenerate the index from stored items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := a.indexer().Rebuild(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Indexed %d items (%d skipped, %d entries before) in %s\n",
				stats.RecordsIndexed, stats.RecordsSkipped, stats.PreviousEntries, stats.Duration.Round(time.Millisecond))
			for _, msg := range stats.ErrorMessages {
				fmt.Fprintf(out, "  skipped %s\n", msg)
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "gomemory %s\n", version)
			fmt.Fprintf(out, "Build Time: %s\n", buildTime)
			fmt.Fprintf(out, "Build Mode: %s\n", storage.BuildMode)
			fmt.Fprintf(out, "SQLite Driver: %s\n", storage.DriverName)
		},
	}
}

func printIDs(out io.Writer, label string, ids []string) {
	if len(ids) == 0 {
		return
	}
	fmt.Fprintf(out, "  %s (%d): %s\n", label, len(ids), strings.Join(ids, ", "))
}
