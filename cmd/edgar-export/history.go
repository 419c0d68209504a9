// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/edgar-export/internal/export"
	"github.com/pdiddy/edgar-export/internal/ledger"
	"github.com/pdiddy/edgar-export/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded crawl runs for a ticker",
	Long: `History reads the ledger written by "crawl --ledger" and lists past runs,
newest first. With --run it lists that run's documents; adding --manifest
writes them as YAML.`,
	RunE: runHistory,
}

func init() {
	f := historyCmd.Flags()
	f.StringP("ticker", "t", "", "company ticker or CIK (required unless --ledger-path is set)")
	f.StringP("directory", "d", ".", "output directory the crawl wrote to")
	f.String("ledger-path", "", "ledger database (default <directory>/<ticker>/SEC/.ledger.db)")
	f.Int("limit", 20, "number of runs to list (0 for all)")
	f.String("run", "", "show the documents recorded for this run ID")
	f.String("manifest", "", "with --run, write the run as YAML to this file")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("ledger-path")
	if path == "" {
		ticker, _ := cmd.Flags().GetString("ticker")
		if ticker == "" {
			return &ConfigError{Key: "ticker", Err: fmt.Errorf("a ticker or --ledger-path is required")}
		}
		dir, _ := cmd.Flags().GetString("directory")
		path = filepath.Join(dir, export.Sanitize(ticker), "SEC", ledger.DefaultFile)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("no ledger at %s (run crawl with --ledger first)", path)
	}

	store, err := ledger.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	runID, _ := cmd.Flags().GetString("run")
	if runID != "" {
		if manifest, _ := cmd.Flags().GetString("manifest"); manifest != "" {
			if err := store.WriteManifest(ctx, runID, manifest); err != nil {
				return err
			}
			fmt.Fprintf(out, "wrote %s\n", manifest)
			return nil
		}
		recs, err := store.Exports(ctx, runID)
		if err != nil {
			return err
		}
		printExports(out, recs)
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.Runs(ctx, limit)
	if err != nil {
		return err
	}
	printRuns(out, runs)
	return nil
}

func printRuns(w io.Writer, runs []ledger.RunInfo) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "no runs recorded")
		return
	}
	for _, r := range runs {
		finished := "interrupted"
		if !r.FinishedAt.IsZero() {
			finished = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		fmt.Fprintf(w, "%s  %s  %-8s  %d exported, %d skipped, %d failed  (%s)\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04"), r.Identifier,
			r.Exported, r.Skipped, r.Failed, finished)
	}
}

func printExports(w io.Writer, recs []types.ExportRecord) {
	if len(recs) == 0 {
		fmt.Fprintln(w, "no documents recorded for this run")
		return
	}
	for _, rec := range recs {
		line := fmt.Sprintf("%-8s %s %-10s %-8s %s", rec.Status, rec.FilingDate.Format(types.DateLayout), rec.FormType, rec.DocType, rec.SourceURL)
		if rec.Path != "" {
			line += " -> " + rec.Path
		}
		if rec.Error != "" {
			line += " (" + rec.Error + ")"
		}
		fmt.Fprintln(w, line)
	}
}
