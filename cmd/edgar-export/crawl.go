// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/edgar-export/internal/crawl"
	"github.com/pdiddy/edgar-export/internal/export"
	"github.com/pdiddy/edgar-export/internal/ledger"
	"github.com/pdiddy/edgar-export/internal/render"
	"github.com/pdiddy/edgar-export/pkg/types"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Export a company's filings",
	Long: `Crawl pages through the company's filing index newest first. Filings
are kept when their form type passes the include/exclude lists and their
filing date lies between --end-date and --start-date (both inclusive).

Dates accept flexible formats ("2015", "2015-06", "March 2015", "6/1/2015").
Missing parts default to the anchor date 2019-01-01.

Include wins over exclude: when --include is set, only those forms are kept.`,
	Example: `  edgar-export crawl -t AAPL -d ./filings -e "S-4,SC 13G" --end-date 2014
  edgar-export crawl -t 0000320193 -i 10-K --renderer chrome --ledger`,
	RunE: runCrawl,
}

func init() {
	f := crawlCmd.Flags()
	f.StringP("ticker", "t", "", "company ticker or CIK (required)")
	f.StringP("directory", "d", ".", "output directory; files go to <directory>/<ticker>/SEC")
	f.StringP("exclude", "e", "", "comma-separated form types to skip")
	f.StringP("include", "i", "", "comma-separated form types to keep (overrides --exclude)")
	f.String("start-date", "", "newest filing date to keep")
	f.String("end-date", "", "oldest filing date to keep")
	f.String("maxdate", "", "alias for --end-date")
	f.Int("workers", 1, "filings exported in parallel")
	f.String("renderer", string(types.RendererWkhtmltopdf), "HTML to PDF backend: wkhtmltopdf, container, or chrome")
	f.String("wkhtmltopdf", "wkhtmltopdf", "path to the wkhtmltopdf binary")
	f.String("runtime", "", "container runtime for --renderer container: docker or podman (default: detect)")
	f.Bool("pull", false, "pull the render image if it is missing")
	f.Duration("timeout", types.DefaultTimeout, "timeout for each HTTP request")
	f.Bool("ledger", false, "record this run in <directory>/<ticker>/SEC/.ledger.db")

	bind := map[string]string{
		keyTicker:      "ticker",
		keyDirectory:   "directory",
		keyExclude:     "exclude",
		keyInclude:     "include",
		keyStartDate:   "start-date",
		keyEndDate:     "end-date",
		keyMaxDate:     "maxdate",
		keyWorkers:     "workers",
		keyRenderer:    "renderer",
		keyWkhtmltopdf: "wkhtmltopdf",
		keyRuntime:     "runtime",
		keyPull:        "pull",
		keyTimeout:     "timeout",
		keyLedger:      "ledger",
	}
	for key, flag := range bind {
		viper.BindPFlag(key, f.Lookup(flag))
	}
	setDefaults(viper.GetViper())

	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, args []string) error {
	opts, err := loadCrawlOptions(viper.GetViper(), loadedSecrets)
	if err != nil {
		return err
	}
	cfg := opts.Pipeline
	out := cmd.OutOrStdout()

	renderer, err := render.New(cmd.Context(), cfg.Render, cfg.Export.UserAgent)
	if err != nil {
		return &ConfigError{Key: "renderer", Err: err}
	}
	defer renderer.Close()

	client := &http.Client{}
	exp := export.New(client, renderer, cfg.Export, opts.Ticker)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	crawlOpts := []crawl.Option{crawl.WithLogger(logrus.StandardLogger())}

	var run *ledger.Run
	if cfg.Ledger.Enabled {
		path := cfg.Ledger.Path
		if path == "" {
			path = filepath.Join(exp.RootDir(), ledger.DefaultFile)
		}
		store, err := ledger.Open(path)
		if err != nil {
			return err
		}
		defer store.Close()

		run, err = store.StartRun(ctx, opts.Ticker)
		if err != nil {
			return err
		}
		crawlOpts = append(crawlOpts, crawl.WithRecorder(run))
		fmt.Fprintf(out, "ledger run %s (%s)\n", run.ID, path)
	}

	fmt.Fprintf(out, "exporting %s filings to %s using %s\n", opts.Ticker, exp.RootDir(), renderer.Name())

	ctrl := crawl.New(client, exp, cfg.Crawl, crawlOpts...)
	sum, crawlErr := ctrl.Crawl(ctx, opts.Ticker, opts.Criteria)

	if run != nil {
		// Finish even after an interrupt so partial runs keep their counts.
		if err := run.Finish(context.WithoutCancel(ctx)); err != nil {
			logrus.WithError(err).Warn("could not finish ledger run")
		}
	}

	printSummary(out, opts.Ticker, sum)

	if crawlErr != nil {
		return crawlErr
	}
	if sum.HasFailures() {
		return fmt.Errorf("%d document(s) failed, %d filing(s) could not be fetched", sum.Failed, sum.Unfetched)
	}
	return nil
}

func printSummary(w io.Writer, ticker string, sum crawl.Summary) {
	if !sum.Found {
		fmt.Fprintf(w, "\nno filings found for %s\n", ticker)
		return
	}
	fmt.Fprintf(w, "\nCrawl summary: %d page(s), %d filing(s) exported, %d ignored, %d malformed, %d unreachable\n",
		sum.Pages, sum.Filings, sum.Ignored, sum.Malformed, sum.Unfetched)
	fmt.Fprintf(w, "Documents: %d exported, %d skipped, %d failed (total: %d)\n",
		sum.Exported, sum.Skipped, sum.Failed, sum.Total())
}
