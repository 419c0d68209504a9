// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package crawl walks a company's paginated filing index, filters filings,
// and exports every document of each accepted filing.
package crawl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/pdiddy/edgar-export/internal/edgar"
	"github.com/pdiddy/edgar-export/internal/export"
	"github.com/pdiddy/edgar-export/internal/filter"
	"github.com/pdiddy/edgar-export/internal/httputil"
	"github.com/pdiddy/edgar-export/pkg/types"
)

// Exporter writes one document row to disk.
type Exporter interface {
	EnsureDirs() error
	Export(ctx context.Context, req export.Request) (export.Result, error)
}

// Recorder receives the outcome of every document row of an accepted filing.
type Recorder interface {
	RecordExport(ctx context.Context, rec types.ExportRecord) error
}

// Summary tallies one crawl.
type Summary struct {
	// Found is false when the first index page had no filings table,
	// which usually means the identifier is unknown.
	Found bool

	Pages     int
	Filings   int // accepted filings whose detail page was processed
	Ignored   int // filings rejected by the filter
	Malformed int // index rows or detail pages that could not be read
	Unfetched int // detail pages that could not be fetched

	Exported int
	Skipped  int
	Failed   int
}

// Total returns the number of document rows processed.
func (s Summary) Total() int {
	return s.Exported + s.Skipped + s.Failed
}

// HasFailures reports whether any document or detail page failed.
func (s Summary) HasFailures() bool {
	return s.Failed > 0 || s.Unfetched > 0
}

// Controller drives a crawl.
type Controller struct {
	client   *http.Client
	exporter Exporter
	cfg      types.CrawlConfig
	log      logrus.FieldLogger
	recorder Recorder
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. The default is the logrus standard logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Controller) { c.log = l }
}

// WithRecorder reports every export outcome to r.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// New creates a controller. Zero-valued PageSize, Workers, and BaseURL in
// cfg take their defaults.
func New(client *http.Client, exporter Exporter, cfg types.CrawlConfig, opts ...Option) *Controller {
	if cfg.PageSize <= 0 {
		cfg.PageSize = types.DefaultPageSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = types.DefaultBaseURL
	}
	c := &Controller{
		client:   client,
		exporter: exporter,
		cfg:      cfg,
		log:      logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Crawl walks the filing index for cik from offset 0 until a page has no
// filings table or only its header row. A failed index fetch aborts the
// crawl; failures on individual filings and documents are logged and
// counted.
func (c *Controller) Crawl(ctx context.Context, cik string, criteria types.FilterCriteria) (Summary, error) {
	var sum Summary
	if err := c.exporter.EnsureDirs(); err != nil {
		return sum, err
	}

	log := c.log.WithField("cik", cik)
	tally := &tally{sum: &sum}

	for offset := 0; ; offset += c.cfg.PageSize {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if c.cfg.MaxPages > 0 && sum.Pages >= c.cfg.MaxPages {
			log.WithField("pages", sum.Pages).Info("page limit reached")
			break
		}
		if sum.Pages > 0 && c.cfg.PageDelay > 0 {
			if err := sleep(ctx, c.cfg.PageDelay); err != nil {
				return sum, err
			}
		}

		pageURL := edgar.IndexURL(c.cfg.BaseURL, cik, offset, c.cfg.PageSize)
		body, err := httputil.Get(ctx, c.client, pageURL, c.cfg.HTTPConfig)
		if err != nil {
			return sum, fmt.Errorf("fetching index page at offset %d: %w", offset, err)
		}
		page, err := edgar.ParseIndexPage(bytes.NewReader(body), c.cfg.BaseURL)
		if err != nil {
			return sum, fmt.Errorf("index page at offset %d: %w", offset, err)
		}
		sum.Pages++

		if offset == 0 {
			sum.Found = page.Found
			if !page.Found {
				log.Warn("no filings table on first index page; identifier may be unknown")
			}
		}
		if page.Exhausted() {
			log.WithField("offset", offset).Debug("filing index exhausted")
			break
		}

		for _, merr := range page.Malformed {
			log.WithError(merr).Warn("skipping unreadable index row")
			sum.Malformed++
		}

		var accepted []types.FilingIndexEntry
		for _, entry := range page.Entries {
			d := filter.Evaluate(entry.FormType, entry.FilingDate, criteria)
			if !d.Accepted {
				log.WithFields(logrus.Fields{"form": entry.FormType, "date": entry.FilingDate.Format(types.DateLayout)}).
					Infof("ignoring filing: %s", d.Reason)
				sum.Ignored++
				continue
			}
			accepted = append(accepted, entry)
		}

		if err := c.processPage(ctx, accepted, tally); err != nil {
			return sum, err
		}
	}

	return sum, nil
}

// processPage exports the accepted filings of one page with at most
// cfg.Workers filings in flight, returning once all have finished.
func (c *Controller) processPage(ctx context.Context, entries []types.FilingIndexEntry, t *tally) error {
	sem := semaphore.NewWeighted(int64(c.cfg.Workers))
	var wg sync.WaitGroup
	var acquireErr error

	for _, entry := range entries {
		if err := sem.Acquire(ctx, 1); err != nil {
			acquireErr = err
			break
		}
		wg.Add(1)
		go func(e types.FilingIndexEntry) {
			defer wg.Done()
			defer sem.Release(1)
			c.processFiling(ctx, e, t)
		}(entry)
	}

	wg.Wait()
	return acquireErr
}

// processFiling fetches and parses one detail page and exports its rows in
// table order, so exhibits always see the filing's primary form type.
func (c *Controller) processFiling(ctx context.Context, entry types.FilingIndexEntry, t *tally) {
	log := c.log.WithFields(logrus.Fields{
		"form": entry.FormType,
		"date": entry.FilingDate.Format(types.DateLayout),
		"url":  entry.DetailURL,
	})

	body, err := httputil.Get(ctx, c.client, entry.DetailURL, c.cfg.HTTPConfig)
	if err != nil {
		var fe *httputil.FetchError
		if errors.As(err, &fe) && fe.Retryable() {
			log = log.WithField("retryable", true)
		}
		log.WithError(err).Warn("skipping filing: detail page fetch failed")
		t.add(func(s *Summary) { s.Unfetched++ })
		return
	}

	// Document links are relative to the detail page, not the site root.
	detail, err := edgar.ParseDetailPage(bytes.NewReader(body), entry.DetailURL)
	if err != nil {
		log.WithError(err).Warn("skipping filing")
		t.add(func(s *Summary) { s.Malformed++ })
		return
	}
	t.add(func(s *Summary) { s.Filings++ })

	if len(detail.Rows) == 0 {
		log.Info("filing lists no exportable documents")
		return
	}

	for _, row := range detail.Rows {
		if ctx.Err() != nil {
			return
		}
		req := export.Request{
			DocType:         row.DocType,
			SourceURL:       row.SourceURL,
			FilingDate:      detail.FilingDate,
			PrimaryFormType: detail.PrimaryFormType,
		}
		res, err := c.exporter.Export(ctx, req)

		rlog := log.WithFields(logrus.Fields{"doc": row.DocType, "action": res.Action.String()})
		switch {
		case err != nil:
			rlog.WithError(err).Error("export failed")
			t.add(func(s *Summary) { s.Failed++ })
		case res.Status == types.ExportSkipped:
			rlog.WithField("source", row.SourceURL).Debug("no export rule for document extension")
			t.add(func(s *Summary) { s.Skipped++ })
		default:
			rlog.WithField("path", res.Target.Path()).Infof("exported %s", row.Description)
			t.add(func(s *Summary) { s.Exported++ })
		}

		c.record(ctx, entry, row, res, err)
	}
	log.Debug("end of filing")
}

func (c *Controller) record(ctx context.Context, entry types.FilingIndexEntry, row types.DocumentRow, res export.Result, exportErr error) {
	if c.recorder == nil {
		return
	}
	rec := types.ExportRecord{
		FormType:   entry.FormType,
		FilingDate: entry.FilingDate,
		DocType:    row.DocType,
		SourceURL:  row.SourceURL,
		Action:     res.Action.String(),
		Status:     res.Status,
	}
	if res.Action != export.ActionSkip {
		rec.Path = res.Target.Path()
	}
	if exportErr != nil {
		rec.Error = exportErr.Error()
	}
	if err := c.recorder.RecordExport(ctx, rec); err != nil {
		c.log.WithError(err).Warn("ledger write failed")
	}
}

// tally serializes summary updates from concurrent filings.
type tally struct {
	mu  sync.Mutex
	sum *Summary
}

func (t *tally) add(f func(*Summary)) {
	t.mu.Lock()
	f(t.sum)
	t.mu.Unlock()
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
