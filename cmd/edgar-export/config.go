// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/edgar-export/internal/dates"
	"github.com/pdiddy/edgar-export/internal/filter"
	"github.com/pdiddy/edgar-export/internal/secrets"
	"github.com/pdiddy/edgar-export/pkg/types"
)

// ConfigError reports an invalid or missing setting. It is raised before
// any network activity.
type ConfigError struct {
	Key string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration: %s: %v", e.Key, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Viper keys. Each maps to a flag, a config file entry, and an
// EDGAR_EXPORT_* environment variable (dots become underscores).
const (
	keyTicker      = "ticker"
	keyDirectory   = "export.output_dir"
	keyExclude     = "filter.exclude"
	keyInclude     = "filter.include"
	keyStartDate   = "filter.start_date"
	keyEndDate     = "filter.end_date"
	keyMaxDate     = "filter.maxdate"
	keyAnchor      = "filter.anchor"
	keyTimeout     = "http.timeout"
	keyUserAgent   = "http.user_agent"
	keyBaseURL     = "crawl.base_url"
	keyWorkers     = "crawl.workers"
	keyMaxPages    = "crawl.max_pages"
	keyPageDelay   = "crawl.page_delay"
	keyRenderExt   = "export.render_extensions"
	keyCopyExt     = "export.copy_extensions"
	keyRenderer    = "render.backend"
	keyWkhtmltopdf = "render.binary_path"
	keyImage       = "render.image"
	keyRuntime     = "render.runtime"
	keyPull        = "render.pull"
	keyRenderTime  = "render.timeout"
	keyLedger      = "ledger.enabled"
	keyLedgerPath  = "ledger.path"
)

// setDefaults registers the documented defaults on v.
func setDefaults(v *viper.Viper) {
	d := types.DefaultPipelineConfig()
	v.SetDefault(keyDirectory, d.Export.OutputDir)
	v.SetDefault(keyAnchor, dates.DefaultAnchor.Format(types.DateLayout))
	v.SetDefault(keyTimeout, d.Crawl.Timeout)
	v.SetDefault(keyBaseURL, d.Crawl.BaseURL)
	v.SetDefault(keyWorkers, d.Crawl.Workers)
	v.SetDefault(keyRenderExt, d.Export.RenderExtensions)
	v.SetDefault(keyCopyExt, d.Export.CopyExtensions)
	v.SetDefault(keyRenderer, string(d.Render.Backend))
	v.SetDefault(keyWkhtmltopdf, d.Render.BinaryPath)
	v.SetDefault(keyImage, d.Render.Image)
	v.SetDefault(keyRenderTime, d.Render.Timeout)
}

// crawlOptions is everything a crawl run needs, resolved from flags,
// config file, environment, and secrets.
type crawlOptions struct {
	Ticker   string
	Pipeline types.PipelineConfig
	Criteria types.FilterCriteria
}

// loadCrawlOptions resolves settings from v. A missing ticker or an
// unparseable date is a ConfigError.
func loadCrawlOptions(v *viper.Viper, creds map[string]string) (crawlOptions, error) {
	var opts crawlOptions

	opts.Ticker = strings.TrimSpace(v.GetString(keyTicker))
	if opts.Ticker == "" {
		return opts, &ConfigError{Key: "ticker", Err: fmt.Errorf("a ticker or CIK is required (-t)")}
	}

	anchor, err := time.Parse(types.DateLayout, v.GetString(keyAnchor))
	if err != nil {
		return opts, &ConfigError{Key: keyAnchor, Err: err}
	}

	opts.Criteria.IncludeForms = formList(v, keyInclude)
	opts.Criteria.ExcludeForms = formList(v, keyExclude)

	// --start-date is the newest filing date kept; --end-date (or --maxdate)
	// is the oldest.
	if opts.Criteria.Latest, err = dates.ParseOptional(v.GetString(keyStartDate), anchor); err != nil {
		return opts, &ConfigError{Key: "start-date", Err: err}
	}
	end := v.GetString(keyEndDate)
	if end == "" {
		end = v.GetString(keyMaxDate)
	}
	if opts.Criteria.Earliest, err = dates.ParseOptional(end, anchor); err != nil {
		return opts, &ConfigError{Key: "end-date", Err: err}
	}
	if l, e := opts.Criteria.Latest, opts.Criteria.Earliest; l != nil && e != nil && l.Before(*e) {
		return opts, &ConfigError{Key: "start-date", Err: fmt.Errorf("%s is before end date %s; no filing can match",
			l.Format(types.DateLayout), e.Format(types.DateLayout))}
	}

	workers := v.GetInt(keyWorkers)
	if workers < 1 {
		return opts, &ConfigError{Key: "workers", Err: fmt.Errorf("must be at least 1, got %d", workers)}
	}

	httpCfg := types.HTTPConfig{
		Timeout:   v.GetDuration(keyTimeout),
		UserAgent: userAgent(v, creds),
	}

	p := types.DefaultPipelineConfig()
	p.Crawl.HTTPConfig = httpCfg
	p.Crawl.BaseURL = v.GetString(keyBaseURL)
	p.Crawl.Workers = workers
	p.Crawl.MaxPages = v.GetInt(keyMaxPages)
	p.Crawl.PageDelay = v.GetDuration(keyPageDelay)

	p.Export.HTTPConfig = httpCfg
	p.Export.OutputDir = v.GetString(keyDirectory)
	p.Export.RenderExtensions = v.GetStringSlice(keyRenderExt)
	p.Export.CopyExtensions = v.GetStringSlice(keyCopyExt)

	p.Render.Backend = types.RenderBackend(v.GetString(keyRenderer))
	p.Render.BinaryPath = v.GetString(keyWkhtmltopdf)
	p.Render.Image = v.GetString(keyImage)
	p.Render.Runtime = v.GetString(keyRuntime)
	p.Render.Pull = v.GetBool(keyPull)
	p.Render.Timeout = v.GetDuration(keyRenderTime)

	p.Ledger.Enabled = v.GetBool(keyLedger)
	p.Ledger.Path = v.GetString(keyLedgerPath)

	opts.Pipeline = p
	return opts, nil
}

// formList accepts either a comma-separated string or a YAML list. Form
// names may contain spaces ("SC 13G"), so strings are split on commas only.
func formList(v *viper.Viper, key string) []string {
	switch val := v.Get(key).(type) {
	case []string:
		return filter.ParseFormList(strings.Join(val, ","))
	case []any:
		parts := make([]string, 0, len(val))
		for _, p := range val {
			parts = append(parts, fmt.Sprint(p))
		}
		return filter.ParseFormList(strings.Join(parts, ","))
	default:
		return filter.ParseFormList(v.GetString(key))
	}
}

// userAgent prefers an explicit setting, then the secrets directory, then
// the built-in product string.
func userAgent(v *viper.Viper, creds map[string]string) string {
	if ua := v.GetString(keyUserAgent); ua != "" {
		return ua
	}
	if ua := secrets.UserAgent(creds, types.DefaultUserAgent); ua != "" {
		return ua
	}
	return types.DefaultUserAgent
}
