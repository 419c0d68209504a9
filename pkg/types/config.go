// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout bounds each individual HTTP call.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests. EDGAR
	// expects a contact string (e.g. "edgar-export admin@example.com").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// CrawlConfig holds settings for traversing the filing index.
type CrawlConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the scheme and host of the filing service (default https://www.sec.gov).
	BaseURL string `json:"base_url" yaml:"base_url"`

	// PageSize is the number of index rows requested per page (default 100).
	PageSize int `json:"page_size" yaml:"page_size"`

	// MaxPages stops the crawl after this many index pages. Zero means no limit.
	MaxPages int `json:"max_pages" yaml:"max_pages"`

	// Workers is the number of filings exported in parallel (default 1).
	Workers int `json:"workers" yaml:"workers"`

	// PageDelay is slept between consecutive index page requests.
	PageDelay time.Duration `json:"page_delay" yaml:"page_delay"`
}

// ExportConfig holds settings for writing documents to disk.
type ExportConfig struct {
	HTTPConfig `yaml:",inline"`

	// OutputDir is the directory under which <identifier>/SEC/ is created.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// RenderExtensions lists extension tokens rendered to PDF (default htm, html).
	RenderExtensions []string `json:"render_extensions" yaml:"render_extensions"`

	// CopyExtensions lists extension tokens copied verbatim (default pdf, txt, xml).
	CopyExtensions []string `json:"copy_extensions" yaml:"copy_extensions"`
}

// RenderBackend identifies the HTML-to-PDF rendering tool.
type RenderBackend string

const (
	RendererWkhtmltopdf RenderBackend = "wkhtmltopdf"
	RendererContainer   RenderBackend = "container"
	RendererChrome      RenderBackend = "chrome"
)

// RenderConfig holds settings for the rendering collaborator.
type RenderConfig struct {
	// Backend selects the renderer: wkhtmltopdf, container, or chrome.
	Backend RenderBackend `json:"backend" yaml:"backend"`

	// BinaryPath is the wkhtmltopdf executable (default "wkhtmltopdf" on PATH).
	BinaryPath string `json:"binary_path" yaml:"binary_path"`

	// Image is the container image used by the container backend.
	Image string `json:"image" yaml:"image"`

	// Runtime selects docker or podman for the container backend. Empty
	// tries docker, then podman.
	Runtime string `json:"runtime,omitempty" yaml:"runtime,omitempty"`

	// Pull fetches Image when it is not present locally.
	Pull bool `json:"pull" yaml:"pull"`

	// Timeout bounds a single render.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// LedgerConfig holds settings for the export ledger.
type LedgerConfig struct {
	// Enabled turns on recording of runs and export outcomes.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Path overrides the database location (default <identifier>/SEC/.ledger.db).
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Crawl  CrawlConfig  `json:"crawl" yaml:"crawl"`
	Export ExportConfig `json:"export" yaml:"export"`
	Render RenderConfig `json:"render" yaml:"render"`
	Ledger LedgerConfig `json:"ledger" yaml:"ledger"`
}

const (
	DefaultBaseURL   = "https://www.sec.gov"
	DefaultPageSize  = 100
	DefaultTimeout   = 60 * time.Second
	DefaultUserAgent = "edgar-export/0.1"
	DefaultImage     = "wkhtmltopdf:latest"
)

// DefaultPipelineConfig returns the documented defaults.
func DefaultPipelineConfig() PipelineConfig {
	httpCfg := HTTPConfig{Timeout: DefaultTimeout, UserAgent: DefaultUserAgent}
	return PipelineConfig{
		Crawl: CrawlConfig{
			HTTPConfig: httpCfg,
			BaseURL:    DefaultBaseURL,
			PageSize:   DefaultPageSize,
			Workers:    1,
		},
		Export: ExportConfig{
			HTTPConfig:       httpCfg,
			OutputDir:        ".",
			RenderExtensions: []string{"htm", "html"},
			CopyExtensions:   []string{"pdf", "txt", "xml"},
		},
		Render: RenderConfig{
			Backend:    RendererWkhtmltopdf,
			BinaryPath: "wkhtmltopdf",
			Image:      DefaultImage,
			Timeout:    2 * DefaultTimeout,
		},
	}
}
