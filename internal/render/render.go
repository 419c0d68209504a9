// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render converts HTML documents into PDF files with pluggable
// backends: a local wkhtmltopdf binary, wkhtmltopdf inside a container, or
// headless Chrome.
package render

import (
	"context"
	"fmt"
	"time"

	"github.com/pdiddy/edgar-export/internal/container"
	"github.com/pdiddy/edgar-export/pkg/types"
)

// Renderer fetches the HTML document at sourceURL and writes a PDF to
// destPath. Implementations never leave a partial file at destPath.
type Renderer interface {
	// Name identifies the backend in logs.
	Name() string

	// Render produces a PDF at destPath from the document at sourceURL.
	Render(ctx context.Context, sourceURL, destPath string) error

	// Close releases any long-lived resources (browser processes).
	Close() error
}

// New builds the renderer selected by cfg.Backend. userAgent is forwarded
// to the page requests the renderer makes.
func New(ctx context.Context, cfg types.RenderConfig, userAgent string) (Renderer, error) {
	switch cfg.Backend {
	case types.RendererWkhtmltopdf, "":
		return NewWkhtmltopdf(cfg, userAgent), nil
	case types.RendererContainer:
		rt, err := container.Detect(cfg.Runtime)
		if err != nil {
			return nil, err
		}
		return NewContainer(ctx, rt, cfg, userAgent)
	case types.RendererChrome:
		return NewChrome(cfg, userAgent), nil
	default:
		return nil, fmt.Errorf("unknown renderer %q (want wkhtmltopdf, container, or chrome)", cfg.Backend)
	}
}

// withTimeout bounds a single render when timeout is positive.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// wkhtmltopdfArgs are shared by the local and container backends. The
// output path "-" streams the PDF to stdout.
func wkhtmltopdfArgs(userAgent, sourceURL, out string) []string {
	args := []string{"--quiet"}
	if userAgent != "" {
		args = append(args, "--custom-header", "User-Agent", userAgent, "--custom-header-propagation")
	}
	return append(args, sourceURL, out)
}
