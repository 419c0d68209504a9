// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pdiddy/edgar-export/internal/httputil"
	"github.com/pdiddy/edgar-export/pkg/types"
)

// runner abstracts command execution for testing.
type runner interface {
	Run(ctx context.Context, name string, args []string) error
}

type osRunner struct{}

func (osRunner) Run(ctx context.Context, name string, args []string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

// Wkhtmltopdf renders through a locally installed wkhtmltopdf binary.
type Wkhtmltopdf struct {
	bin       string
	userAgent string
	cfg       types.RenderConfig
	run       runner
}

// NewWkhtmltopdf creates a renderer invoking cfg.BinaryPath.
func NewWkhtmltopdf(cfg types.RenderConfig, userAgent string) *Wkhtmltopdf {
	bin := cfg.BinaryPath
	if bin == "" {
		bin = "wkhtmltopdf"
	}
	return &Wkhtmltopdf{bin: bin, userAgent: userAgent, cfg: cfg, run: osRunner{}}
}

func (w *Wkhtmltopdf) Name() string { return string(types.RendererWkhtmltopdf) }

func (w *Wkhtmltopdf) Close() error { return nil }

// Render writes to a temporary file beside destPath and renames on success.
func (w *Wkhtmltopdf) Render(ctx context.Context, sourceURL, destPath string) error {
	ctx, cancel := withTimeout(ctx, w.cfg.Timeout)
	defer cancel()

	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".render-*.pdf")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	if err := os.Chmod(tmpPath, httputil.FileMode); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting temp file mode: %w", err)
	}

	if err := w.run.Run(ctx, w.bin, wkhtmltopdfArgs(w.userAgent, sourceURL, tmpPath)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("wkhtmltopdf %s: %w", sourceURL, err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
