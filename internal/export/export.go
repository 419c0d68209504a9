// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export writes filing documents to disk: HTML documents are
// rendered to PDF, binary and plain-text documents are copied verbatim.
package export

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/pdiddy/edgar-export/internal/httputil"
	"github.com/pdiddy/edgar-export/internal/render"
	"github.com/pdiddy/edgar-export/pkg/types"
)

const (
	secDir      = "SEC"
	exhibitsDir = "Exhibits"
	pdfExt      = ".pdf"
)

// Action is what the exporter does with a document.
type Action int

const (
	ActionSkip Action = iota
	ActionRender
	ActionCopy
)

func (a Action) String() string {
	switch a {
	case ActionRender:
		return "render"
	case ActionCopy:
		return "copy"
	default:
		return "skip"
	}
}

// Request describes one document to export.
type Request struct {
	DocType         string
	SourceURL       string
	FilingDate      time.Time
	PrimaryFormType string
}

// Result reports the outcome of one export.
type Result struct {
	Target types.ExportTarget
	Action Action
	Status types.ExportStatus
}

// ExportError reports a failed render, download, or write.
type ExportError struct {
	URL  string
	Path string
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("exporting %s to %s: %v", e.URL, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// Exporter writes documents for one company identifier.
type Exporter struct {
	client      *http.Client
	renderer    render.Renderer
	cfg         types.ExportConfig
	rootDir     string
	exhibitsDir string
	locks       *pathLocks
}

// New creates an exporter writing under cfg.OutputDir/identifier/SEC.
func New(client *http.Client, renderer render.Renderer, cfg types.ExportConfig, identifier string) *Exporter {
	root := filepath.Join(cfg.OutputDir, Sanitize(identifier), secDir)
	return &Exporter{
		client:      client,
		renderer:    renderer,
		cfg:         cfg,
		rootDir:     root,
		exhibitsDir: filepath.Join(root, exhibitsDir),
		locks:       newPathLocks(),
	}
}

// RootDir returns the directory primary documents are written to.
func (e *Exporter) RootDir() string { return e.rootDir }

// ExhibitsDir returns the directory exhibits are written to.
func (e *Exporter) ExhibitsDir() string { return e.exhibitsDir }

// EnsureDirs creates the output directories. Existing directories are not
// an error.
func (e *Exporter) EnsureDirs() error {
	for _, dir := range []string{e.rootDir, e.exhibitsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	return nil
}

// Plan decides the action and destination for req without touching the
// network or the filesystem.
func (e *Exporter) Plan(req Request) (types.ExportTarget, Action) {
	ext := path.Ext(req.SourceURL)
	action := classify(ext, e.cfg)

	dir := e.rootDir
	name := req.FilingDate.Format(types.DateLayout) + " Form "
	if isExhibit(req.DocType) {
		dir = e.exhibitsDir
		name += req.PrimaryFormType + " " + req.DocType
	} else {
		name += req.DocType
	}

	target := types.ExportTarget{Dir: dir, Filename: Sanitize(name), Extension: Sanitize(ext)}
	if action == ActionRender {
		target.Extension = pdfExt
	}
	return target, action
}

// Export renders or copies one document. Documents whose extension is in
// neither allow-list, including rows without a link, are skipped without
// error. Exports to the same destination path are serialized.
func (e *Exporter) Export(ctx context.Context, req Request) (Result, error) {
	target, action := e.Plan(req)
	res := Result{Target: target, Action: action, Status: types.ExportSkipped}
	if action == ActionSkip {
		return res, nil
	}

	dest := target.Path()
	unlock := e.locks.lock(dest)
	defer unlock()

	var err error
	switch action {
	case ActionRender:
		err = e.renderer.Render(ctx, req.SourceURL, dest)
	case ActionCopy:
		err = httputil.Download(ctx, e.client, req.SourceURL, dest, e.cfg.HTTPConfig)
	}
	if err != nil {
		res.Status = types.ExportFailed
		return res, &ExportError{URL: req.SourceURL, Path: dest, Err: err}
	}

	res.Status = types.ExportDone
	return res, nil
}

// classify matches the extension against the allow-lists by substring, so
// ".htm" and ".html" both match the "htm" token.
func classify(ext string, cfg types.ExportConfig) Action {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" {
		return ActionSkip
	}
	for _, tok := range cfg.RenderExtensions {
		if tok != "" && strings.Contains(ext, strings.ToLower(tok)) {
			return ActionRender
		}
	}
	for _, tok := range cfg.CopyExtensions {
		if tok != "" && strings.Contains(ext, strings.ToLower(tok)) {
			return ActionCopy
		}
	}
	return ActionSkip
}

func isExhibit(docType string) bool {
	return types.DocumentRow{DocType: docType}.IsExhibit()
}

// Sanitize removes every character that is not a letter, digit,
// underscore, period, parenthesis, space, or hyphen.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return r
		case r == '_', r == '.', r == '(', r == ')', r == ' ', r == '-':
			return r
		}
		return -1
	}, s)
}
