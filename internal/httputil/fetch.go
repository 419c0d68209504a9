// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pdiddy/edgar-export/pkg/types"
)

// FetchError reports a failed HTTP GET: a transport error, a timeout, or a
// non-200 status.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Retryable reports whether the failure is transient: a timeout, HTTP 429,
// or a 5xx response. Nothing in this module retries automatically.
func (e *FetchError) Retryable() bool {
	if e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500 {
		return true
	}
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// browserHeaders mirror what EDGAR serves full pages to.
var browserHeaders = map[string]string{
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.8",
}

// open issues a GET bounded by cfg.Timeout and returns the response once
// the status is 200. The returned cancel func must be called after the
// body has been consumed.
func open(ctx context.Context, client *http.Client, url string, cfg types.HTTPConfig) (*http.Response, context.CancelFunc, error) {
	cancel := context.CancelFunc(func() {})
	if cfg.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, nil, &FetchError{URL: url, Err: err}
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		cancel()
		return nil, nil, &FetchError{URL: url, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		cancel()
		return nil, nil, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}
	return resp, cancel, nil
}

// Get fetches url and returns the full response body.
func Get(ctx context.Context, client *http.Client, url string, cfg types.HTTPConfig) ([]byte, error) {
	resp, cancel, err := open(ctx, client, url, cfg)
	if err != nil {
		return nil, err
	}
	defer cancel()
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("reading body: %w", err)}
	}
	return body, nil
}

// Download fetches url to destPath using a temporary file in the same
// directory, renaming on success. A failed download leaves no file behind.
func Download(ctx context.Context, client *http.Client, url, destPath string, cfg types.HTTPConfig) error {
	resp, cancel, err := open(ctx, client, url, cfg)
	if err != nil {
		return err
	}
	defer cancel()
	defer resp.Body.Close()

	return WriteAtomic(destPath, resp.Body)
}

// FileMode is the permission given to every exported file. Temp files
// start out 0600.
const FileMode os.FileMode = 0o644

// WriteAtomic copies r into a temp file next to destPath and renames it
// into place.
func WriteAtomic(destPath string, r io.Reader) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".export-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, r)
	if copyErr == nil {
		copyErr = tmpFile.Chmod(FileMode)
	}
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
