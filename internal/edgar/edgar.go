// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package edgar parses EDGAR filing index and filing detail pages.
package edgar

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Markers that locate the tables on EDGAR pages.
const (
	indexTableSelector  = "table.tableFile2"
	detailTableSelector = `table[summary="Document Format Files"]`
	documentsButtonID   = "a#documentsbutton"
	filingDateLabel     = "Filing Date"
	browsePath          = "/cgi-bin/browse-edgar"
)

// ErrMalformedDetailPage is returned when a detail page lacks its filing
// date label or document table. Callers skip the filing.
var ErrMalformedDetailPage = errors.New("malformed filing detail page")

// MalformedResponseError describes an expected cell, link, or value that
// was missing from a table row.
type MalformedResponseError struct {
	Page  string
	Row   int
	Field string
	Err   error
}

func (e *MalformedResponseError) Error() string {
	msg := fmt.Sprintf("%s row %d: missing or invalid %s", e.Page, e.Row, e.Field)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// IndexURL builds the index page request for a company identifier at offset.
func IndexURL(base, cik string, offset, count int) string {
	q := url.Values{}
	q.Set("action", "getcompany")
	q.Set("CIK", cik)
	q.Set("owner", "include")
	q.Set("start", strconv.Itoa(offset))
	q.Set("count", strconv.Itoa(count))
	return strings.TrimRight(base, "/") + browsePath + "?" + q.Encode()
}

// resolve turns an href found on a page into an absolute URL.
func resolve(base, href string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing base URL %q: %w", base, err)
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("parsing link %q: %w", href, err)
	}
	return b.ResolveReference(ref).String(), nil
}

// cells returns the trimmed td cells of a row.
func cells(row *goquery.Selection) []*goquery.Selection {
	var out []*goquery.Selection
	row.Find("td").Each(func(_ int, td *goquery.Selection) {
		out = append(out, td)
	})
	return out
}

func cellText(s *goquery.Selection) string {
	return strings.TrimSpace(s.Text())
}

// parseHTML builds a queryable document. The tokenizer is lenient, so only
// read errors surface here.
func parseHTML(r io.Reader) (*goquery.Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromNode(root), nil
}
