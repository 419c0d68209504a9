// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package edgar

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/edgar-export/pkg/types"
)

// Document table columns: sequence, description, document link, type, size.
const (
	detailColDesc = 1
	detailColLink = 2
	detailColType = 3
	detailMinCols = 4
)

// ParseDetailPage reads a filing detail page into a FilingDetail. Rows that
// fail the discard predicate are dropped; the first retained row sets the
// primary form type. Returns an error wrapping ErrMalformedDetailPage when
// the filing date or the document table is missing or unreadable.
func ParseDetailPage(r io.Reader, base string) (types.FilingDetail, error) {
	doc, err := parseHTML(r)
	if err != nil {
		return types.FilingDetail{}, fmt.Errorf("%w: %v", ErrMalformedDetailPage, err)
	}

	label := doc.Find("div").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.TrimSpace(s.Text()) == filingDateLabel
	}).First()
	if label.Length() == 0 {
		return types.FilingDetail{}, fmt.Errorf("%w: no %q label", ErrMalformedDetailPage, filingDateLabel)
	}
	dateText := cellText(label.Next())
	date, err := time.Parse(types.DateLayout, dateText)
	if err != nil {
		return types.FilingDetail{}, fmt.Errorf("%w: filing date %q: %v", ErrMalformedDetailPage, dateText, err)
	}

	table := doc.Find(detailTableSelector).First()
	if table.Length() == 0 {
		return types.FilingDetail{}, fmt.Errorf("%w: no document table", ErrMalformedDetailPage)
	}

	detail := types.FilingDetail{FilingDate: date}
	var rowErr error
	table.Find("tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		if i == 0 {
			return true
		}
		d, err := parseDocumentRow(row, i, base)
		if err != nil {
			rowErr = err
			return false
		}
		if d.Discard() {
			return true
		}
		if detail.PrimaryFormType == "" {
			detail.PrimaryFormType = d.DocType
		}
		detail.Rows = append(detail.Rows, d)
		return true
	})
	if rowErr != nil {
		return types.FilingDetail{}, fmt.Errorf("%w: %v", ErrMalformedDetailPage, rowErr)
	}
	return detail, nil
}

func parseDocumentRow(row *goquery.Selection, i int, base string) (types.DocumentRow, error) {
	cols := cells(row)
	if len(cols) < detailMinCols {
		return types.DocumentRow{}, &MalformedResponseError{
			Page: "detail", Row: i, Field: "columns",
			Err: fmt.Errorf("got %d cells, want %d", len(cols), detailMinCols),
		}
	}

	d := types.DocumentRow{
		DocType:     cellText(cols[detailColType]),
		Description: cellText(cols[detailColDesc]),
	}

	if href, ok := cols[detailColLink].Find("a").First().Attr("href"); ok && href != "" {
		u, err := resolve(base, href)
		if err != nil {
			return types.DocumentRow{}, &MalformedResponseError{Page: "detail", Row: i, Field: "document link", Err: err}
		}
		d.SourceURL = u
	}
	return d, nil
}
