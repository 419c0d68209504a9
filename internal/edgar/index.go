// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package edgar

import (
	"fmt"
	"io"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/edgar-export/pkg/types"
)

// Index table columns: form type, detail link, description, filing date.
const (
	indexColForm = 0
	indexColLink = 1
	indexColDate = 3
	indexMinCols = 4
)

// IndexPage is one parsed page of the filing index.
type IndexPage struct {
	// Found reports whether the filings table was present at all.
	Found bool

	// RowCount is the number of table rows including the header row.
	RowCount int

	// Entries holds the well-formed rows after the header, in page order.
	Entries []types.FilingIndexEntry

	// Malformed holds one error per row that could not be read.
	Malformed []error
}

// Exhausted reports whether the page signals the end of the index: the
// table is absent or holds only its header row.
func (p IndexPage) Exhausted() bool {
	return !p.Found || p.RowCount <= 1
}

// ParseIndexPage reads a filing index page. Links are resolved against base.
func ParseIndexPage(r io.Reader, base string) (IndexPage, error) {
	doc, err := parseHTML(r)
	if err != nil {
		return IndexPage{}, fmt.Errorf("parsing index page: %w", err)
	}

	table := doc.Find(indexTableSelector).First()
	if table.Length() == 0 {
		return IndexPage{}, nil
	}

	rows := table.Find("tr")
	page := IndexPage{Found: true, RowCount: rows.Length()}

	rows.Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}
		entry, err := parseIndexRow(row, i, base)
		if err != nil {
			page.Malformed = append(page.Malformed, err)
			return
		}
		page.Entries = append(page.Entries, entry)
	})
	return page, nil
}

func parseIndexRow(row *goquery.Selection, i int, base string) (types.FilingIndexEntry, error) {
	cols := cells(row)
	if len(cols) < indexMinCols {
		return types.FilingIndexEntry{}, &MalformedResponseError{
			Page: "index", Row: i, Field: "columns",
			Err: fmt.Errorf("got %d cells, want %d", len(cols), indexMinCols),
		}
	}

	formType := cellText(cols[indexColForm])
	if formType == "" {
		return types.FilingIndexEntry{}, &MalformedResponseError{Page: "index", Row: i, Field: "form type"}
	}

	href, ok := cols[indexColLink].Find(documentsButtonID).Attr("href")
	if !ok || href == "" {
		return types.FilingIndexEntry{}, &MalformedResponseError{Page: "index", Row: i, Field: "documents link"}
	}
	detailURL, err := resolve(base, href)
	if err != nil {
		return types.FilingIndexEntry{}, &MalformedResponseError{Page: "index", Row: i, Field: "documents link", Err: err}
	}

	date, err := time.Parse(types.DateLayout, cellText(cols[indexColDate]))
	if err != nil {
		return types.FilingIndexEntry{}, &MalformedResponseError{Page: "index", Row: i, Field: "filing date", Err: err}
	}

	return types.FilingIndexEntry{
		FormType:   formType,
		DetailURL:  detailURL,
		FilingDate: date,
	}, nil
}
