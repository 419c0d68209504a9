// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"path/filepath"
	"strings"
	"time"
)

// DateLayout is the layout EDGAR uses for filing dates on index and detail pages.
const DateLayout = "2006-01-02"

// FilingIndexEntry is one row of the paginated filing index for a company.
type FilingIndexEntry struct {
	// FormType is the declared form type (e.g. "10-K"), trimmed.
	FormType string `json:"form_type" yaml:"form_type"`

	// DetailURL is the absolute URL of the filing detail page.
	DetailURL string `json:"detail_url" yaml:"detail_url"`

	// FilingDate is the date the filing was made.
	FilingDate time.Time `json:"filing_date" yaml:"filing_date"`
}

// DocumentRow is one document listed in a filing's document table.
type DocumentRow struct {
	// DocType is the declared document type (e.g. "10-K", "EX-10.1").
	DocType string `json:"doc_type" yaml:"doc_type"`

	// Description is the free-text description column.
	Description string `json:"description" yaml:"description"`

	// SourceURL is the absolute URL of the document.
	SourceURL string `json:"source_url" yaml:"source_url"`
}

// Discard reports whether the row is a non-content asset: empty type or
// description, graphics, or the complete submission text file.
func (r DocumentRow) Discard() bool {
	if r.DocType == "" || r.Description == "" {
		return true
	}
	if strings.Contains(r.DocType, "GRAPHIC") {
		return true
	}
	return strings.Contains(strings.ToLower(r.Description), "submission text file")
}

// IsExhibit reports whether the row is an exhibit rather than a primary document.
func (r DocumentRow) IsExhibit() bool {
	return strings.Contains(r.DocType, "EX")
}

// FilingDetail holds the parsed contents of a filing detail page.
type FilingDetail struct {
	// FilingDate is read from the detail page's "Filing Date" field.
	FilingDate time.Time `json:"filing_date" yaml:"filing_date"`

	// PrimaryFormType is the type of the first retained row. Exhibit
	// filenames are qualified with it.
	PrimaryFormType string `json:"primary_form_type" yaml:"primary_form_type"`

	// Rows lists retained documents in source table order.
	Rows []DocumentRow `json:"rows" yaml:"rows"`
}

// FilterCriteria selects filings by form type and date range.
// When IncludeForms is non-empty it takes precedence and ExcludeForms is ignored.
type FilterCriteria struct {
	IncludeForms []string `json:"include_forms,omitempty" yaml:"include_forms,omitempty"`
	ExcludeForms []string `json:"exclude_forms,omitempty" yaml:"exclude_forms,omitempty"`

	// Latest rejects filings dated after it (the CLI's --start-date).
	Latest *time.Time `json:"latest,omitempty" yaml:"latest,omitempty"`

	// Earliest rejects filings dated before it (the CLI's --end-date).
	Earliest *time.Time `json:"earliest,omitempty" yaml:"earliest,omitempty"`
}

// ExportStatus records what happened to one document row.
type ExportStatus string

const (
	ExportDone    ExportStatus = "exported"
	ExportSkipped ExportStatus = "skipped"
	ExportFailed  ExportStatus = "failed"
)

// ExportTarget is the destination derived for a document row.
type ExportTarget struct {
	Dir       string `json:"dir" yaml:"dir"`
	Filename  string `json:"filename" yaml:"filename"`
	Extension string `json:"extension" yaml:"extension"`
}

// Path returns the full destination path.
func (t ExportTarget) Path() string {
	return filepath.Join(t.Dir, t.Filename+t.Extension)
}

// ExportRecord is the audit entry for one document row of an accepted filing.
type ExportRecord struct {
	FormType   string       `json:"form_type" yaml:"form_type"`
	FilingDate time.Time    `json:"filing_date" yaml:"filing_date"`
	DocType    string       `json:"doc_type" yaml:"doc_type"`
	SourceURL  string       `json:"source_url" yaml:"source_url"`
	Path       string       `json:"path,omitempty" yaml:"path,omitempty"`
	Action     string       `json:"action" yaml:"action"`
	Status     ExportStatus `json:"status" yaml:"status"`
	Error      string       `json:"error,omitempty" yaml:"error,omitempty"`
}
