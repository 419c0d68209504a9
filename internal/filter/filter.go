// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package filter decides which filings are exported based on form type and
// filing date.
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/edgar-export/pkg/types"
)

// Decision is the outcome of evaluating one filing.
type Decision struct {
	Accepted bool
	Reason   string
}

// Accepts reports whether a filing with formType and date passes criteria.
func Accepts(formType string, date time.Time, criteria types.FilterCriteria) bool {
	return Evaluate(formType, date, criteria).Accepted
}

// Evaluate applies, in order: the include list (when non-empty), otherwise
// the exclude list, then the latest and earliest date bounds. Both bounds
// are inclusive.
func Evaluate(formType string, date time.Time, criteria types.FilterCriteria) Decision {
	form := strings.TrimSpace(formType)

	if len(criteria.IncludeForms) > 0 {
		if !contains(criteria.IncludeForms, form) {
			return Decision{Reason: fmt.Sprintf("%s is not an included form", form)}
		}
	} else if contains(criteria.ExcludeForms, form) {
		return Decision{Reason: fmt.Sprintf("%s is an excluded form", form)}
	}

	day := truncate(date)
	if criteria.Latest != nil && day.After(truncate(*criteria.Latest)) {
		return Decision{Reason: fmt.Sprintf("filed %s, after %s", day.Format(types.DateLayout), criteria.Latest.Format(types.DateLayout))}
	}
	if criteria.Earliest != nil && day.Before(truncate(*criteria.Earliest)) {
		return Decision{Reason: fmt.Sprintf("filed %s, prior to %s", day.Format(types.DateLayout), criteria.Earliest.Format(types.DateLayout))}
	}

	return Decision{Accepted: true}
}

// ParseFormList splits a comma-separated form list, trimming entries and
// dropping empty ones.
func ParseFormList(s string) []string {
	var forms []string
	for _, part := range strings.Split(s, ",") {
		if f := strings.TrimSpace(part); f != "" {
			forms = append(forms, f)
		}
	}
	return forms
}

func contains(forms []string, form string) bool {
	for _, f := range forms {
		if strings.TrimSpace(f) == form {
			return true
		}
	}
	return false
}

// truncate drops any time-of-day component so comparisons are by calendar date.
func truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
