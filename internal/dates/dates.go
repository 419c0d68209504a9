// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dates parses loosely formatted calendar dates from the command line.
package dates

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// DefaultAnchor supplies the parts a partial date leaves out.
var DefaultAnchor = time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC)

// Layouts tried before falling back to dateparse. Month-first, matching
// how US filing dates are written by hand.
var fullLayouts = []string{
	"2006",
	"2006-01",
	"1/2006",
	"2006-1-2",
	"1-2-2006",
	"1/2/2006",
	"1.2.2006",
	"January 2006",
	"Jan 2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// Layouts without a year; the anchor's year is filled in.
var yearlessLayouts = []string{
	"January 2",
	"Jan 2",
	"1/2",
	"1-2",
	"January",
	"Jan",
}

// Parse reads s as a calendar date. Missing month and day default to
// January 1; a missing year defaults to the anchor's year. The result is
// midnight UTC.
func Parse(s string, anchor time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	for _, layout := range fullLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return midnight(t), nil
		}
	}
	for _, layout := range yearlessLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(anchor.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}

	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q: %w", s, err)
	}
	return midnight(t), nil
}

// ParseOptional returns nil for an empty string.
func ParseOptional(s string, anchor time.Time) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := Parse(s, anchor)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
