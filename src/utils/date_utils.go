package utils

import (
	"fmt"
	"strings"
	"time"
)

// Layouts accepted for brokerage dates, tried in order.
var dateLayouts = []string{
	"01/02/2006",
	"1/2/2006",
	"2006-01-02",
	"01/02/06",
	"1/2/06",
	"01-02-2006",
	time.RFC3339,
}

// ParseDate parses a calendar date in any of the brokerage layouts and returns
// it at midnight UTC.
func ParseDate(dateStr string) (time.Time, error) {
	s := strings.TrimSpace(dateStr)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	// Fidelity appends " as of MM/DD/YYYY" to some run dates.
	if i := strings.Index(strings.ToLower(s), " as of "); i > 0 {
		s = strings.TrimSpace(s[:i])
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", dateStr)
}

// ParseOptionalDate returns nil for an empty cell.
func ParseOptionalDate(dateStr string) (*time.Time, error) {
	if IsBlank(dateStr) {
		return nil, nil
	}
	t, err := ParseDate(dateStr)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// IsBlank reports whether a CSV cell carries no value.
func IsBlank(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, "nan") || s == "--"
}
