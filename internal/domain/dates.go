// internal/domain/dates.go
package domain

import (
	"strings"
	"time"
)

// Order dates arrive from spreadsheets and web forms in whatever shape
// the submitter used. These are the layouts seen in real sheets, tried
// in order.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
	"02-Jan-2006",
}

// ParseOrderDate parses a raw date cell against the known layouts. The
// time component, if any, is dropped; results are UTC midnight. Returns
// false for empty or unrecognized input.
func ParseOrderDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
