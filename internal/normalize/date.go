// Package normalize converts raw scraped text fields into canonical typed
// values. Every function in this package is total: malformed input yields
// nil, never an error or a panic.
package normalize

import (
	"strings"
	"time"
)

// noValueSentinel marks fields the source site renders when it has no data.
const noValueSentinel = "N/A"

// dateLayouts is the fixed priority list of calendar layouts tried against
// scraped date strings. Order matters: a string matching several layouts
// resolves to the earliest one, so day-first beats month-first and an
// ambiguous string like "01-02-03" parses as 1 Feb 2003 via "02-01-06".
// Callers relying on month-first sources must pre-format their dates.
// Each zero-padded numeric form is followed by its non-padded variant, since
// the padded Go layouts insist on two digits where the source sometimes
// renders one.
var dateLayouts = []string{
	"2006-01-02",      // 2023-04-03
	"02-01-2006",      // 03-04-2023
	"2-1-2006",        // 3-4-2023
	"01-02-2006",      // 04-03-2023
	"1-2-2006",        // 4-3-2023
	"02-01-06",        // 05-05-16
	"2-1-06",          // 5-5-16
	"2006/01/02",      // 2023/04/03
	"02/01/2006",      // 03/04/2023
	"2/1/2006",        // 3/4/2023
	"01/02/2006",      // 04/03/2023
	"1/2/2006",        // 4/3/2023
	"02/01/06",        // 05/05/16
	"2/1/06",          // 5/5/16
	"20060102",        // 20230403
	"02012006",        // 03042023
	"2 Jan 2006",      // 3 Apr 2023
	"2 January 2006",  // 3 April 2023
	"Jan 2, 2006",     // Apr 03, 2023
	"January 2, 2006", // April 03, 2023
	"2 1 06",          // 05 05 16
}

// Detection classifies the outcome of a date layout probe.
type Detection int

const (
	// DetectionNone means the input was empty or the no-value sentinel.
	DetectionNone Detection = iota
	// DetectionUnknown means no layout in the priority list matched.
	DetectionUnknown
	// DetectionMatched means a layout parsed the full string.
	DetectionMatched
)

// IsNoValue reports whether the raw field is empty or the source's
// explicit no-value sentinel.
func IsNoValue(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	return trimmed == "" || strings.EqualFold(trimmed, noValueSentinel)
}

// DetectDateLayout probes the priority list and returns the first layout
// under which raw parses to a complete, valid calendar date.
func DetectDateLayout(raw string) (string, Detection) {
	if IsNoValue(raw) {
		return "", DetectionNone
	}
	trimmed := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, trimmed); err == nil {
			return layout, DetectionMatched
		}
	}
	return "", DetectionUnknown
}

// Date parses a raw date string via the layout detector. The result is a
// calendar date in UTC, or nil when the input carries no value or no layout
// matches.
func Date(raw string) *time.Time {
	layout, det := DetectDateLayout(raw)
	if det != DetectionMatched {
		return nil
	}
	t, err := time.Parse(layout, strings.TrimSpace(raw))
	if err != nil {
		return nil
	}
	return &t
}

// DateString parses a raw date string and reformats it into outputLayout.
func DateString(raw, outputLayout string) *string {
	t := Date(raw)
	if t == nil {
		return nil
	}
	s := t.Format(outputLayout)
	return &s
}
