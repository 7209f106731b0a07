package normalize

import (
	"strings"
	"time"
)

// clockLayouts cover the 12-hour announcement timestamps the source site
// renders, after the input is upper-cased.
var clockLayouts = []string{
	"3:04PM",
	"3:04 PM",
	"3:04:05PM",
	"3:04:05 PM",
}

// TimeOfDay parses a 12-hour clock string with meridiem suffix and returns
// it in canonical 24-hour "15:04" form.
func TimeOfDay(raw string) *string {
	if IsNoValue(raw) {
		return nil
	}
	upper := strings.ToUpper(strings.TrimSpace(raw))
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, upper); err == nil {
			s := t.Format("15:04")
			return &s
		}
	}
	return nil
}
