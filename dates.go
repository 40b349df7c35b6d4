package carbonaccounting

import (
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// ParseYear extracts the calendar year of an ISO date. ok is false when the
// date matches none of the supported layouts.
func ParseYear(date string) (year int, ok bool) {
	date = strings.TrimSpace(date)
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, date)
		if err == nil {
			return t.Year(), true
		}
	}
	return 0, false
}
