package epa

import (
	"strings"
	"time"
)

// eventDateLayouts lists the date spellings observed across both
// source systems, most common first.
var eventDateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006/1/2",
	"2006-1-2",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
}

// ParseEventDate parses an event date in any of the layouts the two
// source systems emit. Time-of-day components are discarded; the
// pipeline compares at date granularity.
func ParseEventDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range eventDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
