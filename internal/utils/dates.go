package utils

import (
	"regexp"
	"time"
)

// Course times are accepted only as ISO-8601 UTC with optional millisecond
// precision, e.g. 2025-11-02T09:00:00.000Z. Anything else is rejected before
// the database is touched.
var isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d{3})?Z$`)

func ParseStrictISO(s string) (time.Time, bool) {
	if !isoDatePattern.MatchString(s) {
		return time.Time{}, false
	}

	t, err := time.Parse("2006-01-02T15:04:05.000Z", s)

	if err != nil {
		t, err = time.Parse("2006-01-02T15:04:05Z", s)
	}

	if err != nil {
		return time.Time{}, false
	}

	return t.UTC(), true
}
