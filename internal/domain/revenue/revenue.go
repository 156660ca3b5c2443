package revenue

import (
	"errors"
	"time"
)

// Totals is a coach's revenue summary for one month. Revenue is the active
// booking count valued at the blended per-credit price: total price of every
// credit package divided by their total credit amount, regardless of which
// package funded a given booking.
type Totals struct {
	Revenue      float64 `json:"revenue"`
	Participants int     `json:"participants"`
	CourseCount  int     `json:"course_count"`
}

var ErrInvalidMonth = errors.New("unrecognized month name")

var months = map[string]time.Month{
	"january":   time.January,
	"february":  time.February,
	"march":     time.March,
	"april":     time.April,
	"may":       time.May,
	"june":      time.June,
	"july":      time.July,
	"august":    time.August,
	"september": time.September,
	"october":   time.October,
	"november":  time.November,
	"december":  time.December,
}

// ResolveMonth maps one of the twelve lowercase English month names to its
// [start, end] range in the year of `now`. Limitation carried over from the
// original service: the year is always the current one, so past-year months
// cannot be queried.
func ResolveMonth(name string, now time.Time) (start, end time.Time, err error) {
	m, ok := months[name]

	if !ok {
		return time.Time{}, time.Time{}, ErrInvalidMonth
	}

	year := now.UTC().Year()

	start = time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, 0).Add(-time.Millisecond)

	return start, end, nil
}

// BlendedPerCreditPrice values one credit across ALL packages. Zero credits
// on file values credits at zero rather than dividing by zero.
func BlendedPerCreditPrice(totalPrice float64, totalCredits int) float64 {
	if totalCredits <= 0 {
		return 0
	}
	return totalPrice / float64(totalCredits)
}
