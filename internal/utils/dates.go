package utils

import (
	"fmt"
	"time"
)

const (
	DateLayout   = "2006-01-02"
	DaysPerYear  = 365.0
	hoursPerYear = 24 * DaysPerYear
)

// NextOptionsExpiration returns the next standard monthly expiration (third
// Friday) in YYYY-MM-DD format:
// - Third Friday of the current month if we haven't reached the expiration week yet
// - Third Friday of next month if we're in or past the expiration week
func NextOptionsExpiration(now time.Time) string {
	thirdFriday := ThirdFriday(now.Year(), now.Month(), now.Location())

	weekStart := thirdFriday.AddDate(0, 0, -7)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if !today.Before(weekStart) {
		next := time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, now.Location())
		return ThirdFriday(next.Year(), next.Month(), now.Location()).Format(DateLayout)
	}

	return thirdFriday.Format(DateLayout)
}

// ThirdFriday returns midnight on the third Friday of the month.
func ThirdFriday(year int, month time.Month, loc *time.Location) time.Time {
	firstFriday := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	for firstFriday.Weekday() != time.Friday {
		firstFriday = firstFriday.AddDate(0, 0, 1)
	}
	return firstFriday.AddDate(0, 0, 14)
}

// YearsToExpiry converts an expiration date to an ACT/365 year fraction
// measured from now to midnight UTC of that date. Past dates give a
// negative value; it is not clamped.
func YearsToExpiry(expiration string, now time.Time) (float64, error) {
	expDate, err := time.Parse(DateLayout, expiration)
	if err != nil {
		return 0, fmt.Errorf("invalid expiration date %q: %w", expiration, err)
	}
	return expDate.Sub(now).Hours() / hoursPerYear, nil
}
