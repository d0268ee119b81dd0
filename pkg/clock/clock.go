// Package clock resolves "now" and calendar-day arithmetic in a
// caller-supplied timezone. Day boundaries, not elapsed hours, drive every
// plan decision: quota derivation, start/end checks and timeover detection
// all ride on CalendarDaysBetween.
package clock

import (
	"errors"
	"time"
)

var ErrInvalidTimezone = errors.New("invalid timezone")

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15-04-05"
)

// Now returns the current moment shifted into the named IANA timezone.
func Now(timezone string) (time.Time, error) {
	if timezone == "" {
		return time.Time{}, ErrInvalidTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Time{}, ErrInvalidTimezone
	}
	return time.Now().In(loc), nil
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(value string) (time.Time, error) {
	return time.Parse(DateLayout, value)
}

// CalendarDaysBetween returns the signed number of day boundaries from b to
// a. Only the calendar date of each argument matters: an end date at the
// very start of its day, compared against any moment of the previous day,
// yields 1. Zero or negative means a's date is today or has passed.
func CalendarDaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	aMid := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	bMid := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(aMid.Sub(bMid).Hours() / 24)
}

// DaysUntil returns the day-boundary count from now to the given
// YYYY-MM-DD date.
func DaysUntil(date string, now time.Time) (int, error) {
	d, err := ParseDate(date)
	if err != nil {
		return 0, err
	}
	return CalendarDaysBetween(d, now), nil
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}
