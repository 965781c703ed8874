package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the only accepted calendar date format.
const DateLayout = "2006-01-02"

// secondsPerDay converts unix seconds at UTC midnight into whole days.
const secondsPerDay = 24 * 60 * 60

// Date is a calendar day with no time of day and no zone.
// The zero value is 1970-01-01. Dates are comparable with ==.
type Date struct {
	days int
}

// NewDate builds a date from its calendar parts. Out-of-range parts normalize the way time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar day of t as seen in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return Date{days: int(midnight.Unix() / secondsPerDay)}
}

// ParseDate parses one YYYY-MM-DD value.
func ParseDate(raw string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// Time returns the date at UTC midnight.
func (d Date) Time() time.Time {
	return time.Unix(int64(d.days)*secondsPerDay, 0).UTC()
}

// AddDays returns the date n calendar days later (earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{days: d.days + n}
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	return d.days < other.days
}

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool {
	return d.days > other.days
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or after other.
func (d Date) Compare(other Date) int {
	switch {
	case d.days < other.days:
		return -1
	case d.days > other.days:
		return 1
	default:
		return 0
	}
}

// Weekday returns the day of the week.
func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Time().Format(DateLayout)
}

// MarshalText encodes the date as YYYY-MM-DD.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes a YYYY-MM-DD value.
func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return fmt.Errorf("decode date %q: %w", string(text), err)
	}
	*d = parsed
	return nil
}

// DayOffset returns the signed number of calendar days from `from` to `to`.
func DayOffset(from, to Date) int {
	return to.days - from.days
}

// FloorDiv returns a/b rounded toward negative infinity. b must be positive.
func FloorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// NonNegMod returns a mod b in [0, b). b must be positive.
func NonNegMod(a, b int) int {
	return a - b*FloorDiv(a, b)
}
