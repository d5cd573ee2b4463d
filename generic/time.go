package generic

import (
	"strings"
	"time"
)

// =============================================================================
// DATE - Calendar day used for promotions and career events
// =============================================================================

// Date is a calendar day. Time is always midnight UTC so two Dates compare
// equal iff they name the same day.
type Date struct {
	Time time.Time
}

// DateLayout is the storage and wire format for dates.
const DateLayout = "2006-01-02"

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its calendar day in the instant's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func Today() Date { return DateOf(time.Now()) }

// ParseDate accepts YYYY-MM-DD and RFC 3339 timestamps (the hosted database
// returns either, depending on column type). The field name is carried into
// the error for reporting.
func ParseDate(field, value string) (Date, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return Date{}, &InvalidDateError{Field: field, Value: value}
	}
	if t, err := time.Parse(DateLayout, v); err == nil {
		return DateOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return DateOf(t), nil
	}
	return Date{}, &InvalidDateError{Field: field, Value: value}
}

// Comparison
func (d Date) Before(other Date) bool        { return d.Time.Before(other.Time) }
func (d Date) Equal(other Date) bool         { return d.Time.Equal(other.Time) }
func (d Date) After(other Date) bool         { return d.Time.After(other.Time) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
//
// All calendar arithmetic goes through time.AddDate. A day that does not exist
// in the target month overflows into the next month: Feb 29 + 1 year is Mar 1,
// Jan 31 + 1 month is Mar 3 (Mar 2 in leap years).
func (d Date) AddDays(n int) Date   { return Date{Time: d.Time.AddDate(0, 0, n)} }
func (d Date) AddMonths(n int) Date { return Date{Time: d.Time.AddDate(0, n, 0)} }
func (d Date) AddYears(n int) Date  { return Date{Time: d.Time.AddDate(n, 0, 0)} }

// Properties
func (d Date) Year() int         { return d.Time.Year() }
func (d Date) Month() time.Month { return d.Time.Month() }
func (d Date) Day() int          { return d.Time.Day() }
func (d Date) IsZero() bool      { return d.Time.IsZero() }

func (d Date) String() string { return d.Time.Format(DateLayout) }

// MarshalText keeps dates as YYYY-MM-DD in JSON and YAML.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate("date", string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// DATE UTILITIES
// =============================================================================

// DaysBetween returns whole days from -> to (negative when to is earlier).
// Both dates are UTC midnights, so the count is exact for any range.
func DaysBetween(from, to Date) int {
	return int((to.Time.Unix() - from.Time.Unix()) / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60

// MonthsBetween returns the greatest m >= 0 such that to.AddMonths(-m) is not
// before from, or the negated value of MonthsBetween(to, from) when to is
// earlier. Months are counted back from the later date: to.AddMonths(-m) is
// strictly decreasing in m even across overflowing days, so the result never
// grows as from advances towards to.
func MonthsBetween(from, to Date) int {
	if to.Before(from) {
		return -MonthsBetween(to, from)
	}
	m := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	for m > 0 && to.AddMonths(-m).Before(from) {
		m--
	}
	for !to.AddMonths(-(m + 1)).Before(from) {
		m++
	}
	return m
}
