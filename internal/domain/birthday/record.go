package birthday

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidMonthDay is returned when a day/month pair does not exist in any year.
var ErrInvalidMonthDay = errors.New("invalid day/month combination")

// leapReference is used to validate month/day pairs: every real date exists in a leap year.
const leapReference = 2000

// MonthDay is a recurring calendar date without a year (e.g. 29/02).
type MonthDay struct {
	Day   int
	Month time.Month
}

// NewMonthDay validates day and month against the Gregorian calendar.
// 29/02 is accepted as a leap-only date.
func NewMonthDay(day, month int) (MonthDay, error) {
	md := MonthDay{Day: day, Month: time.Month(month)}
	if !md.Valid() {
		return MonthDay{}, fmt.Errorf("%w: %02d/%02d", ErrInvalidMonthDay, day, month)
	}
	return md, nil
}

// ParseMonthDay parses the stored "DD/MM" representation.
func ParseMonthDay(s string) (MonthDay, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 {
		return MonthDay{}, fmt.Errorf("%w: %q", ErrInvalidMonthDay, s)
	}
	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return MonthDay{}, fmt.Errorf("%w: %q", ErrInvalidMonthDay, s)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return MonthDay{}, fmt.Errorf("%w: %q", ErrInvalidMonthDay, s)
	}
	return NewMonthDay(day, month)
}

// Valid reports whether the pair denotes a real date in at least one year.
func (md MonthDay) Valid() bool {
	if md.Month < time.January || md.Month > time.December || md.Day < 1 {
		return false
	}
	return md.ExistsIn(leapReference)
}

// ExistsIn reports whether the month/day occurs in year (29/02 only in leap years).
func (md MonthDay) ExistsIn(year int) bool {
	t := time.Date(year, md.Month, md.Day, 0, 0, 0, 0, time.UTC)
	return t.Month() == md.Month && t.Day() == md.Day
}

// String returns the "DD/MM" form used in storage and logs.
func (md MonthDay) String() string {
	return fmt.Sprintf("%02d/%02d", md.Day, int(md.Month))
}

// Record is a tracked subject's birthday.
// Year is zero when the birth year is unknown.
type Record struct {
	SubjectID string
	Date      MonthDay
	Year      int
}

// HasYear reports whether the birth year is known.
func (r Record) HasYear() bool {
	return r.Year > 0
}
