package birthday

import (
	"fmt"
	"time"
)

// maxLookaheadYears bounds the roll-forward search. Feb 29 recurs at most
// eight years apart (e.g. 2096 -> 2104).
const maxLookaheadYears = 8

// startOfDay strips the time of day from ref in UTC.
func startOfDay(ref time.Time) time.Time {
	ref = ref.UTC()
	return time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)
}

// IsBirthdayToday reports whether md falls on the reference instant's UTC date.
// The year plays no part in the comparison.
func IsBirthdayToday(md MonthDay, ref time.Time) bool {
	ref = ref.UTC()
	return md.Day == ref.Day() && md.Month == ref.Month()
}

// NextOccurrence returns the first date on or after the reference day on which md
// falls due. Dates missing from a candidate year (Feb 29) roll forward to the next
// year that has them.
func NextOccurrence(md MonthDay, ref time.Time) (time.Time, error) {
	if !md.Valid() {
		return time.Time{}, fmt.Errorf("%w: %s", ErrInvalidMonthDay, md)
	}
	today := startOfDay(ref)
	for year := today.Year(); year <= today.Year()+maxLookaheadYears; year++ {
		if !md.ExistsIn(year) {
			continue
		}
		candidate := time.Date(year, md.Month, md.Day, 0, 0, 0, 0, time.UTC)
		if !candidate.Before(today) {
			return candidate, nil
		}
	}
	// unreachable for a valid MonthDay
	return time.Time{}, fmt.Errorf("%w: no occurrence of %s after %s", ErrInvalidMonthDay, md, today.Format(time.DateOnly))
}

// DaysUntil returns the number of whole days from the reference day to the next
// occurrence of md. It is zero exactly when IsBirthdayToday holds.
func DaysUntil(md MonthDay, ref time.Time) (int, error) {
	next, err := NextOccurrence(md, ref)
	if err != nil {
		return 0, err
	}
	return int(next.Sub(startOfDay(ref)).Hours() / 24), nil
}

// AgeOnNextOccurrence returns the age the subject turns on their next birthday
// (today's age if the birthday is today).
func AgeOnNextOccurrence(birthYear int, md MonthDay, ref time.Time) (int, error) {
	next, err := NextOccurrence(md, ref)
	if err != nil {
		return 0, err
	}
	return next.Year() - birthYear, nil
}

// DateToWords renders md as "5th of July", or "5th of July, 1990" when year > 0.
func DateToWords(md MonthDay, year int) string {
	words := fmt.Sprintf("%d%s of %s", md.Day, ordinalSuffix(md.Day), md.Month)
	if year > 0 {
		return fmt.Sprintf("%s, %d", words, year)
	}
	return words
}

func ordinalSuffix(day int) string {
	if day >= 11 && day <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}
