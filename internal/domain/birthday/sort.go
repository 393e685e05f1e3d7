package birthday

import (
	"sort"
	"time"
)

// Upcoming pairs a record with its distance from a reference day.
type Upcoming struct {
	Record    Record
	DaysUntil int
	// Age is the age turned on the next occurrence; zero when the year is unknown.
	Age int
}

// SortByUpcoming orders records by days until their next occurrence, today's
// birthdays first. Records with an invalid date are dropped.
func SortByUpcoming(records []Record, ref time.Time) []Upcoming {
	out := make([]Upcoming, 0, len(records))
	for _, r := range records {
		days, err := DaysUntil(r.Date, ref)
		if err != nil {
			continue
		}
		u := Upcoming{Record: r, DaysUntil: days}
		if r.HasYear() {
			u.Age, _ = AgeOnNextOccurrence(r.Year, r.Date, ref)
		}
		out = append(out, u)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DaysUntil != out[j].DaysUntil {
			return out[i].DaysUntil < out[j].DaysUntil
		}
		return out[i].Record.SubjectID < out[j].Record.SubjectID
	})
	return out
}

// SortByCalendar orders records by month then day, independent of any reference
// date. The input slice is not modified.
func SortByCalendar(records []Record) []Record {
	out := make([]Record, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Date, out[j].Date
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		return out[i].SubjectID < out[j].SubjectID
	})
	return out
}
