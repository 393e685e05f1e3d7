// internal/domain/announcement/daykey.go
package announcement

import "time"

// DayKeyLayout is the calendar-day key used by every ledger implementation.
const DayKeyLayout = "2006-01-02"

// DayKey returns the UTC calendar-day key for t.
func DayKey(t time.Time) string {
	return t.UTC().Format(DayKeyLayout)
}
