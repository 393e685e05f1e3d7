package telegram

import (
	"fmt"
	"strings"
	"time"

	"brightday_bot/internal/app"
	"brightday_bot/internal/domain/birthday"
)

func formatUpcoming(u birthday.Upcoming) string {
	line := fmt.Sprintf("- %s: %s", u.Record.SubjectID, birthday.DateToWords(u.Record.Date, 0))
	switch u.DaysUntil {
	case 0:
		line += " (today)"
	case 1:
		line += " (tomorrow)"
	default:
		line += fmt.Sprintf(" (in %d days)", u.DaysUntil)
	}
	if u.Age > 0 {
		line += fmt.Sprintf(", turning %d", u.Age)
	}
	return line
}

func formatRecord(r birthday.Record) string {
	return fmt.Sprintf("- %s: %s", r.SubjectID, birthday.DateToWords(r.Date, r.Year))
}

func formatStats(s app.Stats) string {
	var b strings.Builder
	b.WriteString("--- Birthday stats ---\n")
	fmt.Fprintf(&b, "Stored birthdays: %d\n", s.Total)
	fmt.Fprintf(&b, "Channel members: %d\n", s.Members)
	fmt.Fprintf(&b, "Coverage: %.1f%%\n", s.Coverage())
	fmt.Fprintf(&b, "With birth year: %d (%.1f%%)\n", s.WithYear, s.YearShare())
	fmt.Fprintf(&b, "Missing: %d\n", s.Missing)

	var months []string
	for i, n := range s.ByMonth {
		if n > 0 {
			months = append(months, fmt.Sprintf("%s: %d", time.Month(i+1).String()[:3], n))
		}
	}
	if len(months) == 0 {
		b.WriteString("By month: none")
	} else {
		b.WriteString("By month: " + strings.Join(months, ", "))
	}
	return b.String()
}
