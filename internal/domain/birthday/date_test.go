package birthday

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func utcDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func allMonthDays(t *testing.T) []MonthDay {
	t.Helper()
	var out []MonthDay
	for m := 1; m <= 12; m++ {
		for d := 1; d <= 31; d++ {
			md, err := NewMonthDay(d, m)
			if err == nil {
				out = append(out, md)
			}
		}
	}
	require.Len(t, out, 366)
	return out
}

func TestNewMonthDayRejectsImpossibleDates(t *testing.T) {
	_, err := NewMonthDay(31, 2)
	require.ErrorIs(t, err, ErrInvalidMonthDay)
	_, err = NewMonthDay(1, 13)
	require.ErrorIs(t, err, ErrInvalidMonthDay)
	_, err = NewMonthDay(0, 5)
	require.ErrorIs(t, err, ErrInvalidMonthDay)

	md, err := NewMonthDay(29, 2)
	require.NoError(t, err)
	require.Equal(t, "29/02", md.String())
}

func TestParseMonthDay(t *testing.T) {
	md, err := ParseMonthDay("05/07")
	require.NoError(t, err)
	require.Equal(t, MonthDay{Day: 5, Month: time.July}, md)

	for _, bad := range []string{"", "5-7", "aa/07", "31/04", "01/02/2000"} {
		_, err := ParseMonthDay(bad)
		require.ErrorIs(t, err, ErrInvalidMonthDay, bad)
	}
}

func TestIsBirthdayTodayIgnoresYear(t *testing.T) {
	refs := []time.Time{
		utcDate(2023, time.March, 1),
		utcDate(2024, time.February, 29),
		time.Date(2025, time.December, 25, 23, 59, 59, 0, time.UTC),
	}
	for _, ref := range refs {
		for _, md := range allMonthDays(t) {
			want := md.Day == ref.Day() && md.Month == ref.Month()
			require.Equal(t, want, IsBirthdayToday(md, ref), "%s vs %s", md, ref)
		}
	}
}

func TestIsBirthdayTodayUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	// 25/12 09:00 in UTC+10 is 24/12 23:00 UTC
	ref := time.Date(2025, time.December, 25, 9, 0, 0, 0, loc)
	require.True(t, IsBirthdayToday(MonthDay{Day: 24, Month: time.December}, ref))
	require.False(t, IsBirthdayToday(MonthDay{Day: 25, Month: time.December}, ref))
}

func TestDaysUntilRangeAndZeroIffToday(t *testing.T) {
	refs := []time.Time{
		utcDate(2023, time.January, 1),
		utcDate(2023, time.March, 1),
		utcDate(2024, time.February, 29),
		utcDate(2024, time.December, 31),
		time.Date(2025, time.June, 15, 18, 30, 0, 0, time.UTC),
	}
	for _, ref := range refs {
		for _, md := range allMonthDays(t) {
			days, err := DaysUntil(md, ref)
			require.NoError(t, err)
			require.GreaterOrEqual(t, days, 0)
			if !(md.Day == 29 && md.Month == time.February) {
				require.LessOrEqual(t, days, 366, "%s from %s", md, ref)
			}
			require.Equal(t, days == 0, IsBirthdayToday(md, ref), "%s from %s", md, ref)
		}
	}
}

func TestDaysUntil(t *testing.T) {
	tests := []struct {
		name string
		md   MonthDay
		ref  time.Time
		want int
	}{
		{name: "today", md: MonthDay{25, time.December}, ref: utcDate(2025, time.December, 25), want: 0},
		{name: "tomorrow", md: MonthDay{26, time.December}, ref: utcDate(2025, time.December, 25), want: 1},
		{name: "rolls to next year", md: MonthDay{24, time.December}, ref: utcDate(2025, time.December, 25), want: 364},
		{name: "time of day ignored", md: MonthDay{2, time.January}, ref: time.Date(2025, time.January, 1, 23, 59, 0, 0, time.UTC), want: 1},
		{name: "feb 29 in leap year", md: MonthDay{29, time.February}, ref: utcDate(2024, time.February, 1), want: 28},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DaysUntil(tt.md, tt.ref)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestDaysUntilLeapDayFromNonLeapYear(t *testing.T) {
	md := MonthDay{Day: 29, Month: time.February}
	ref := utcDate(2023, time.March, 1)

	next, err := NextOccurrence(md, ref)
	require.NoError(t, err)
	require.Equal(t, utcDate(2024, time.February, 29), next)

	days, err := DaysUntil(md, ref)
	require.NoError(t, err)
	require.Equal(t, 365, days)

	// 2100 is not a leap year, so the next Feb 29 after 2096 is in 2104.
	next, err = NextOccurrence(md, utcDate(2096, time.March, 1))
	require.NoError(t, err)
	require.Equal(t, 2104, next.Year())
}

func TestDaysUntilInvalidMonthDay(t *testing.T) {
	_, err := DaysUntil(MonthDay{Day: 31, Month: time.February}, utcDate(2025, time.January, 1))
	require.ErrorIs(t, err, ErrInvalidMonthDay)
	_, err = DaysUntil(MonthDay{}, utcDate(2025, time.January, 1))
	require.ErrorIs(t, err, ErrInvalidMonthDay)
}

func TestAgeOnNextOccurrence(t *testing.T) {
	christmas := MonthDay{Day: 25, Month: time.December}
	ref := utcDate(2025, time.December, 25)
	require.True(t, IsBirthdayToday(christmas, ref))
	age, err := AgeOnNextOccurrence(1990, christmas, ref)
	require.NoError(t, err)
	require.Equal(t, ref.Year()-1990, age)

	age, err = AgeOnNextOccurrence(1990, MonthDay{Day: 1, Month: time.January}, ref)
	require.NoError(t, err)
	require.Equal(t, 36, age)

	age, err = AgeOnNextOccurrence(2000, MonthDay{Day: 29, Month: time.February}, utcDate(2023, time.March, 1))
	require.NoError(t, err)
	require.Equal(t, 24, age)
}

func TestDateToWords(t *testing.T) {
	require.Equal(t, "5th of July", DateToWords(MonthDay{5, time.July}, 0))
	require.Equal(t, "1st of January, 1990", DateToWords(MonthDay{1, time.January}, 1990))
	require.Equal(t, "2nd of April", DateToWords(MonthDay{2, time.April}, 0))
	require.Equal(t, "3rd of March", DateToWords(MonthDay{3, time.March}, 0))
	require.Equal(t, "11th of May", DateToWords(MonthDay{11, time.May}, 0))
	require.Equal(t, "12th of May", DateToWords(MonthDay{12, time.May}, 0))
	require.Equal(t, "13th of May", DateToWords(MonthDay{13, time.May}, 0))
	require.Equal(t, "22nd of June", DateToWords(MonthDay{22, time.June}, 0))
	require.Equal(t, "31st of October", DateToWords(MonthDay{31, time.October}, 0))
}

func TestMonthDayExistsIn(t *testing.T) {
	leapDay := MonthDay{Day: 29, Month: time.February}
	require.True(t, leapDay.ExistsIn(2024))
	require.True(t, leapDay.ExistsIn(2000))
	require.False(t, leapDay.ExistsIn(2023))
	require.False(t, leapDay.ExistsIn(1900))
	require.True(t, MonthDay{Day: 31, Month: time.December}.ExistsIn(2023))
}
