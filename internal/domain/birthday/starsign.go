package birthday

import "time"

type signBoundary struct {
	month    time.Month
	firstDay int // first day of month belonging to sign
	sign     string
}

// Each entry names the sign that starts on firstDay of month; days before it
// belong to the previous entry's sign.
var signBoundaries = []signBoundary{
	{time.January, 20, "Aquarius"},
	{time.February, 19, "Pisces"},
	{time.March, 21, "Aries"},
	{time.April, 20, "Taurus"},
	{time.May, 21, "Gemini"},
	{time.June, 21, "Cancer"},
	{time.July, 23, "Leo"},
	{time.August, 23, "Virgo"},
	{time.September, 23, "Libra"},
	{time.October, 23, "Scorpio"},
	{time.November, 22, "Sagittarius"},
	{time.December, 22, "Capricorn"},
}

// StarSign returns the zodiac sign for md using inclusive date ranges, or ""
// for an invalid MonthDay.
func StarSign(md MonthDay) string {
	if !md.Valid() {
		return ""
	}
	b := signBoundaries[md.Month-1]
	if md.Day >= b.firstDay {
		return b.sign
	}
	prev := (int(md.Month) + 10) % 12
	return signBoundaries[prev].sign
}
