package birthday

import (
	"fmt"
	"regexp"
	"strconv"
)

// ParseStatus is the outcome of looking for a date in free text.
type ParseStatus string

const (
	ParseSuccess     ParseStatus = "success"
	ParseNoDate      ParseStatus = "no_date"
	ParseInvalidDate ParseStatus = "invalid_date"
)

// ParseResult carries the date found by ParseDate. Year is zero when the text
// only contained a day and month.
type ParseResult struct {
	Status ParseStatus
	Date   MonthDay
	Year   int
}

// ParseError reports free text that did not contain a usable date.
// Callers should ask the user to resubmit.
type ParseError struct {
	Status ParseStatus
	Input  string
}

func (e *ParseError) Error() string {
	if e.Status == ParseNoDate {
		return fmt.Sprintf("no date found in %q (expected DD/MM or DD/MM/YYYY)", e.Input)
	}
	return fmt.Sprintf("invalid date in %q", e.Input)
}

var (
	dateWithYearPattern = regexp.MustCompile(`\b(\d{2})/(\d{2})/(\d{4})\b`)
	datePattern         = regexp.MustCompile(`\b(\d{2})/(\d{2})\b`)
	trailingYearPattern = regexp.MustCompile(`^/\d{4}`)
)

// ParseDate finds the first DD/MM/YYYY or DD/MM date in text. A year-qualified
// date wins over a bare one; calendar-invalid combinations yield ParseInvalidDate.
func ParseDate(text string) ParseResult {
	if m := dateWithYearPattern.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		md, err := NewMonthDay(day, month)
		if err != nil || year < 1 || !md.ExistsIn(year) {
			return ParseResult{Status: ParseInvalidDate}
		}
		return ParseResult{Status: ParseSuccess, Date: md, Year: year}
	}

	for _, idx := range datePattern.FindAllStringSubmatchIndex(text, -1) {
		if trailingYearPattern.MatchString(text[idx[1]:]) {
			continue
		}
		day, _ := strconv.Atoi(text[idx[2]:idx[3]])
		month, _ := strconv.Atoi(text[idx[4]:idx[5]])
		md, err := NewMonthDay(day, month)
		if err != nil {
			return ParseResult{Status: ParseInvalidDate}
		}
		return ParseResult{Status: ParseSuccess, Date: md}
	}
	return ParseResult{Status: ParseNoDate}
}
