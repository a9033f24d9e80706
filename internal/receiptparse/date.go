package receiptparse

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const (
	minYear = 2020
	maxYear = 2030
)

// Phone numbers are the main source of false date matches.
var phoneNumber = []*regexp.Regexp{
	regexp.MustCompile(`\d{2,4}[\-\s]\d{3,4}[\-\s]\d{4}`),
	regexp.MustCompile(`\d{3,4}\(\d+\)\d{3,4}`),
}

var dateRules = []rule{
	{name: "kanji", pattern: regexp.MustCompile(`(\d{4})\s*年\s*(\d{1,2})\s*月\s*(\d{1,2})\s*日?`)},
	{name: "weekday", pattern: regexp.MustCompile(`(\d{4})[/.](\d{1,2})[/.](\d{1,2})\s*\([月火水木金土日]\)`)},
	{name: "numeric", pattern: regexp.MustCompile(`(\d{4})[/.](\d{1,2})[/.](\d{1,2})`)},
	{name: "short-year", pattern: regexp.MustCompile(`(?:^|[^\d])(\d{2})[/.](\d{1,2})[/.](\d{1,2})(?:[^\d]|$)`)},
}

// Date returns the first valid calendar date in document order, formatted
// as YYYY-MM-DD. Two-digit years are read as 20YY.
func (p *Parser) Date(text string) (string, bool) {
	for _, line := range Lines(text) {
		if matchesAny(phoneNumber, line) {
			continue
		}
		for _, r := range dateRules {
			m := r.pattern.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			date, ok := calendarDate(m[1], m[2], m[3])
			if !ok {
				continue
			}
			p.logger.Debug("date selected", "rule", r.name, "line", line, "date", date)
			return date, true
		}
	}
	p.logger.Debug("date not found")
	return "", false
}

func calendarDate(ys, ms, ds string) (string, bool) {
	year, err := strconv.Atoi(ys)
	if err != nil {
		return "", false
	}
	month, err := strconv.Atoi(ms)
	if err != nil {
		return "", false
	}
	day, err := strconv.Atoi(ds)
	if err != nil {
		return "", false
	}
	if year < 100 {
		year += 2000
	}
	if year < minYear || year > maxYear {
		return "", false
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return "", false
	}

	// time.Date normalises overflow, e.g. April 31st becomes May 1st.
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}
