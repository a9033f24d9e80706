package receiptparse

import (
	"regexp"
	"strings"
	"unicode"
)

const storeHeaderLines = 10

var storeNoise = []*regexp.Regexp{
	regexp.MustCompile(`^[/\\EON]+$`), // logo fragments such as AEON's
	regexp.MustCompile(`(?i)tel|fax|http|www`),
	regexp.MustCompile(`株式会社|登録番号|レジ`),
	regexp.MustCompile(`^\d+$`),
	regexp.MustCompile(`(?i)ありがとう|welcome`),
	regexp.MustCompile(`\d{4}[/\-]\d{2}[/\-]\d{2}`),
	regexp.MustCompile(`\d{1,2}:\d{2}`),
}

var reSymbolsOnly = regexp.MustCompile(`^[/\\*\-=]+$`)

// StoreName guesses the store name from the receipt header. A line ending in
// 店 is preferred, then the first line that is not mostly digits.
func (p *Parser) StoreName(text string) (string, bool) {
	lines := Lines(text)
	if len(lines) > storeHeaderLines {
		lines = lines[:storeHeaderLines]
	}

	var survivors []string
	var cands []candidate[string]
	for _, line := range lines {
		if matchesAny(storeNoise, line) {
			continue
		}
		survivors = append(survivors, line)
		if runeLen(line) < 2 || reSymbolsOnly.MatchString(line) {
			continue
		}
		switch {
		case strings.HasSuffix(line, "店"):
			cands = append(cands, candidate[string]{value: line, priority: 1, source: "store-suffix", line: line})
		case digitShare(line) < 0.3:
			cands = append(cands, candidate[string]{value: line, priority: 2, source: "few-digits", line: line})
		}
	}

	if c, ok := best(cands); ok {
		p.logger.Debug("store name selected", "rule", c.source, "line", c.line)
		return c.value, true
	}
	if len(survivors) > 0 {
		p.logger.Debug("store name fallback", "line", survivors[0])
		return survivors[0], true
	}
	return "", false
}

func digitShare(s string) float64 {
	var digits, total int
	for _, r := range s {
		total++
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(digits) / float64(total)
}
