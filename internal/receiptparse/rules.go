package receiptparse

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// rule is one entry of an ordered pattern table. Lower priority is more trusted.
type rule struct {
	name     string
	pattern  *regexp.Regexp
	priority int
}

// candidate is a value proposed by a rule, along with where it came from.
type candidate[T any] struct {
	value    T
	priority int
	source   string
	line     string
}

// best returns the candidate with the lowest priority. On equal priority the
// first one encountered wins.
func best[T any](cands []candidate[T]) (candidate[T], bool) {
	if len(cands) == 0 {
		return candidate[T]{}, false
	}
	winner := cands[0]
	for _, c := range cands[1:] {
		if c.priority < winner.priority {
			winner = c
		}
	}
	return winner, true
}

// largest returns the candidate with the greatest amount, first one on ties.
func largest(cands []candidate[int]) (candidate[int], bool) {
	if len(cands) == 0 {
		return candidate[int]{}, false
	}
	winner := cands[0]
	for _, c := range cands[1:] {
		if c.value > winner.value {
			winner = c
		}
	}
	return winner, true
}

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// parseYen parses a digit run that may contain thousands separators.
func parseYen(s string) (int, bool) {
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || len(s) > 12 {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
