package receiptparse

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

const (
	maxItemAmount  = 100_000
	nameBufferSize = 3

	// A receipt whose items add up past implausibleSum almost certainly
	// contains a misread price; items at or above suspectItemAmount are
	// dropped in that case.
	implausibleSum    = 1_000_000
	suspectItemAmount = 50_000

	defaultDiscountName = "値引き"
)

var itemRules = []rule{
	{name: "name-amount", pattern: regexp.MustCompile(`^(.+?)\s+[¥￥]?\s*([0-9,]+)\s*円?$`), priority: 1},
	{name: "name-wide-gap", pattern: regexp.MustCompile(`^(.+?)\s{2,}([0-9,]+)$`), priority: 2},
	{name: "name-quantity", pattern: regexp.MustCompile(`^(.+?)\s*[*×xX]\s*\d+\s+[¥￥]?\s*([0-9,]+)\s*円?$`), priority: 3},
}

var (
	reDiscountWord   = regexp.MustCompile(`割引|引き|値引`)
	reDiscountAmount = regexp.MustCompile(`^-[¥￥]?\s*([0-9,]+)`)
	rePercentOnly    = regexp.MustCompile(`^\d+%$`)
	reBareAmount     = regexp.MustCompile(`^[¥￥]?\s*([0-9,]+)\s*円?$`)
	reDigitsOnly     = regexp.MustCompile(`^[0-9,]+$`)
)

// nameBuffer holds up to three unpaired lines that may be the wrapped name of
// an item whose price comes later.
type nameBuffer []string

func (b *nameBuffer) push(line string) {
	*b = append(*b, line)
	if len(*b) > nameBufferSize {
		*b = (*b)[1:]
	}
}

func (b *nameBuffer) reset() { *b = nil }

func (b nameBuffer) joined() string {
	return strings.TrimSpace(strings.Join(b, ""))
}

func (b nameBuffer) isDiscountLabel() bool {
	return len(b) > 0 && reDiscountWord.MatchString(b.joined())
}

func validItemAmount(n int) bool {
	return n > 0 && n < maxItemAmount
}

// Items extracts the purchased lines of a receipt in document order. Repeated
// lines of the same product and price are folded into one item.
func (p *Parser) Items(text string) []Item {
	var (
		items []Item
		buf   nameBuffer
	)
	emit := func(name string, amount int, source, line string) {
		p.logger.Debug("item found", "rule", source, "line", line, "name", name, "amount", amount)
		items = append(items, Item{ID: p.newID(), Name: name, Amount: amount})
	}

	for _, line := range Lines(text) {
		// A discount label is printed above its negative amount, and usually
		// contains excluded wording such as 割引 or 会員様 itself.
		if reDiscountWord.MatchString(line) && !reCurrency.MatchString(line) {
			buf = nameBuffer{line}
			continue
		}

		if containsExcludeKeyword(line) {
			buf.reset()
			continue
		}

		// Rate annotations sit between a name and its price.
		if rePercentOnly.MatchString(line) {
			continue
		}

		if m := reDiscountAmount.FindStringSubmatch(line); m != nil {
			if n, ok := parseYen(m[1]); ok && n > 0 {
				name := defaultDiscountName
				if buf.isDiscountLabel() {
					name = buf.joined()
				}
				emit(name, -n, "discount", line)
			}
			buf.reset()
			continue
		}

		bare := reBareAmount.FindStringSubmatch(line)
		if bare != nil && len(buf) > 0 && !buf.isDiscountLabel() {
			name := cleanItemName(buf.joined())
			n, ok := parseYen(bare[1])
			if ok && validItemAmount(n) && isValidItemName(name) {
				emit(name, n, "buffered-name", line)
				buf.reset()
				continue
			}
			p.logger.Debug("buffered name rejected", "name", name, "line", line)
		}

		if p.matchInline(line, emit) {
			buf.reset()
			continue
		}

		if bare == nil && isNameFragment(line) {
			if buf.isDiscountLabel() {
				buf.reset()
			}
			buf.push(line)
		}
	}

	return p.plausible(foldDuplicates(items))
}

func (p *Parser) matchInline(line string, emit func(name string, amount int, source, line string)) bool {
	for _, r := range itemRules {
		m := r.pattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := cleanItemName(m[1])
		n, ok := parseYen(m[2])
		if name != "" && ok && validItemAmount(n) && isValidItemName(name) {
			emit(name, n, r.name, line)
			return true
		}
		p.logger.Debug("inline item rejected", "rule", r.name, "line", line, "name", name)
	}
	return false
}

func isNameFragment(line string) bool {
	return !matchesAny(excludeNamePatterns, line) &&
		!reDigitsOnly.MatchString(line) &&
		!reDiscountAmount.MatchString(line)
}

// foldKey identifies the same product across lines regardless of spacing,
// character width or case.
func foldKey(it Item) string {
	name := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, it.Name)
	name = strings.ToLower(width.Fold.String(name))
	return fmt.Sprintf("%s_%d", name, it.Amount)
}

// foldDuplicates collapses items sharing a name and unit price into one
// "name ×N" item carrying the combined amount. First-seen order is kept.
func foldDuplicates(items []Item) []Item {
	out := make([]Item, 0, len(items))
	counts := make([]int, 0, len(items))
	index := make(map[string]int)
	for _, it := range items {
		key := foldKey(it)
		if i, ok := index[key]; ok {
			counts[i]++
			continue
		}
		index[key] = len(out)
		out = append(out, it)
		counts = append(counts, 1)
	}
	for i, n := range counts {
		if n > 1 {
			out[i].Name = fmt.Sprintf("%s ×%d", out[i].Name, n)
			out[i].Amount *= n
		}
	}
	return out
}

// plausible drops suspiciously large items when the receipt as a whole adds
// up to an impossible sum. It is a blunt heuristic and can discard a real
// item on a genuinely large receipt.
func (p *Parser) plausible(items []Item) []Item {
	var sum int
	for _, it := range items {
		sum += it.Amount
	}
	if sum <= implausibleSum {
		return items
	}

	kept := make([]Item, 0, len(items))
	for _, it := range items {
		if it.Amount < suspectItemAmount {
			kept = append(kept, it)
		}
	}
	p.logger.Warn("implausible item total, dropping large items",
		"sum", sum, "threshold", suspectItemAmount, "dropped", len(items)-len(kept))
	return kept
}
