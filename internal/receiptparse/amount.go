package receiptparse

import "regexp"

const (
	maxTotal     = 1_000_000
	maxLookahead = 15
)

// amountNoise marks lines whose amounts are loyalty points, balances, change
// or payment details rather than the total.
var amountNoise = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ポイント|point`),
	regexp.MustCompile(`(?i)番号|tel|fax`),
	regexp.MustCompile(`(?i)残高|balance`),
	regexp.MustCompile(`(?i)waon|ワオン`),
	regexp.MustCompile(`(?i)id|登録`),
	regexp.MustCompile(`(?i)お釣り|おつり|お預かり|預り|change`),
	regexp.MustCompile(`対象|累計|獲得`),
	regexp.MustCompile(`支払`),
}

var totalRules = []rule{
	{name: "total-line", pattern: regexp.MustCompile(`^計\s+[¥￥]?\s*([0-9,]+)$`), priority: 1},
	{name: "total-reversed", pattern: regexp.MustCompile(`^[¥￥]?\s*([0-9,]+)\s+計$`), priority: 1},
	{name: "total-label", pattern: regexp.MustCompile(`(?i)(?:合計|お会計|total)\s*[:：]?\s*[¥￥]?\s*([0-9,]+)`), priority: 2},
}

var (
	reTotalLabelOnly = regexp.MustCompile(`(?i)^(?:合計|小計|計|お会計|total|subtotal)$`)
	reBareTotal      = regexp.MustCompile(`^[¥￥]?\s*([0-9,]+)$`)
	reSubtotal       = regexp.MustCompile(`(?i)(?:小計|subtotal)\s*[:：]?\s*[¥￥]?\s*([0-9,]+)`)
	reYenAnywhere    = regexp.MustCompile(`[¥￥]\s*([0-9,]+)`)
)

func isAmountNoise(line string) bool {
	return matchesAny(amountNoise, line)
}

func validTotal(n int) bool {
	return n > 0 && n < maxTotal
}

// Amount returns the receipt's grand total in yen.
//
// Same-line total patterns and label-then-lookahead clusters compete by
// priority. Only when neither produced a candidate does it fall back to an
// explicit subtotal, and finally to the largest yen amount on the receipt.
func (p *Parser) Amount(text string) (int, bool) {
	lines := Lines(text)
	if len(lines) == 0 {
		return 0, false
	}

	var cands []candidate[int]
	for _, r := range totalRules {
		for _, line := range lines {
			if isAmountNoise(line) {
				continue
			}
			m := r.pattern.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			amount, ok := parseYen(m[1])
			if !ok || !validTotal(amount) {
				continue
			}
			p.logger.Debug("amount candidate", "rule", r.name, "priority", r.priority, "line", line, "amount", amount)
			cands = append(cands, candidate[int]{value: amount, priority: r.priority, source: r.name, line: line})
		}
	}
	cands = append(cands, p.labelLookahead(lines)...)

	if c, ok := best(cands); ok {
		p.logger.Debug("amount selected", "rule", c.source, "line", c.line, "amount", c.value)
		return c.value, true
	}

	for _, line := range lines {
		if isAmountNoise(line) {
			continue
		}
		m := reSubtotal.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if amount, ok := parseYen(m[1]); ok && validTotal(amount) {
			p.logger.Debug("amount selected", "rule", "subtotal", "line", line, "amount", amount)
			return amount, true
		}
	}

	var yen []candidate[int]
	for _, line := range lines {
		if isAmountNoise(line) {
			continue
		}
		for _, m := range reYenAnywhere.FindAllStringSubmatch(line, -1) {
			if amount, ok := parseYen(m[1]); ok && validTotal(amount) {
				yen = append(yen, candidate[int]{value: amount, source: "largest-yen", line: line})
			}
		}
	}
	if c, ok := largest(yen); ok {
		p.logger.Debug("amount selected", "rule", c.source, "line", c.line, "amount", c.value)
		return c.value, true
	}

	p.logger.Debug("amount not found")
	return 0, false
}

// labelLookahead handles a totals keyword printed alone on its line with the
// amount on a later line. Each label yields at most one candidate: the
// largest qualifying amount within the window, since receipts often print a
// discounted subtotal before the final total.
func (p *Parser) labelLookahead(lines []string) []candidate[int] {
	var out []candidate[int]
	for i := 0; i < len(lines)-1; i++ {
		label := lines[i]
		if !reTotalLabelOnly.MatchString(label) {
			continue
		}

		var cluster []candidate[int]
		end := min(i+1+maxLookahead, len(lines))
		for j := i + 1; j < end; j++ {
			line := lines[j]
			if isAmountNoise(line) {
				continue
			}
			m := reBareTotal.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			if isAmountNoise(lines[j-1]) || (j+1 < len(lines) && isAmountNoise(lines[j+1])) {
				p.logger.Debug("lookahead candidate skipped by neighbour", "label", label, "line", line)
				continue
			}
			if amount, ok := parseYen(m[1]); ok && validTotal(amount) {
				cluster = append(cluster, candidate[int]{value: amount, line: line})
			}
		}

		c, ok := largest(cluster)
		if !ok {
			continue
		}
		priority := 2
		if label == "計" {
			priority = 1
		}
		p.logger.Debug("amount candidate", "rule", "label-lookahead", "label", label, "priority", priority, "line", c.line, "amount", c.value)
		out = append(out, candidate[int]{
			value:    c.value,
			priority: priority,
			source:   "label-lookahead",
			line:     label + " -> " + c.line,
		})
	}
	return out
}
