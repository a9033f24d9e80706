package receiptparse

import "regexp"

var taxRules = []rule{
	{name: "tax-label", pattern: regexp.MustCompile(`(?i)(?:外税|消費税|tax)\s*[:：]?\s*[¥￥]?\s*([0-9,]+)`), priority: 1},
	{name: "tax-reversed", pattern: regexp.MustCompile(`(?i)^[¥￥]\s*([0-9,]+)\s*(?:外税|消費税|tax)`), priority: 1},
}

var (
	reTaxLabelOnly = regexp.MustCompile(`(?i)^(?:外税|消費税|tax)\s*(?:8%|10%)?$`)
	reTaxNoise     = regexp.MustCompile(`(?i)waon|支払|お釣り|おつり|合計|小計|商品数|印は|対象商品`)
	reTaxAmount    = regexp.MustCompile(`^[¥￥]?\s*([0-9,]+)\s*円?$`)
)

// The two consumption tax rates; a bare 8 or 10 next to a tax label is the
// rate, not an amount.
func isTaxRate(n int) bool {
	return n == 8 || n == 10
}

// Tax returns separately stated consumption tax (外税) in yen.
func (p *Parser) Tax(text string) (int, bool) {
	lines := Lines(text)

	for _, line := range lines {
		for _, r := range taxRules {
			m := r.pattern.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			n, ok := parseYen(m[1])
			if !ok || n <= 0 || n >= 10_000 || isTaxRate(n) {
				continue
			}
			p.logger.Debug("tax selected", "rule", r.name, "line", line, "tax", n)
			return n, true
		}
	}

	for i := 0; i < len(lines)-1; i++ {
		label := lines[i]
		if !reTaxLabelOnly.MatchString(label) {
			continue
		}
		end := min(i+1+maxLookahead, len(lines))
		for j := i + 1; j < end; j++ {
			line := lines[j]
			if reTaxNoise.MatchString(line) {
				continue
			}
			m := reTaxAmount.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			n, ok := parseYen(m[1])
			if !ok || n < 10 || n >= 3_000 || isTaxRate(n) {
				p.logger.Debug("tax candidate rejected", "label", label, "line", line)
				continue
			}
			p.logger.Debug("tax selected", "rule", "tax-lookahead", "label", label, "line", line, "tax", n)
			return n, true
		}
	}

	p.logger.Debug("tax not found")
	return 0, false
}
