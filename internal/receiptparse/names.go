package receiptparse

import (
	"regexp"
	"strings"
)

// excludeKeywords mark totals, payment, loyalty and advertising text. A line
// containing any of them is never an item.
var excludeKeywords = []string{
	"合計", "小計", "税込", "税抜", "消費税", "total", "subtotal",
	"お会計", "おつり", "お預かり", "預り", "釣銭", "釣り",
	"現金", "クレジット", "カード", "payment", "change", "cash",
	"承認番号", "伝票番号", "担当者", "tel", "電話", "住所",
	"レジ", "領収", "印紙", "no.", "管理", "お客様",
	"book-off", "bookoff", "ブックオフ", "駅前店",
	"割引", "値引", "waon", "ポイント", "point", "残高",
	"会員様", "登録", "対象額", "獲得", "累計", "基本", "ボーナス",
	"お買上", "ありがとう", "買上", "商品数", "印は", "対象商品",
	"外税", "内税", "fax", "http", "www", "株式会社",
	"責任者", "レジ担当",
	"paypay", "ペイペイ", "line pay", "d払い", "au pay", "楽天pay", "メルペイ",
	"edy", "id", "quicpay", "pitapa", "icoca",
	"ダウンロード", "アプリ", "キャンペーン", "プレゼント", "公式",
}

// Keywords this short collide with real product names, so names are only
// rejected on an exact match.
const shortKeywordLen = 3

var excludeNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[0-9]+$`),
	regexp.MustCompile(`^[*\-=]+$`),
	regexp.MustCompile(`^.$`),
	regexp.MustCompile(`^\d{2,4}[/\-]\d{2}[/\-]\d{2}`),
	regexp.MustCompile(`^\d{3,4}-\d{3,4}-\d{3,4}`),
	regexp.MustCompile(`^[0-9]{6,}$`),
	regexp.MustCompile(`^[iI]+$`), // misread logo, e.g. the i of iAEON
}

var (
	reDateFragment  = regexp.MustCompile(`\d{4}年|年\d|月\d|\d日`)
	reDigitsSymbols = regexp.MustCompile(`^[\d/\-()]+$`)
	reCurrency      = regexp.MustCompile(`[¥￥円]`)
	reTimeOfDay     = regexp.MustCompile(`\d{1,2}:\d{2}`)
	reNameChar      = regexp.MustCompile(`[a-zA-Z0-9ぁ-んァ-ヶー一-龠]`)

	reLeadingSymbols = regexp.MustCompile(`^[\-+*\s]+`)
	reParenthetical  = regexp.MustCompile(`\([^)]*\)|（[^）]*）`)
	reTrailingQty    = regexp.MustCompile(`[×xX]\s*\d+$`)
	reMisreadPrefix  = regexp.MustCompile(`^[iIlL]([A-Z])`)
)

func containsExcludeKeyword(line string) bool {
	lower := strings.ToLower(line)
	for _, k := range excludeKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// cleanItemName strips decoration OCR leaves around a product name: leading
// bullets, parenthetical unit prices, a trailing ×N and a misread leading
// letter in front of a capitalised brand.
func cleanItemName(name string) string {
	name = reLeadingSymbols.ReplaceAllString(name, "")
	name = strings.TrimSpace(name)
	name = strings.TrimSpace(reParenthetical.ReplaceAllString(name, ""))
	name = strings.TrimSpace(reTrailingQty.ReplaceAllString(name, ""))
	name = strings.TrimSpace(reMisreadPrefix.ReplaceAllString(name, "$1"))
	return name
}

func isValidItemName(name string) bool {
	if matchesAny(excludeNamePatterns, name) {
		return false
	}

	lower := strings.ToLower(name)
	for _, k := range excludeKeywords {
		if runeLen(k) <= shortKeywordLen {
			if lower == k {
				return false
			}
		} else if strings.Contains(lower, k) {
			return false
		}
	}

	switch {
	case reDateFragment.MatchString(name),
		reDigitsSymbols.MatchString(name),
		runeLen(name) < 2,
		reCurrency.MatchString(name),
		reTimeOfDay.MatchString(name),
		!reNameChar.MatchString(name):
		return false
	}
	return true
}
