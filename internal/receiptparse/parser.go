// Package receiptparse extracts transaction fields from the OCR text of
// Japanese retail receipts: the grand total, store name, date, separately
// stated consumption tax and the itemized purchase lines.
//
// Every extractor is total. "Not found" is reported through the boolean
// result (or an empty slice), never as an error.
package receiptparse

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
)

// TaxItemName is the name of the synthetic line item carrying external tax.
const TaxItemName = "消費税（外税）"

// mismatchTolerance is how far the item sum may drift from the total, in yen,
// before Parse records a warning.
const mismatchTolerance = 10

// Item is one purchased line of a receipt. Amount is negative for discounts.
type Item struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Amount   int     `json:"amount"`
	Category *string `json:"category"`
}

// Result is the receipt candidate assembled from all extractors.
type Result struct {
	StoreName  *string  `json:"store_name"`
	Amount     *int     `json:"amount"`
	Date       *string  `json:"date"`
	Tax        *int     `json:"tax"`
	Items      []Item   `json:"items"`
	ItemsTotal int      `json:"items_total"`
	Warnings   []string `json:"warnings,omitempty"`
}

// Parser runs the extractors. It is immutable once built and safe for
// concurrent use.
type Parser struct {
	logger *slog.Logger
	newID  func() string
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the sink for extraction traces. A nil logger discards them.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithIDGenerator replaces the item id generator.
func WithIDGenerator(gen func() string) Option {
	return func(p *Parser) {
		if gen != nil {
			p.newID = gen
		}
	}
}

// New creates a Parser.
func New(opts ...Option) *Parser {
	p := &Parser{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var defaultParser = New()

// ExtractAmount finds the grand total using the default parser.
func ExtractAmount(text string) (int, bool) { return defaultParser.Amount(text) }

// ExtractStoreName guesses the store name using the default parser.
func ExtractStoreName(text string) (string, bool) { return defaultParser.StoreName(text) }

// ExtractDate finds the transaction date using the default parser.
func ExtractDate(text string) (string, bool) { return defaultParser.Date(text) }

// ExtractTax finds the external consumption tax using the default parser.
func ExtractTax(text string) (int, bool) { return defaultParser.Tax(text) }

// ExtractItems finds the purchased items using the default parser.
func ExtractItems(text string) []Item { return defaultParser.Items(text) }

// Parse assembles a Result using the default parser.
func Parse(text string) Result { return defaultParser.Parse(text) }

// Parse runs every extractor over text and assembles the receipt candidate.
// A found tax amount is appended as a synthetic item. When the item sum and
// the total disagree by more than a few yen a warning is recorded; nothing
// is corrected, the user reviews the pre-filled form.
func (p *Parser) Parse(text string) Result {
	var res Result
	if name, ok := p.StoreName(text); ok {
		res.StoreName = &name
	}
	if amount, ok := p.Amount(text); ok {
		res.Amount = &amount
	}
	if date, ok := p.Date(text); ok {
		res.Date = &date
	}

	res.Items = p.Items(text)
	if tax, ok := p.Tax(text); ok {
		res.Tax = &tax
		if tax > 0 {
			res.Items = append(res.Items, Item{ID: p.newID(), Name: TaxItemName, Amount: tax})
		}
	}

	for _, item := range res.Items {
		res.ItemsTotal += item.Amount
	}

	if res.Amount != nil && abs(res.ItemsTotal-*res.Amount) > mismatchTolerance {
		msg := fmt.Sprintf("item total ¥%d does not match receipt total ¥%d", res.ItemsTotal, *res.Amount)
		res.Warnings = append(res.Warnings, msg)
		p.logger.Warn("receipt total mismatch", "items_total", res.ItemsTotal, "amount", *res.Amount)
	}

	return res
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
