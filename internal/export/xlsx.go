// Package export renders ledger transactions as spreadsheets.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	TransactionsSheet = "収支"
	ItemsSheet        = "明細"
)

// Transaction is one ledger row
type Transaction struct {
	ID        string
	Date      time.Time
	Type      string
	Title     string
	StoreName string
	Category  string
	Amount    int
	Items     []Item
}

// Item is one line item of an itemized transaction
type Item struct {
	Name     string
	Category string
	Amount   int
}

var (
	transactionHeaders = []string{"日付", "種別", "タイトル", "店舗", "カテゴリ", "金額", "明細数", "ID"}
	itemHeaders        = []string{"日付", "店舗", "商品", "カテゴリ", "金額", "取引ID"}
)

// WriteXLSX writes a workbook with one sheet of transactions and one of
// their line items
func WriteXLSX(w io.Writer, txns []Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	// Rename the default sheet rather than leaving an empty Sheet1 behind.
	if err := f.SetSheetName("Sheet1", TransactionsSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	if _, err := f.NewSheet(ItemsSheet); err != nil {
		return fmt.Errorf("adding sheet: %w", err)
	}

	writeRow := func(sheet string, row int, values ...any) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		return f.SetSheetRow(sheet, cell, &values)
	}

	if err := writeRow(TransactionsSheet, 1, toAny(transactionHeaders)...); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := writeRow(ItemsSheet, 1, toAny(itemHeaders)...); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	itemRow := 2
	for i, t := range txns {
		date := t.Date.Format("2006-01-02")
		if err := writeRow(TransactionsSheet, i+2,
			date, typeLabel(t.Type), t.Title, t.StoreName, t.Category, t.Amount, len(t.Items), t.ID,
		); err != nil {
			return fmt.Errorf("writing transaction %s: %w", t.ID, err)
		}

		for _, it := range t.Items {
			category := it.Category
			if category == "" {
				category = t.Category
			}
			if err := writeRow(ItemsSheet, itemRow, date, t.StoreName, it.Name, category, it.Amount, t.ID); err != nil {
				return fmt.Errorf("writing item of %s: %w", t.ID, err)
			}
			itemRow++
		}
	}

	_ = f.SetColWidth(TransactionsSheet, "A", "B", 12)
	_ = f.SetColWidth(TransactionsSheet, "C", "E", 24)
	_ = f.SetColWidth(TransactionsSheet, "H", "H", 38)
	_ = f.SetColWidth(ItemsSheet, "A", "A", 12)
	_ = f.SetColWidth(ItemsSheet, "B", "D", 28)
	_ = f.SetColWidth(ItemsSheet, "F", "F", 38)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func typeLabel(t string) string {
	switch t {
	case "income":
		return "収入"
	case "expense":
		return "支出"
	}
	return t
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
