package receipt

import (
	"time"

	"github.com/zombor/kakeibo/internal/receiptparse"
)

// TransactionType is either an expense or an income
type TransactionType string

const (
	Expense TransactionType = "expense"
	Income  TransactionType = "income"
)

// Transaction is one ledger entry. Amounts are whole yen.
type Transaction struct {
	ID            string              `json:"id"`
	Type          TransactionType     `json:"type"`
	Title         string              `json:"title"`
	StoreName     string              `json:"store_name"`
	Amount        int                 `json:"amount"`
	Category      string              `json:"category"`
	Date          time.Time           `json:"date"`
	Items         []receiptparse.Item `json:"items"`
	IsParent      bool                `json:"is_parent"` // true when the entry is itemized
	ImageFilename string              `json:"image_filename,omitempty"`
	ContentType   string              `json:"content_type,omitempty"`
	ScanID        string              `json:"scan_id,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// Scan is a receipt photo with its OCR text and the parsed draft offered
// to the user for review
type Scan struct {
	ID            string              `json:"id"`
	Filename      string              `json:"filename"`
	ContentType   string              `json:"content_type"`
	Text          string              `json:"text"`
	Result        receiptparse.Result `json:"result"`
	TransactionID string              `json:"transaction_id,omitempty"` // set once the draft was registered
	CreatedAt     time.Time           `json:"created_at"`
}

// TransactionInput is the body of a create or update request
type TransactionInput struct {
	Type      TransactionType     `json:"type"`
	Title     string              `json:"title"`
	StoreName string              `json:"store_name"`
	Amount    int                 `json:"amount"`
	Category  string              `json:"category"`
	Date      string              `json:"date"` // YYYY-MM-DD
	Items     []receiptparse.Item `json:"items"`
	ScanID    string              `json:"scan_id"`
}

// CategoryTotal aggregates one category in a Summary
type CategoryTotal struct {
	Category string          `json:"category"`
	Type     TransactionType `json:"type"`
	Total    int             `json:"total"`
	Count    int             `json:"count"`
}

// Summary is the month overview: totals and the per-category breakdown,
// largest first
type Summary struct {
	Month      string          `json:"month"`
	Income     int             `json:"income"`
	Expense    int             `json:"expense"`
	Balance    int             `json:"balance"`
	Categories []CategoryTotal `json:"categories"`
}
