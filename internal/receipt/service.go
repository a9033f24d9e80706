package receipt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/kakeibo/internal/export"
	"github.com/zombor/kakeibo/internal/receiptparse"
	"github.com/zombor/kakeibo/internal/scanning"
)

const dateLayout = "2006-01-02"

// ErrScanFailed marks a receipt the OCR provider could not transcribe. The
// user should be offered manual entry.
var ErrScanFailed = errors.New("receipt scan failed")

// IDGenerator generates unique IDs for scans and transactions
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (uuidGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles scans and ledger transactions
type Service struct {
	db          DB
	scanner     scanning.Scanner
	storage     Storage
	parser      *receiptparse.Parser
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, scanner scanning.Scanner, storage Storage) *Service {
	return NewServiceWithDeps(db, scanner, storage, uuidGenerator{}, defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, scanner scanning.Scanner, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		scanner:     scanner,
		storage:     storage,
		parser:      receiptparse.New(receiptparse.WithLogger(slog.Default().With("component", "receiptparse"))),
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[^\p{L}\p{N}\s\-_]`)
	repeatedSpaces      = regexp.MustCompile(`\s+`)
	plainExtension      = regexp.MustCompile(`^\.[a-z0-9]{1,5}$`)
)

// sanitizeFilename strips phone-camera noise from an upload name and caps
// its length. Japanese letters are kept.
func sanitizeFilename(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if !plainExtension.MatchString(ext) {
		ext = ""
	}
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	base = unsafeFilenameChars.ReplaceAllString(base, "")
	base = repeatedSpaces.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	if r := []rune(base); len(r) > 50 {
		base = string(r[:50])
	}
	if base == "" {
		base = "receipt"
	}

	return base + ext
}

// ScanReceipt stores the photo, transcribes it and parses the text into a
// draft. An OCR failure removes the photo and is returned wrapped; the caller
// should offer manual entry. A receipt with no readable text still yields a
// draft, just an empty one.
func (s *Service) ScanReceipt(ctx context.Context, filename string, data []byte, contentType string) (*Scan, error) {
	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, sanitizeFilename(filename)), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	text, err := s.scanner.ScanText(ctx, data, contentType)
	if errors.Is(err, scanning.ErrNoText) {
		slog.Warn("No text recognised on receipt", "filename", filename)
		text, err = "", nil
	}
	if err != nil {
		slog.Error("Failed to scan receipt",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		if delErr := s.storage.Delete(savedPath); delErr != nil {
			slog.Warn("Failed to delete file", "filename", savedPath, "error", delErr)
		}
		return nil, fmt.Errorf("%w: %w", ErrScanFailed, err)
	}

	scan := &Scan{
		ID:          id,
		Filename:    savedPath,
		ContentType: contentType,
		Text:        text,
		Result:      s.parser.Parse(text),
		CreatedAt:   now,
	}

	if err := s.db.SaveScan(scan); err != nil {
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("saving scan to database: %w", err)
	}

	slog.Info("Scanned receipt", "scan_id", scan.ID, "items", len(scan.Result.Items), "warnings", len(scan.Result.Warnings))
	return scan, nil
}

// ParseText parses OCR text supplied by the caller
func (s *Service) ParseText(text string) receiptparse.Result {
	return s.parser.Parse(text)
}

// GetScan retrieves a scan by ID
func (s *Service) GetScan(id string) (*Scan, error) {
	scan, err := s.db.GetScan(id)
	if err != nil {
		return nil, fmt.Errorf("getting scan: %w", err)
	}
	return scan, nil
}

// ListScans returns all scans, newest first
func (s *Service) ListScans() ([]*Scan, error) {
	scans, err := s.db.ListScans()
	if err != nil {
		return nil, fmt.Errorf("listing scans: %w", err)
	}
	sort.SliceStable(scans, func(i, j int) bool {
		return scans[i].CreatedAt.After(scans[j].CreatedAt)
	})
	return scans, nil
}

// DeleteScan removes a scan. Its photo is kept when a transaction was
// registered from it.
func (s *Service) DeleteScan(id string) error {
	scan, err := s.db.GetScan(id)
	if err != nil {
		return fmt.Errorf("getting scan for deletion: %w", err)
	}

	if scan.TransactionID == "" {
		if err := s.storage.Delete(scan.Filename); err != nil {
			slog.Warn("Failed to delete file", "filename", scan.Filename, "error", err)
		}
	}

	if err := s.db.DeleteScan(id); err != nil {
		return fmt.Errorf("deleting scan from database: %w", err)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidTransaction, fmt.Sprintf(format, args...))
}

// apply validates input and copies it onto t
func (s *Service) apply(t *Transaction, in TransactionInput) error {
	if in.Type != Expense && in.Type != Income {
		return invalid("type must be %q or %q", Expense, Income)
	}
	if in.Amount <= 0 {
		return invalid("amount must be positive")
	}
	date, err := time.Parse(dateLayout, in.Date)
	if err != nil {
		return invalid("date must be YYYY-MM-DD")
	}

	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = Uncategorized
	}
	if !validCategory(in.Type, category) {
		return invalid("unknown %s category %q", in.Type, category)
	}

	items := make([]receiptparse.Item, 0, len(in.Items))
	for _, it := range in.Items {
		it.Name = strings.TrimSpace(it.Name)
		if it.Name == "" {
			return invalid("item name is required")
		}
		if it.Category != nil && !validCategory(in.Type, *it.Category) {
			return invalid("unknown %s category %q on item %q", in.Type, *it.Category, it.Name)
		}
		if it.ID == "" {
			it.ID = s.idGenerator.Generate()
		}
		items = append(items, it)
	}

	t.Type = in.Type
	t.Title = strings.TrimSpace(in.Title)
	t.StoreName = strings.TrimSpace(in.StoreName)
	t.Amount = in.Amount
	t.Category = category
	t.Date = date
	t.Items = items
	t.IsParent = len(items) > 0
	return nil
}

// CreateTransaction registers a ledger entry. When ScanID is set the scan's
// photo is linked to the entry.
func (s *Service) CreateTransaction(in TransactionInput) (*Transaction, error) {
	now := s.timeSource.Now()
	t := &Transaction{
		ID:        s.idGenerator.Generate(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.apply(t, in); err != nil {
		return nil, err
	}

	var scan *Scan
	if in.ScanID != "" {
		var err error
		scan, err = s.db.GetScan(in.ScanID)
		if err != nil {
			return nil, invalid("scan %s: %v", in.ScanID, err)
		}
		t.ScanID = scan.ID
		t.ImageFilename = scan.Filename
		t.ContentType = scan.ContentType
	}

	if err := s.db.SaveTransaction(t); err != nil {
		return nil, fmt.Errorf("saving transaction: %w", err)
	}

	if scan != nil {
		scan.TransactionID = t.ID
		if err := s.db.SaveScan(scan); err != nil {
			slog.Warn("Failed to link scan to transaction", "scan_id", scan.ID, "transaction_id", t.ID, "error", err)
		}
	}

	return t, nil
}

// GetTransaction retrieves a transaction by ID
func (s *Service) GetTransaction(id string) (*Transaction, error) {
	t, err := s.db.GetTransaction(id)
	if err != nil {
		return nil, fmt.Errorf("getting transaction: %w", err)
	}
	return t, nil
}

// ListTransactions returns transactions dated within [from, to], newest
// first. A nil bound is open.
func (s *Service) ListTransactions(from, to *time.Time) ([]*Transaction, error) {
	all, err := s.db.ListTransactions()
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	out := make([]*Transaction, 0, len(all))
	for _, t := range all {
		if from != nil && t.Date.Before(*from) {
			continue
		}
		if to != nil && t.Date.After(*to) {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// UpdateTransaction replaces the editable fields of a transaction. The photo
// link is kept.
func (s *Service) UpdateTransaction(id string, in TransactionInput) (*Transaction, error) {
	t, err := s.db.GetTransaction(id)
	if err != nil {
		return nil, fmt.Errorf("getting transaction for update: %w", err)
	}
	if err := s.apply(t, in); err != nil {
		return nil, err
	}
	t.UpdatedAt = s.timeSource.Now()

	if err := s.db.SaveTransaction(t); err != nil {
		return nil, fmt.Errorf("saving transaction: %w", err)
	}
	return t, nil
}

// DeleteTransaction removes a transaction and its photo
func (s *Service) DeleteTransaction(id string) error {
	t, err := s.db.GetTransaction(id)
	if err != nil {
		return fmt.Errorf("getting transaction for deletion: %w", err)
	}

	if t.ImageFilename != "" {
		if err := s.storage.Delete(t.ImageFilename); err != nil {
			slog.Warn("Failed to delete file", "filename", t.ImageFilename, "error", err)
		}
	}

	if err := s.db.DeleteTransaction(id); err != nil {
		return fmt.Errorf("deleting transaction from database: %w", err)
	}
	return nil
}

// GetTransactionImage returns the receipt photo of a transaction
func (s *Service) GetTransactionImage(id string) ([]byte, string, error) {
	t, err := s.db.GetTransaction(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting transaction: %w", err)
	}
	if t.ImageFilename == "" {
		return nil, "", fmt.Errorf("transaction %s has no image: %w", id, ErrNotFound)
	}

	data, err := s.storage.Get(t.ImageFilename)
	if err != nil {
		return nil, "", fmt.Errorf("getting transaction image: %w", err)
	}
	return data, t.ContentType, nil
}

// MonthRange returns the first and last day of a YYYY-MM month
func MonthRange(month string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("month must be YYYY-MM: %w", err)
	}
	return start, start.AddDate(0, 1, -1), nil
}

// Summary totals income and expense for a YYYY-MM month and breaks them down
// by category
func (s *Service) Summary(month string) (*Summary, error) {
	from, to, err := MonthRange(month)
	if err != nil {
		return nil, err
	}
	txns, err := s.ListTransactions(&from, &to)
	if err != nil {
		return nil, err
	}

	sum := &Summary{Month: month, Categories: make([]CategoryTotal, 0)}
	index := make(map[string]int)
	for _, t := range txns {
		switch t.Type {
		case Income:
			sum.Income += t.Amount
		default:
			sum.Expense += t.Amount
		}

		key := string(t.Type) + "/" + t.Category
		i, ok := index[key]
		if !ok {
			i = len(sum.Categories)
			index[key] = i
			sum.Categories = append(sum.Categories, CategoryTotal{Category: t.Category, Type: t.Type})
		}
		sum.Categories[i].Total += t.Amount
		sum.Categories[i].Count++
	}
	sum.Balance = sum.Income - sum.Expense

	sort.SliceStable(sum.Categories, func(i, j int) bool {
		return sum.Categories[i].Total > sum.Categories[j].Total
	})
	return sum, nil
}

// ExportXLSX renders the transactions within [from, to] as a workbook
func (s *Service) ExportXLSX(from, to *time.Time) ([]byte, error) {
	txns, err := s.ListTransactions(from, to)
	if err != nil {
		return nil, err
	}

	rows := make([]export.Transaction, 0, len(txns))
	for _, t := range txns {
		row := export.Transaction{
			ID:        t.ID,
			Date:      t.Date,
			Type:      string(t.Type),
			Title:     t.Title,
			StoreName: t.StoreName,
			Category:  t.Category,
			Amount:    t.Amount,
		}
		for _, it := range t.Items {
			item := export.Item{Name: it.Name, Amount: it.Amount}
			if it.Category != nil {
				item.Category = *it.Category
			}
			row.Items = append(row.Items, item)
		}
		rows = append(rows, row)
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, rows); err != nil {
		return nil, fmt.Errorf("exporting transactions: %w", err)
	}
	return buf.Bytes(), nil
}
