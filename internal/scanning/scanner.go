package scanning

import (
	"context"
	"errors"
)

// Provider failures. Backends wrap one of these so callers can tell a
// transient outage from a bad upload with errors.Is.
var (
	ErrRateLimited  = errors.New("ocr provider rate limit exceeded")
	ErrInvalidImage = errors.New("ocr provider rejected the image")
	ErrUnavailable  = errors.New("ocr provider unavailable")
	ErrNoText       = errors.New("ocr provider returned no text")
)

// Scanner turns a receipt image into plain text, one printed line per line.
type Scanner interface {
	// ScanText transcribes the receipt. Supported content types are
	// JPEG, PNG, GIF, HEIC/HEIF and PDF (first page).
	ScanText(ctx context.Context, imageData []byte, contentType string) (string, error)
	// Close releases provider resources.
	Close() error
}
