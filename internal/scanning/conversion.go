package scanning

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// transcribePrompt is shared by the LLM-backed scanners. The parser expects
// raw receipt text, so the model must not summarise or reformat.
const transcribePrompt = `This image is a Japanese shop receipt (レシート). Transcribe every printed line exactly as it appears, from top to bottom.

Rules:
- One receipt line per output line, in the printed order
- Keep item names, prices, symbols (¥, ￥, *, -, %) and Japanese text exactly as printed
- Keep a product name and its price on the same line when they are printed on the same line
- Do not translate, summarise, correct, or add any commentary
- Do not use markdown code blocks`

type imageFormat int

const (
	formatPNG imageFormat = iota
	formatJPEG
)

// maxJPEGBytes is the upload limit of the OCR.space free tier.
const maxJPEGBytes = 1 << 20

// decodeImage decodes any supported upload into an image. PDFs are rendered
// from their first page.
func decodeImage(data []byte, mimeType string) (image.Image, error) {
	switch {
	case mimeType == "application/pdf":
		doc, err := fitz.NewFromMemory(data)
		if err != nil {
			return nil, fmt.Errorf("opening PDF: %w", err)
		}
		defer doc.Close()
		img, err := doc.Image(0)
		if err != nil {
			return nil, fmt.Errorf("rendering PDF page: %w", err)
		}
		return img, nil
	case isHEICFormat(data) || isHEICMimeType(mimeType):
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
		return img, nil
	default:
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding image (supported: JPEG, PNG, GIF, HEIC, HEIF, PDF): %w", err)
		}
		return img, nil
	}
}

// isHEICFormat checks for an ftyp box with a HEIC family brand.
func isHEICFormat(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heif", "mif1", "msf1":
		return true
	}
	return false
}

func isHEICMimeType(mimeType string) bool {
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}

func normalizeMIME(contentType string) string {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if mimeType == "" {
		return "image/jpeg"
	}
	return mimeType
}

// prepareImage converts an upload into the encoding a provider accepts and
// returns the data together with its MIME type. Uploads already in the
// wanted encoding pass through untouched unless a JPEG exceeds the size cap.
func prepareImage(data []byte, contentType string, format imageFormat) ([]byte, string, error) {
	mimeType := normalizeMIME(contentType)

	switch format {
	case formatJPEG:
		if mimeType == "image/jpeg" && !isHEICFormat(data) && len(data) <= maxJPEGBytes {
			return data, "image/jpeg", nil
		}
		img, err := decodeImage(data, mimeType)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %w", ErrInvalidImage, err)
		}
		out, err := encodeJPEGUnder(img, maxJPEGBytes)
		if err != nil {
			return nil, "", err
		}
		return out, "image/jpeg", nil
	default:
		if mimeType == "image/png" && !isHEICFormat(data) {
			return data, "image/png", nil
		}
		img, err := decodeImage(data, mimeType)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %w", ErrInvalidImage, err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", fmt.Errorf("encoding PNG: %w", err)
		}
		return buf.Bytes(), "image/png", nil
	}
}

// encodeJPEGUnder lowers the quality, then halves the resolution, until the
// encoded image fits in limit bytes.
func encodeJPEGUnder(img image.Image, limit int) ([]byte, error) {
	for {
		for quality := 85; quality >= 40; quality -= 15 {
			var buf bytes.Buffer
			if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
				return nil, fmt.Errorf("encoding JPEG: %w", err)
			}
			if buf.Len() <= limit {
				return buf.Bytes(), nil
			}
		}
		b := img.Bounds()
		if b.Dx() < 64 || b.Dy() < 64 {
			return nil, fmt.Errorf("%w: image does not fit in %d bytes", ErrInvalidImage, limit)
		}
		img = halve(img)
	}
}

// halve downsamples by two with nearest-neighbour sampling.
func halve(src image.Image) image.Image {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()/2, b.Dy()/2))
	for y := 0; y < dst.Rect.Dy(); y++ {
		for x := 0; x < dst.Rect.Dx(); x++ {
			dst.Set(x, y, src.At(b.Min.X+2*x, b.Min.Y+2*y))
		}
	}
	return dst
}
