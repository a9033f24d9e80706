package scanning

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultOCRSpaceURL = "https://api.ocr.space/parse/image"

// OCRSpace implements the Scanner interface using the OCR.space API
type OCRSpace struct {
	apiKey   string
	endpoint string
	language string
	client   *http.Client
}

// NewOCRSpace creates a new OCR.space Scanner instance
func NewOCRSpace(apiKey, endpoint, language string) (*OCRSpace, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("ocr.space api key is required")
	}
	if endpoint == "" {
		endpoint = defaultOCRSpaceURL
	}
	if language == "" {
		language = "jpn"
	}

	return &OCRSpace{
		apiKey:   apiKey,
		endpoint: endpoint,
		language: language,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

type ocrSpaceResponse struct {
	ParsedResults []struct {
		ParsedText   string `json:"ParsedText"`
		ErrorMessage string `json:"ErrorMessage"`
	} `json:"ParsedResults"`
	IsErroredOnProcessing bool `json:"IsErroredOnProcessing"`
	// ErrorMessage is a string or a list of strings depending on the failure.
	ErrorMessage json.RawMessage `json:"ErrorMessage"`
}

// ScanText uploads the receipt and returns the recognised text
func (o *OCRSpace) ScanText(ctx context.Context, imageData []byte, contentType string) (string, error) {
	jpegData, mimeType, err := prepareImage(imageData, contentType, formatJPEG)
	if err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("apikey", o.apiKey)
	form.Set("base64Image", fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(jpegData)))
	form.Set("language", o.language)
	form.Set("isOverlayRequired", "false")
	form.Set("detectOrientation", "true")
	form.Set("scale", "true")
	form.Set("OCREngine", "2")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: calling ocr.space: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", ErrRateLimited
	case resp.StatusCode >= 500:
		return "", fmt.Errorf("%w: ocr.space status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ocr.space API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result ocrSpaceResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	if result.IsErroredOnProcessing {
		return "", fmt.Errorf("%w: %s", ErrInvalidImage, errorMessage(result.ErrorMessage))
	}
	if len(result.ParsedResults) == 0 {
		return "", ErrNoText
	}

	return transcript(result.ParsedResults[0].ParsedText)
}

func errorMessage(raw json.RawMessage) string {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, "; ")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return "processing failed"
}

// Close is a no-op for the HTTP client
func (o *OCRSpace) Close() error {
	return nil
}
