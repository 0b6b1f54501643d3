package extractor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"

	"haulcheck/internal/domain"
)

const maxDocumentBytes = 20 << 20 // refuse pathological uploads

// Tesseract extracts text from document images with local tesseract OCR.
// The engine only depends on the DocumentExtractor port; this is one
// implementation of the external OCR capability.
type Tesseract struct {
	languages []string
	http      *http.Client
}

type TesseractOption func(*Tesseract)

func WithLanguages(languages ...string) TesseractOption {
	return func(t *Tesseract) {
		if len(languages) > 0 {
			t.languages = languages
		}
	}
}

func WithHTTPClient(client *http.Client) TesseractOption {
	return func(t *Tesseract) {
		t.http = client
	}
}

func NewTesseract(opts ...TesseractOption) *Tesseract {
	t := &Tesseract{
		languages: []string{"eng"},
		http:      &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Extract fetches the document image and runs OCR plus per-kind field
// parsing. A readable document with unrecognizable content yields
// Success=false rather than an error; errors are reserved for fetch/OCR
// infrastructure failures.
func (t *Tesseract) Extract(ctx context.Context, documentRef string, kind domain.DocumentKind) (domain.ExtractionResult, error) {
	result := domain.ExtractionResult{Kind: kind}

	image, err := t.fetch(ctx, documentRef)
	if err != nil {
		return result, fmt.Errorf("fetch document: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.languages...); err != nil {
		return result, fmt.Errorf("set OCR language: %w", err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return result, fmt.Errorf("load image: %w", err)
	}

	raw, err := client.Text()
	if err != nil {
		return result, fmt.Errorf("OCR extraction: %w", err)
	}

	result.RawText = raw
	result.Fields = ParseFields(kind, raw)
	result.Success = strings.TrimSpace(raw) != ""
	return result, nil
}

func (t *Tesseract) fetch(ctx context.Context, documentRef string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, documentRef, nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
}
