package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// ErrNoText is returned when a document yields no extractable text.
var ErrNoText = errors.New("no extractable text")

// ErrUnsupported is returned for file types the extractor cannot read.
var ErrUnsupported = errors.New("unsupported file type")

// Extract turns an uploaded file into sections: one per page for PDF, one per
// heading for Markdown.
func Extract(filename string, data []byte) ([]Section, error) {
	var (
		sections []Section
		err      error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		sections, err = extractPDFPages(data)
	case ".md", ".markdown", ".txt":
		sections = SplitMarkdown(sanitizeUTF8Printable(decodeText(data)))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(filename))
	}
	if err != nil {
		return nil, err
	}
	if len(sections) == 0 {
		return nil, ErrNoText
	}
	return sections, nil
}

// extractPDFPages extracts text by pages using ledongthuc/pdf.
func extractPDFPages(data []byte) ([]Section, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	sections := make([]Section, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		text = sanitizeUTF8Printable(text)
		if text == "" {
			continue
		}
		sections = append(sections, Section{Page: i, Text: text})
	}
	return sections, nil
}

func decodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), "")
}

// sanitizeUTF8Printable removes BOM and non-printable runes, keeping common whitespace.
func sanitizeUTF8Printable(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\uFEFF' { // BOM
			continue
		}
		if r == unicode.ReplacementChar { // U+FFFD
			continue
		}
		if r == '\n' || r == '\t' || r == '\r' {
			// keep
		} else if !unicode.IsPrint(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// Preview truncates s to maxRunes printable runes without splitting multi-byte sequences.
func Preview(s string, maxRunes int) string {
	clean := []rune(sanitizeUTF8Printable(s))
	if len(clean) <= maxRunes {
		return string(clean)
	}
	return strings.TrimSpace(string(clean[:maxRunes])) + "..."
}
