// Package extract turns source documents into the plain text that question
// generation works on.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DefaultMaxSize bounds how much a TextExtractor reads.
const DefaultMaxSize = 20 << 20

// ErrTooLarge is returned when a document exceeds the extractor's limit.
var ErrTooLarge = errors.New("document is too large")

// Page is the text of one page.
type Page struct {
	Number    int
	Text      string
	WordCount int
}

// Document is the extracted text of a file. Text joins the pages with
// "--- Page N ---" markers.
type Document struct {
	Text       string
	PageCount  int
	Pages      []Page
	TotalWords int
	FileName   string
	FileSize   int64
}

// Extractor reads a document and returns its text.
type Extractor interface {
	Extract(ctx context.Context, name string, r io.Reader) (*Document, error)
}

// TextExtractor reads plain text. Form feeds separate pages.
type TextExtractor struct {
	// MaxSize is the largest accepted input in bytes. Zero uses DefaultMaxSize.
	MaxSize int64
}

// Extract implements Extractor.
func (e TextExtractor) Extract(ctx context.Context, name string, r io.Reader) (*Document, error) {
	limit := e.MaxSize
	if limit <= 0 {
		limit = DefaultMaxSize
	}

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, name, limit)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw := strings.Split(string(data), "\f")
	if len(raw) > 1 && strings.TrimSpace(raw[len(raw)-1]) == "" {
		raw = raw[:len(raw)-1]
	}

	doc := &Document{
		PageCount: len(raw),
		FileName:  name,
		FileSize:  int64(len(data)),
	}

	var sb strings.Builder
	for i, text := range raw {
		text = strings.TrimSpace(text)
		p := Page{Number: i + 1, Text: text, WordCount: CountWords(text)}
		doc.Pages = append(doc.Pages, p)
		doc.TotalWords += p.WordCount
		fmt.Fprintf(&sb, "\n\n--- Page %d ---\n\n%s", p.Number, text)
	}
	doc.Text = strings.TrimSpace(sb.String())
	return doc, nil
}

// ExtractFile opens path and runs it through ex.
func ExtractFile(ctx context.Context, ex Extractor, path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ex.Extract(ctx, filepath.Base(path), f)
}

// CountWords counts whitespace-separated words.
func CountWords(s string) int {
	return len(strings.Fields(s))
}
