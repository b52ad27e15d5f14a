package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Document is the markdown-normalized content of an input paper, split into
// pages.
type Document struct {
	Pages []string
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return len(d.Pages)
}

// FullText joins all pages into one string.
func (d *Document) FullText() string {
	return strings.Join(d.Pages, "\n\n")
}

// FirstPages joins up to n leading pages. Titles and abstracts live at the
// front of a paper, so most extraction prompts only need these.
func (d *Document) FirstPages(n int) string {
	if n > len(d.Pages) {
		n = len(d.Pages)
	}
	return strings.Join(d.Pages[:n], "\n\n")
}

// Combined renders the document as a single markdown artifact with page
// headings, the shape written next to the report for inspection.
func (d *Document) Combined() string {
	var builder strings.Builder
	for i, page := range d.Pages {
		fmt.Fprintf(&builder, "# Page %d\n\n%s\n\n", i+1, page)
	}
	return strings.TrimRight(builder.String(), "\n") + "\n"
}

// Converter turns one input file format into a Document.
type Converter interface {
	Convert(path string) (*Document, error)
}

// ForPath selects a converter by file extension. PDF, HTML and plain
// text/markdown inputs are supported.
func ForPath(path string) (Converter, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return &PDFConverter{}, nil
	case ".html", ".htm":
		return &HTMLConverter{}, nil
	case ".txt", ".md", ".markdown":
		return &TextConverter{}, nil
	default:
		return nil, fmt.Errorf("unsupported input format %q", filepath.Ext(path))
	}
}

// WriteCombined writes the combined markdown artifact next to the report.
func WriteCombined(doc *Document, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(doc.Combined()), 0o644); err != nil {
		return fmt.Errorf("failed to write combined markdown: %w", err)
	}
	return nil
}

var pageNumberLine = regexp.MustCompile(`(?m)^\s*\d{1,3}\s*$`)

// stripPageNumbers removes lines holding nothing but a short number, the
// usual residue of printed page footers.
func stripPageNumbers(text string) string {
	return pageNumberLine.ReplaceAllString(text, "")
}

func normalizePage(text string) string {
	text = stripPageNumbers(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.TrimSpace(text)
}
