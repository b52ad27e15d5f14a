package extract

import (
	"fmt"

	"github.com/ledongthuc/pdf"
)

// PDFConverter extracts per-page plain text from a PDF file.
type PDFConverter struct{}

// Convert implements the Converter interface.
func (c *PDFConverter) Convert(path string) (*Document, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer file.Close()

	totalPages := reader.NumPage()
	pages := make([]string, 0, totalPages)

	for pageIndex := 1; pageIndex <= totalPages; pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to extract text from page %d: %w", pageIndex, err)
		}
		pages = append(pages, normalizePage(text))
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("PDF %q has no pages", path)
	}

	return &Document{Pages: pages}, nil
}
