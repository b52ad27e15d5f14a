package extract

import (
	"fmt"
	"os"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// HTMLConverter converts an HTML paper into markdown. HTML carries no page
// boundaries, so the result is a single-page document.
type HTMLConverter struct{}

// Convert implements the Converter interface.
func (c *HTMLConverter) Convert(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read HTML file: %w", err)
	}

	markdown, err := htmltomarkdown.ConvertString(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to convert HTML to markdown: %w", err)
	}

	return &Document{Pages: []string{normalizePage(markdown)}}, nil
}
