package extract

import (
	"fmt"
	"os"
	"strings"
)

// TextConverter reads plain text or markdown input. Form feed characters
// mark page boundaries when present.
type TextConverter struct{}

// Convert implements the Converter interface.
func (c *TextConverter) Convert(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read text file: %w", err)
	}

	raw := strings.Split(string(data), "\f")
	pages := make([]string, 0, len(raw))
	for _, page := range raw {
		pages = append(pages, normalizePage(page))
	}

	return &Document{Pages: pages}, nil
}
