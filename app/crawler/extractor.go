package crawler

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/go-shiori/go-readability"
)

// ContentExtractor pulls readable article text out of raw page HTML
type ContentExtractor struct{}

func NewContentExtractor() *ContentExtractor {
	return &ContentExtractor{}
}

func (e *ContentExtractor) Run(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("HTML data is empty")
	}

	page, err := readability.FromReader(bytes.NewReader(data), nil)
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	if page.TextContent == "" {
		return "", fmt.Errorf("no content extracted from HTML data")
	}

	slog.Debug("Content extracted successfully",
		"title", page.Title,
		"content_length", len(page.TextContent))

	return page.TextContent, nil
}
