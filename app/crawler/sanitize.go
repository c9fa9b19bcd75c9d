package crawler

import (
	"html"
	"regexp"
	"strings"
)

var (
	paragraphPattern = regexp.MustCompile(`(?i)<p\s*/?>`)
	tagPattern       = regexp.MustCompile(`<[^>]*>`)
)

// CleanText strips markup from an HN text fragment and caps its length.
// The API returns comment and story text as HTML fragments with <p>
// breaks, anchors, and entity-escaped punctuation.
func CleanText(raw string, maxLength int) string {
	if raw == "" {
		return ""
	}

	text := paragraphPattern.ReplaceAllString(raw, "\n\n")
	text = tagPattern.ReplaceAllString(text, "")
	text = html.UnescapeString(text)
	text = strings.TrimSpace(text)

	if maxLength > 0 {
		runes := []rune(text)
		if len(runes) > maxLength {
			text = string(runes[:maxLength])
		}
	}

	return text
}
