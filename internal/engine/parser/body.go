package parser

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mauidude/go-readability"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// NormalizeBody reduces a bulletin body to plain text. Plain-text
// bulletins pass through unchanged; HTML bulletins are reduced to their
// readable content with tags stripped and whitespace collapsed.
func NormalizeBody(raw string) string {
	if !looksLikeHTML(raw) {
		return raw
	}

	content := raw
	// Readability pays off on large mail bodies wrapped in layout and
	// tracking markup; on small fragments it tends to drop the section
	// headers the attributor needs.
	if len(raw) > 4096 {
		if doc, err := readability.NewDocument(raw); err == nil {
			if extracted := doc.Content(); strings.TrimSpace(extracted) != "" {
				content = extracted
			}
		}
	}

	gq, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		// Fall back to a crude tag strip.
		stripped := regexp.MustCompile(`<[^>]+>`).ReplaceAllString(content, " ")
		return strings.TrimSpace(whitespaceRe.ReplaceAllString(stripped, " "))
	}
	gq.Find("script, style").Remove()

	return strings.TrimSpace(whitespaceRe.ReplaceAllString(gq.Text(), " "))
}

func looksLikeHTML(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(lower, "<html") ||
		strings.Contains(lower, "<body") ||
		strings.Contains(lower, "<div") ||
		strings.Contains(lower, "<p>") ||
		strings.Contains(lower, "<br")
}
