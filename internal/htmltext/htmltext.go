// Package htmltext converts newsletter HTML into normalized plain text.
//
// The primary pass parses the document and extracts readable content;
// the fallback is a naive tag strip so a malformed document degrades a
// message instead of failing it.
package htmltext

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Normalize converts HTML to plain text, falling back to a regex strip
// when the structured conversion fails.
func Normalize(html string) string {
	text, err := Convert(html)
	if err != nil {
		return Strip(html)
	}
	return text
}

// Convert extracts readable text from an HTML document
func Convert(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	// Newsletter chrome carries no readable content
	doc.Find("script, style, head, nav, footer, iframe, noscript").Remove()

	text := doc.Find("body").Text()
	if text == "" {
		text = doc.Text()
	}

	return collapse(text), nil
}

// Strip removes tags with a regex pass and collapses whitespace
func Strip(html string) string {
	return collapse(tagPattern.ReplaceAllString(html, " "))
}

func collapse(s string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}
