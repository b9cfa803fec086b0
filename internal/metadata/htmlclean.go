// file: internal/metadata/htmlclean.go
// version: 1.0.0
// guid: 2b3c4d5e-6f7a-8b9c-0d1e-2f3a4b5c6d7e

package metadata

import (
	"strings"

	"golang.org/x/net/html"
)

// CleanHTMLText strips markup from a catalog HTML fragment and returns plain
// text suitable for tag comments and sidecar files. Block-level boundaries
// become paragraph breaks; entities are decoded; empty paragraphs are
// dropped.
func CleanHTMLText(fragment string) string {
	if fragment == "" {
		return ""
	}

	var b strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(fragment))
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}
		switch tt {
		case html.TextToken:
			b.WriteString(tokenizer.Token().Data)
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := tokenizer.TagName()
			switch string(name) {
			case "p", "br", "div", "li", "ul", "ol", "h1", "h2", "h3", "h4":
				b.WriteString("\n")
			}
		}
	}

	// Normalize into double-newline separated paragraphs.
	paragraphs := strings.Split(b.String(), "\n")
	kept := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}
