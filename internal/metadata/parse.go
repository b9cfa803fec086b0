// file: internal/metadata/parse.go
// version: 1.1.0
// guid: 5d6e7f8a-9b0c-1d2e-3f4a-5b6c7d8e9f0a

package metadata

import (
	"regexp"
	"strings"
)

// Filename patterns, most specific first. Order matters: the series pattern
// must run before the plain parenthetical pattern because both use
// parentheses and the series one additionally requires a #number suffix.
var (
	reTitleByAuthor = regexp.MustCompile(`(?i)^(.+?)\s*by\s*(.+)$`)
	reTitleSeries   = regexp.MustCompile(`(?i)^(.+?)\s*\((.+?)\s*#\d+\.?\d*\)$`)
	reTitleParen    = regexp.MustCompile(`(?i)^(.+?)\s*\((.+?)\)$`)
	reAuthorDash    = regexp.MustCompile(`(?i)^([^-–—]+?)\s*[-–—]\s*(.+)$`)

	reStopwords  = regexp.MustCompile(`(?i)\b(by|the|and|or|in|on|at|to|for|of|with|from)\b`)
	reWhitespace = regexp.MustCompile(`\s+`)
)

// ParseFilename derives a best-guess (title, author) pair from a bare
// filename. It is total: any input produces a pair, never an error. The
// known audio extension is stripped case-insensitively first; an empty or
// whitespace-only remainder yields the unknown defaults.
func ParseFilename(filename string) (title, author string) {
	name := stripAudioExt(filename)
	if strings.TrimSpace(name) == "" {
		return "Unknown Title", "Unknown Author"
	}

	if m := reTitleByAuthor.FindStringSubmatch(name); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	if m := reTitleSeries.FindStringSubmatch(name); m != nil {
		// Series name deliberately discarded, not promoted to author.
		return strings.TrimSpace(m[1]), "Unknown Author"
	}
	if m := reTitleParen.FindStringSubmatch(name); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	if m := reAuthorDash.FindStringSubmatch(name); m != nil {
		// Left of the dash is the author, right is the title.
		return strings.TrimSpace(m[2]), strings.TrimSpace(m[1])
	}

	return strings.TrimSpace(name), "Unknown Author"
}

func stripAudioExt(filename string) string {
	if strings.HasSuffix(strings.ToLower(filename), ".m4b") {
		return filename[:len(filename)-len(".m4b")]
	}
	return filename
}

// BuildSearchQuery assembles the catalog search string from a parsed
// (title, author) pair. An unknown author is left out entirely; otherwise
// common stopwords are stripped so they do not skew keyword matching.
func BuildSearchQuery(title, author string) string {
	if author == "Unknown Author" {
		return strings.TrimSpace(title)
	}
	query := title + " " + author
	query = reStopwords.ReplaceAllString(query, "")
	query = reWhitespace.ReplaceAllString(query, " ")
	return strings.TrimSpace(query)
}
