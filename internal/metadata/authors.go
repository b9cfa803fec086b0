// file: internal/metadata/authors.go
// version: 1.0.0
// guid: e1f2a3b4-c5d6-7e8f-9a0b-1c2d3e4f5a6b

package metadata

import "strings"

// AuthorOptions controls how a contributor list collapses into the single
// author display string.
type AuthorOptions struct {
	// ExcludeTranslators drops contributors whose name contains a known
	// translator keyword. If filtering would empty the list, the original
	// list is used instead.
	ExcludeTranslators bool
	// SingleAuthor returns only the first surviving name instead of a
	// comma-joined list.
	SingleAuthor bool
}

// translatorKeywords marks contributor entries that are translators rather
// than authors. Catalog locales credit translators inline with authors, so
// the match is a case-insensitive substring check.
var translatorKeywords = []string{
	"traducteur",
	"traductrice",
	"translator",
	"traductor",
	"traductora",
	"übersetzer",
	"übersetzerin",
	"traduttore",
	"traduttrice",
	"翻訳者",
	"번역가",
	"переводчик",
	"переводчица",
}

// ResolveAuthors collapses an ordered contributor name list into a display
// string per opts. An empty input yields "Unknown Author"; a non-empty input
// never yields an empty string, even when every entry matches a translator
// keyword.
func ResolveAuthors(names []string, opts AuthorOptions) string {
	cleaned := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name != "" {
			cleaned = append(cleaned, name)
		}
	}
	if len(cleaned) == 0 {
		return "Unknown Author"
	}

	filtered := cleaned
	if opts.ExcludeTranslators {
		kept := make([]string, 0, len(cleaned))
		for _, name := range cleaned {
			if !isTranslator(name) {
				kept = append(kept, name)
			}
		}
		// Never return empty from a non-empty input.
		if len(kept) > 0 {
			filtered = kept
		}
	}

	if opts.SingleAuthor {
		return filtered[0]
	}
	return strings.Join(filtered, ", ")
}

func isTranslator(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range translatorKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
