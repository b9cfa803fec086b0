// file: internal/pipeline/auto.go
// version: 1.2.0
// guid: 3a4b5c6d-7e8f-9a0b-1c2d-3e4f5a6b7c8d

package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/jdfalk/audible-tagger/internal/ai"
	"github.com/jdfalk/audible-tagger/internal/database"
	"github.com/jdfalk/audible-tagger/internal/metadata"
	"github.com/jdfalk/audible-tagger/internal/models"
)

// ErrNoConfidentMatch is returned by automatic processing when no search
// result resembles the parsed filename closely enough to trust unattended.
var ErrNoConfidentMatch = fmt.Errorf("no confident catalog match")

// FilenameParser is the AI fallback consulted when the regex patterns fail
// to find an author in a filename. Satisfied by ai.OpenAIParser.
type FilenameParser interface {
	IsEnabled() bool
	ParseFilename(ctx context.Context, filename string) (*ai.ParsedFilename, error)
}

// SetFilenameParser attaches the AI fallback parser used by AutoProcess. A
// nil parser (the default) means regex parsing stands alone.
func (p *Pipeline) SetFilenameParser(parser FilenameParser) {
	p.aiParser = parser
}

// AutoProcess tags and organizes a file without user interaction. An ASIN
// embedded in the file (a previous tagging run, or an Audible download)
// bypasses searching entirely; otherwise the filename is parsed, searched,
// and the best fuzzy match taken if it clears the confidence bar.
func (p *Pipeline) AutoProcess(fileID string) (*database.Audiobook, error) {
	book, err := p.store.GetAudiobook(fileID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, fmt.Errorf("unknown file ID %s", fileID)
	}

	if asin := metadata.ExtractASIN(book.FilePath); asin != "" {
		log.Printf("[INFO] %s carries embedded ASIN %s, skipping search", fileID, asin)
		return p.ProcessResult(fileID, &models.SearchResult{
			ASIN:   asin,
			Locale: p.cfg.PreferredLocale,
		})
	}

	title, author := metadata.ParseFilename(book.FileName)
	if author == "Unknown Author" && p.aiParser != nil && p.aiParser.IsEnabled() {
		if parsed, perr := p.aiParser.ParseFilename(context.Background(), book.FileName); perr != nil {
			log.Printf("[WARN] AI filename parse failed for %s: %v", fileID, perr)
		} else if parsed.Usable() {
			log.Printf("[INFO] AI parsed %s as %q by %q (%s confidence)",
				book.FileName, parsed.Title, parsed.Author, parsed.Confidence)
			title, author = parsed.Title, parsed.Author
			if author == "" {
				author = "Unknown Author"
			}
		}
	}
	query := metadata.BuildSearchQuery(title, author)
	results := p.catalog.Search(query)
	if len(results) == 0 {
		return nil, p.fail(fileID, fmt.Errorf("no catalog results for %q", query))
	}

	index, ok := PickBestResult(title, author, results)
	if !ok {
		log.Printf("[WARN] %s: results for %q too dissimilar, leaving for manual selection", fileID, query)
		return nil, ErrNoConfidentMatch
	}

	return p.ProcessResult(fileID, &results[index])
}

// AutoProcessAll registers the incoming directory and auto-processes every
// pending file. Files without a confident match stay pending; hard failures
// are recorded per file and do not stop the batch. The callback, when not
// nil, runs after each file for progress reporting.
func (p *Pipeline) AutoProcessAll(incomingDir string, onFile func(fileID string, err error)) (processed, left int, err error) {
	if _, err := RegisterIncoming(p.store, incomingDir); err != nil {
		return 0, 0, err
	}

	pending, err := p.store.GetAllAudiobooks(database.StatusPending)
	if err != nil {
		return 0, 0, err
	}

	for _, book := range pending {
		_, perr := p.AutoProcess(book.FileID)
		if perr != nil {
			left++
		} else {
			processed++
		}
		if onFile != nil {
			onFile(book.FileID, perr)
		}
	}
	return processed, left, nil
}

// PickBestResult ranks search results against the parsed title and author
// and returns the index of the closest hit, or ok=false when nothing is
// close enough to select unattended.
func PickBestResult(title, author string, results []models.SearchResult) (int, bool) {
	want := strings.ToLower(strings.TrimSpace(title))
	if author != "" && author != "Unknown Author" {
		want += " " + strings.ToLower(author)
	}

	best := -1
	bestDistance := 0
	for i, r := range results {
		got := strings.ToLower(r.Title)
		if r.Author != "" {
			got += " " + strings.ToLower(r.Author)
		}
		d := fuzzy.LevenshteinDistance(want, got)
		if best == -1 || d < bestDistance {
			best = i
			bestDistance = d
		}
	}
	if best == -1 {
		return 0, false
	}

	// Accept only when the edit distance is small relative to the query.
	// A threshold of half the query length tolerates subtitle noise while
	// rejecting unrelated books.
	if bestDistance > len(want)/2 {
		return 0, false
	}
	return best, true
}
