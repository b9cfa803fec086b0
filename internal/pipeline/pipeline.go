// file: internal/pipeline/pipeline.go
// version: 1.3.0
// guid: 2f3a4b5c-6d7e-8f9a-0b1c-2d3e4f5a6b7c

package pipeline

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/jdfalk/audible-tagger/internal/config"
	"github.com/jdfalk/audible-tagger/internal/database"
	"github.com/jdfalk/audible-tagger/internal/metadata"
	"github.com/jdfalk/audible-tagger/internal/metrics"
	"github.com/jdfalk/audible-tagger/internal/models"
	"github.com/jdfalk/audible-tagger/internal/organizer"
	"github.com/jdfalk/audible-tagger/internal/realtime"
	"github.com/jdfalk/audible-tagger/internal/sidecar"
	"github.com/jdfalk/audible-tagger/internal/tagger"
)

// Catalog is the metadata source the pipeline searches and fetches details
// from. Satisfied by metadata.AudibleClient.
type Catalog interface {
	Search(query string) []models.SearchResult
	GetBookDetails(asin, locale string) (*models.BookDetail, error)
}

// Pipeline drives an audiobook from registered incoming file to tagged,
// organized library entry. All state between steps lives in the store, so
// the CLI and the HTTP server share one implementation.
type Pipeline struct {
	cfg       config.Config
	store     database.Store
	catalog   Catalog
	backend   tagger.Backend
	organizer *organizer.Organizer
	sidecar   *sidecar.Writer
	events    *realtime.EventHub
	aiParser  FilenameParser
}

// SetEventHub attaches a hub that receives book lifecycle events. A nil hub
// (the default) disables event publishing.
func (p *Pipeline) SetEventHub(hub *realtime.EventHub) {
	p.events = hub
}

// New assembles a pipeline from configuration.
func New(cfg config.Config, store database.Store, catalog Catalog) (*Pipeline, error) {
	backend, err := tagger.NewBackend(cfg)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		cfg:       cfg,
		store:     store,
		catalog:   catalog,
		backend:   backend,
		organizer: organizer.NewOrganizer(cfg),
		sidecar:   sidecar.NewWriter(cfg.CreateAdditionalMetadata),
	}, nil
}

// SearchForFile parses the file's name into a search query, runs the catalog
// search and stores the results as a new session. The returned session ID
// plus a result index form the selection IDs handed to callers.
func (p *Pipeline) SearchForFile(fileID string) (string, []models.SearchResult, error) {
	book, err := p.store.GetAudiobook(fileID)
	if err != nil {
		return "", nil, err
	}
	if book == nil {
		return "", nil, fmt.Errorf("unknown file ID %s", fileID)
	}

	title, author := metadata.ParseFilename(book.FileName)
	query := metadata.BuildSearchQuery(title, author)
	return p.search(fileID, query)
}

// CustomSearch runs a caller-supplied query for the file and stores the
// results as a new session, replacing nothing; old sessions age out.
func (p *Pipeline) CustomSearch(fileID, query string) (string, []models.SearchResult, error) {
	book, err := p.store.GetAudiobook(fileID)
	if err != nil {
		return "", nil, err
	}
	if book == nil {
		return "", nil, fmt.Errorf("unknown file ID %s", fileID)
	}
	return p.search(fileID, query)
}

func (p *Pipeline) search(fileID, query string) (string, []models.SearchResult, error) {
	log.Printf("[INFO] searching catalog for %s: %q", fileID, query)
	results := p.catalog.Search(query)

	sessionID := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	if err := p.store.SaveSearchSession(sessionID, fileID, results); err != nil {
		return "", nil, err
	}
	return sessionID, results, nil
}

// SelectionID builds the opaque selection token for a result index within a
// session.
func SelectionID(sessionID string, index int) string {
	return fmt.Sprintf("%s_%d", sessionID, index)
}

// ParseSelectionID splits a selection token back into session ID and index.
func ParseSelectionID(selectionID string) (string, int, error) {
	pos := strings.LastIndex(selectionID, "_")
	if pos <= 0 || pos == len(selectionID)-1 {
		return "", 0, fmt.Errorf("malformed selection ID %q", selectionID)
	}
	index, err := strconv.Atoi(selectionID[pos+1:])
	if err != nil || index < 0 {
		return "", 0, fmt.Errorf("malformed selection ID %q", selectionID)
	}
	return selectionID[:pos], index, nil
}

// ResolveSelection loads the session referenced by a selection ID and
// returns the chosen search result. The session must belong to fileID.
func (p *Pipeline) ResolveSelection(fileID, selectionID string) (*models.SearchResult, error) {
	sessionID, index, err := ParseSelectionID(selectionID)
	if err != nil {
		return nil, err
	}

	session, err := p.store.GetSearchSession(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("search session %s not found or expired", sessionID)
	}
	if session.FileID != fileID {
		return nil, fmt.Errorf("selection %s does not belong to file %s", selectionID, fileID)
	}
	if index >= len(session.Results) {
		return nil, fmt.Errorf("selection index %d out of range (%d results)", index, len(session.Results))
	}
	result := session.Results[index]
	return &result, nil
}

// ProcessSelection runs the full tagging and organization workflow for the
// search result referenced by selectionID. On any failure the file is
// marked errored with the failure message and left in place.
func (p *Pipeline) ProcessSelection(fileID, selectionID string) (*database.Audiobook, error) {
	result, err := p.ResolveSelection(fileID, selectionID)
	if err != nil {
		return nil, err
	}
	return p.ProcessResult(fileID, result)
}

// ProcessResult tags and organizes the file using the given catalog hit.
func (p *Pipeline) ProcessResult(fileID string, result *models.SearchResult) (*database.Audiobook, error) {
	book, err := p.store.GetAudiobook(fileID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, fmt.Errorf("unknown file ID %s", fileID)
	}

	if err := p.store.UpdateAudiobookStatus(fileID, database.StatusProcessing, nil); err != nil {
		return nil, err
	}

	detail, err := p.catalog.GetBookDetails(result.ASIN, result.Locale)
	if err != nil {
		return nil, p.fail(fileID, fmt.Errorf("detail lookup for %s failed: %w", result.ASIN, err))
	}

	finalBook, err := p.process(book, detail)
	if err != nil {
		return nil, p.fail(fileID, err)
	}
	return finalBook, nil
}

func (p *Pipeline) process(book *database.Audiobook, detail *models.BookDetail) (*database.Audiobook, error) {
	log.Printf("[INFO] processing %s: %s by %s", book.FileID, detail.Title, detail.Author)

	coverPath := ""
	if detail.CoverURL != "" {
		path, err := metadata.DownloadCover(detail.CoverURL, p.cfg.CoversDir, detail.ASIN)
		if err != nil {
			log.Printf("[WARN] cover download failed for %s: %v", detail.ASIN, err)
		} else {
			coverPath = path
		}
	}

	var cover []byte
	if p.cfg.EmbedCovers && coverPath != "" {
		data, err := os.ReadFile(coverPath)
		if err != nil {
			log.Printf("[WARN] could not read cover %s: %v", coverPath, err)
		} else {
			cover = data
		}
	}

	tags := tagger.BuildTags(detail, tagger.OptionsFromConfig(p.cfg))
	if err := p.backend.Apply(book.FilePath, tags, cover); err != nil {
		return nil, fmt.Errorf("tagging failed: %w", err)
	}

	dest := p.organizer.Plan(detail)
	finalPath, err := p.organizer.Move(book.FilePath, dest)
	if err != nil {
		return nil, fmt.Errorf("library move failed: %w", err)
	}

	baseName := strings.TrimSuffix(dest.FileName, filepath.Ext(dest.FileName))
	if err := p.sidecar.Write(p.organizer.DestinationDir(dest), detail, baseName, coverPath); err != nil {
		// Sidecar files are additive metadata; the book itself is in place.
		log.Printf("[WARN] sidecar write failed for %s: %v", book.FileID, err)
	}

	update := &database.StatusUpdate{
		Metadata:  detail,
		CoverPath: coverPath,
		FinalPath: finalPath,
	}
	if err := p.store.UpdateAudiobookStatus(book.FileID, database.StatusProcessed, update); err != nil {
		return nil, err
	}

	metrics.BooksProcessed.Inc()
	if p.events != nil {
		p.events.SendBookProcessed(book.FileID, detail.Title, finalPath)
	}
	log.Printf("[INFO] finished %s -> %s", book.FileID, finalPath)
	return p.store.GetAudiobook(book.FileID)
}

// Skip marks a file as deliberately skipped.
func (p *Pipeline) Skip(fileID string) error {
	if err := p.store.UpdateAudiobookStatus(fileID, database.StatusSkipped, nil); err != nil {
		return err
	}
	metrics.BooksSkipped.Inc()
	if p.events != nil {
		p.events.SendBookSkipped(fileID)
	}
	return nil
}

func (p *Pipeline) fail(fileID string, cause error) error {
	log.Printf("[ERROR] processing %s failed: %v", fileID, cause)
	update := &database.StatusUpdate{ErrorMsg: cause.Error()}
	if err := p.store.UpdateAudiobookStatus(fileID, database.StatusError, update); err != nil {
		log.Printf("[ERROR] could not record failure for %s: %v", fileID, err)
	}
	metrics.BooksFailed.Inc()
	if p.events != nil {
		p.events.SendBookFailed(fileID, cause.Error())
	}
	return cause
}
