// file: internal/pipeline/pipeline_test.go
// version: 1.2.0
// guid: 5c6d7e8f-9a0b-1c2d-3e4f-5a6b7c8d9e0f

package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdfalk/audible-tagger/internal/config"
	"github.com/jdfalk/audible-tagger/internal/database"
	"github.com/jdfalk/audible-tagger/internal/metadata"
	"github.com/jdfalk/audible-tagger/internal/models"
	"github.com/jdfalk/audible-tagger/internal/organizer"
	"github.com/jdfalk/audible-tagger/internal/sidecar"
)

type fakeCatalog struct {
	results []models.SearchResult
	details map[string]*models.BookDetail
	queries []string
}

func (f *fakeCatalog) Search(query string) []models.SearchResult {
	f.queries = append(f.queries, query)
	return f.results
}

func (f *fakeCatalog) GetBookDetails(asin, locale string) (*models.BookDetail, error) {
	if d, ok := f.details[asin]; ok {
		return d, nil
	}
	return nil, metadata.ErrNotFound
}

type recordingBackend struct {
	applied map[string]*models.TagSet
	fail    bool
}

func (b *recordingBackend) Name() string { return "recording" }

func (b *recordingBackend) Apply(path string, tags *models.TagSet, cover []byte) error {
	if b.fail {
		return fmt.Errorf("simulated tagging failure")
	}
	if b.applied == nil {
		b.applied = make(map[string]*models.TagSet)
	}
	b.applied[path] = tags
	return nil
}

func testPipeline(t *testing.T, catalog *fakeCatalog, backend *recordingBackend) (*Pipeline, config.Config, database.Store) {
	t.Helper()

	cfg := config.Default()
	root := t.TempDir()
	cfg.IncomingDir = filepath.Join(root, "incoming")
	cfg.LibraryDir = filepath.Join(root, "library")
	cfg.CoversDir = filepath.Join(root, "covers")
	cfg.EmbedCovers = false
	require.NoError(t, os.MkdirAll(cfg.IncomingDir, 0o755))

	store, err := database.NewSQLiteStore(filepath.Join(root, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	p := &Pipeline{
		cfg:       cfg,
		store:     store,
		catalog:   catalog,
		backend:   backend,
		organizer: organizer.NewOrganizer(cfg),
		sidecar:   sidecar.NewWriter(cfg.CreateAdditionalMetadata),
	}
	return p, cfg, store
}

func addIncomingFile(t *testing.T, store database.Store, incomingDir, name string) string {
	t.Helper()
	path := filepath.Join(incomingDir, name)
	require.NoError(t, os.WriteFile(path, []byte("not really audio"), 0o644))
	id := FileID(name)
	require.NoError(t, store.AddAudiobook(path, id, 16))
	return id
}

func TestFileIDStable(t *testing.T) {
	a := FileID("Some Book by Some Author.m4b")
	b := FileID("Some Book by Some Author.m4b")
	c := FileID("Another Book.m4b")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 8)
}

func TestFindAudiobooks(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	for _, name := range []string{"a.m4b", "b.M4B", "ignore.mp3", "notes.txt", "nested/c.m4b"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	paths, err := FindAudiobooks(dir)
	require.NoError(t, err)
	assert.Len(t, paths, 3)
	for _, p := range paths {
		assert.NotContains(t, p, "ignore")
		assert.NotContains(t, p, "notes")
	}
}

func TestRegisterIncomingIdempotent(t *testing.T) {
	catalog := &fakeCatalog{}
	_, cfg, store := testPipeline(t, catalog, &recordingBackend{})

	require.NoError(t, os.WriteFile(filepath.Join(cfg.IncomingDir, "Book.m4b"), nil, 0o644))

	ids, err := RegisterIncoming(store, cfg.IncomingDir)
	require.NoError(t, err)
	require.Len(t, ids, 1)

	again, err := RegisterIncoming(store, cfg.IncomingDir)
	require.NoError(t, err)
	assert.Equal(t, ids, again)

	books, err := store.GetAllAudiobooks("")
	require.NoError(t, err)
	assert.Len(t, books, 1)
}

func TestParseSelectionID(t *testing.T) {
	sessionID, index, err := ParseSelectionID("abc123def456_2")
	require.NoError(t, err)
	assert.Equal(t, "abc123def456", sessionID)
	assert.Equal(t, 2, index)

	for _, bad := range []string{"", "nounderscore", "_3", "abc_", "abc_x", "abc_-1"} {
		_, _, err := ParseSelectionID(bad)
		assert.Error(t, err, "selection ID %q should be rejected", bad)
	}
}

func TestSearchForFileCreatesSession(t *testing.T) {
	catalog := &fakeCatalog{
		results: []models.SearchResult{
			{Title: "Project Hail Mary", Author: "Andy Weir", ASIN: "B08G9PRS1K", Locale: "com"},
		},
	}
	p, cfg, store := testPipeline(t, catalog, &recordingBackend{})
	fileID := addIncomingFile(t, store, cfg.IncomingDir, "Project Hail Mary by Andy Weir.m4b")

	sessionID, results, err := p.SearchForFile(fileID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Len(t, catalog.queries, 1)
	assert.Contains(t, catalog.queries[0], "Project Hail Mary")

	got, err := p.ResolveSelection(fileID, SelectionID(sessionID, 0))
	require.NoError(t, err)
	assert.Equal(t, "B08G9PRS1K", got.ASIN)
}

func TestResolveSelectionWrongFile(t *testing.T) {
	catalog := &fakeCatalog{
		results: []models.SearchResult{{Title: "A", ASIN: "B001", Locale: "com"}},
	}
	p, cfg, store := testPipeline(t, catalog, &recordingBackend{})
	fileA := addIncomingFile(t, store, cfg.IncomingDir, "A.m4b")
	fileB := addIncomingFile(t, store, cfg.IncomingDir, "B.m4b")

	sessionID, _, err := p.SearchForFile(fileA)
	require.NoError(t, err)

	_, err = p.ResolveSelection(fileB, SelectionID(sessionID, 0))
	assert.Error(t, err)

	_, err = p.ResolveSelection(fileA, SelectionID(sessionID, 5))
	assert.Error(t, err)
}

func TestProcessResultFullFlow(t *testing.T) {
	detail := &models.BookDetail{
		ASIN:        "B08G9PRS1K",
		Title:       "Project Hail Mary",
		Author:      "Andy Weir",
		Authors:     []string{"Andy Weir"},
		Narrator:    "Ray Porter",
		Narrators:   []string{"Ray Porter"},
		Description: "A lone astronaut.",
		ReleaseDate: "2021-05-04T00:00:00Z",
	}
	catalog := &fakeCatalog{details: map[string]*models.BookDetail{"B08G9PRS1K": detail}}
	backend := &recordingBackend{}
	p, cfg, store := testPipeline(t, catalog, backend)
	fileID := addIncomingFile(t, store, cfg.IncomingDir, "Project Hail Mary.m4b")

	book, err := p.ProcessResult(fileID, &models.SearchResult{ASIN: "B08G9PRS1K", Locale: "com"})
	require.NoError(t, err)
	require.NotNil(t, book)

	assert.Equal(t, database.StatusProcessed, book.Status)
	assert.NotNil(t, book.ProcessedAt)
	require.NotNil(t, book.Metadata)
	assert.Equal(t, "Project Hail Mary", book.Metadata.Title)

	wantDir := filepath.Join(cfg.LibraryDir, "Andy Weir", "Project Hail Mary")
	wantPath := filepath.Join(wantDir, "Project Hail Mary.m4b")
	assert.Equal(t, wantPath, book.FinalPath)

	if _, err := os.Stat(wantPath); err != nil {
		t.Fatalf("organized file missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(wantDir, "Project Hail Mary.opf")); err != nil {
		t.Errorf("OPF sidecar missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(wantDir, "desc.txt")); err != nil {
		t.Errorf("desc.txt sidecar missing: %v", err)
	}

	// Tags went through the backend against the original path.
	require.Len(t, backend.applied, 1)
}

func TestProcessResultTaggingFailure(t *testing.T) {
	detail := &models.BookDetail{ASIN: "B001", Title: "Broken", Author: "Nobody"}
	catalog := &fakeCatalog{details: map[string]*models.BookDetail{"B001": detail}}
	p, cfg, store := testPipeline(t, catalog, &recordingBackend{fail: true})
	fileID := addIncomingFile(t, store, cfg.IncomingDir, "Broken.m4b")

	_, err := p.ProcessResult(fileID, &models.SearchResult{ASIN: "B001", Locale: "com"})
	require.Error(t, err)

	book, err := store.GetAudiobook(fileID)
	require.NoError(t, err)
	assert.Equal(t, database.StatusError, book.Status)
	assert.Contains(t, book.ErrorMsg, "tagging failed")

	// File stays in the incoming directory on failure.
	_, statErr := os.Stat(filepath.Join(cfg.IncomingDir, "Broken.m4b"))
	assert.NoError(t, statErr)
}

func TestProcessResultUnknownASIN(t *testing.T) {
	catalog := &fakeCatalog{details: map[string]*models.BookDetail{}}
	p, cfg, store := testPipeline(t, catalog, &recordingBackend{})
	fileID := addIncomingFile(t, store, cfg.IncomingDir, "Mystery.m4b")

	_, err := p.ProcessResult(fileID, &models.SearchResult{ASIN: "B404", Locale: "com"})
	require.Error(t, err)

	book, err := store.GetAudiobook(fileID)
	require.NoError(t, err)
	assert.Equal(t, database.StatusError, book.Status)
}

func TestSkip(t *testing.T) {
	catalog := &fakeCatalog{}
	p, cfg, store := testPipeline(t, catalog, &recordingBackend{})
	fileID := addIncomingFile(t, store, cfg.IncomingDir, "Skipped.m4b")

	require.NoError(t, p.Skip(fileID))

	book, err := store.GetAudiobook(fileID)
	require.NoError(t, err)
	assert.Equal(t, database.StatusSkipped, book.Status)
}
