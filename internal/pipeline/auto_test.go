// file: internal/pipeline/auto_test.go
// version: 1.1.0
// guid: 6d7e8f9a-0b1c-2d3e-4f5a-6b7c8d9e0f1a

package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdfalk/audible-tagger/internal/ai"
	"github.com/jdfalk/audible-tagger/internal/database"
	"github.com/jdfalk/audible-tagger/internal/models"
)

func TestPickBestResultExact(t *testing.T) {
	results := []models.SearchResult{
		{Title: "Completely Different Book", Author: "Somebody Else"},
		{Title: "Project Hail Mary", Author: "Andy Weir"},
	}

	index, ok := PickBestResult("Project Hail Mary", "Andy Weir", results)
	require.True(t, ok)
	assert.Equal(t, 1, index)
}

func TestPickBestResultSubtitleNoise(t *testing.T) {
	results := []models.SearchResult{
		{Title: "Project Hail Mary: A Novel", Author: "Andy Weir"},
	}

	_, ok := PickBestResult("Project Hail Mary", "Andy Weir", results)
	assert.True(t, ok)
}

func TestPickBestResultRejectsDissimilar(t *testing.T) {
	results := []models.SearchResult{
		{Title: "The Wheel of Time Companion", Author: "Robert Jordan"},
	}

	_, ok := PickBestResult("Project Hail Mary", "Andy Weir", results)
	assert.False(t, ok)
}

func TestPickBestResultNoResults(t *testing.T) {
	_, ok := PickBestResult("Anything", "Anyone", nil)
	assert.False(t, ok)
}

func TestAutoProcessNoConfidentMatch(t *testing.T) {
	catalog := &fakeCatalog{
		results: []models.SearchResult{
			{Title: "Entirely Unrelated Cookbook", Author: "A Chef", ASIN: "B999", Locale: "com"},
		},
	}
	p, cfg, store := testPipeline(t, catalog, &recordingBackend{})
	fileID := addIncomingFile(t, store, cfg.IncomingDir, "Project Hail Mary by Andy Weir.m4b")

	_, err := p.AutoProcess(fileID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoConfidentMatch))

	// A low-confidence miss leaves the file pending for manual selection.
	book, err := store.GetAudiobook(fileID)
	require.NoError(t, err)
	assert.Equal(t, database.StatusPending, book.Status)
}

func TestAutoProcessConfidentMatch(t *testing.T) {
	detail := &models.BookDetail{ASIN: "B08G9PRS1K", Title: "Project Hail Mary", Author: "Andy Weir"}
	catalog := &fakeCatalog{
		results: []models.SearchResult{
			{Title: "Project Hail Mary", Author: "Andy Weir", ASIN: "B08G9PRS1K", Locale: "com"},
		},
		details: map[string]*models.BookDetail{"B08G9PRS1K": detail},
	}
	p, cfg, store := testPipeline(t, catalog, &recordingBackend{})
	fileID := addIncomingFile(t, store, cfg.IncomingDir, "Project Hail Mary by Andy Weir.m4b")

	book, err := p.AutoProcess(fileID)
	require.NoError(t, err)
	assert.Equal(t, database.StatusProcessed, book.Status)
}

func TestAutoProcessNoResults(t *testing.T) {
	catalog := &fakeCatalog{}
	p, cfg, store := testPipeline(t, catalog, &recordingBackend{})
	fileID := addIncomingFile(t, store, cfg.IncomingDir, "Obscure Book.m4b")

	_, err := p.AutoProcess(fileID)
	require.Error(t, err)

	book, err := store.GetAudiobook(fileID)
	require.NoError(t, err)
	assert.Equal(t, database.StatusError, book.Status)
}

type fakeParser struct {
	parsed *ai.ParsedFilename
	err    error
	called bool
}

func (f *fakeParser) IsEnabled() bool { return true }

func (f *fakeParser) ParseFilename(ctx context.Context, filename string) (*ai.ParsedFilename, error) {
	f.called = true
	return f.parsed, f.err
}

func TestAutoProcessAIFallback(t *testing.T) {
	detail := &models.BookDetail{ASIN: "B08G9PRS1K", Title: "Project Hail Mary", Author: "Andy Weir"}
	catalog := &fakeCatalog{
		results: []models.SearchResult{
			{Title: "Project Hail Mary", Author: "Andy Weir", ASIN: "B08G9PRS1K", Locale: "com"},
		},
		details: map[string]*models.BookDetail{"B08G9PRS1K": detail},
	}
	p, cfg, store := testPipeline(t, catalog, &recordingBackend{})
	parser := &fakeParser{parsed: &ai.ParsedFilename{
		Title: "Project Hail Mary", Author: "Andy Weir", Confidence: "high",
	}}
	p.SetFilenameParser(parser)

	// A filename no regex pattern can attribute to an author.
	fileID := addIncomingFile(t, store, cfg.IncomingDir, "PHM.2021.64k.m4b")

	book, err := p.AutoProcess(fileID)
	require.NoError(t, err)
	assert.True(t, parser.called)
	assert.Equal(t, database.StatusProcessed, book.Status)
}

func TestAutoProcessAIFallbackLowConfidenceIgnored(t *testing.T) {
	catalog := &fakeCatalog{}
	p, cfg, store := testPipeline(t, catalog, &recordingBackend{})
	parser := &fakeParser{parsed: &ai.ParsedFilename{
		Title: "Guess", Author: "Maybe", Confidence: "low",
	}}
	p.SetFilenameParser(parser)

	fileID := addIncomingFile(t, store, cfg.IncomingDir, "garbled.m4b")

	_, err := p.AutoProcess(fileID)
	require.Error(t, err)
	assert.True(t, parser.called)
	// Low confidence falls back to the regex parse, which found no results.
	book, err := store.GetAudiobook(fileID)
	require.NoError(t, err)
	assert.Equal(t, database.StatusError, book.Status)
}
