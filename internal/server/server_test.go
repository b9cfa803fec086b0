// file: internal/server/server_test.go
// version: 1.1.0
// guid: 7f8a9b0c-1d2e-3f4a-5b6c-7d8e9f0a1b2c

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdfalk/audible-tagger/internal/config"
	"github.com/jdfalk/audible-tagger/internal/database"
	"github.com/jdfalk/audible-tagger/internal/models"
	"github.com/jdfalk/audible-tagger/internal/pipeline"
)

type fakeTagging struct {
	results   []models.SearchResult
	processed map[string]string // fileID -> selectionID
	skipped   []string
	autoErr   error
}

func (f *fakeTagging) SearchForFile(fileID string) (string, []models.SearchResult, error) {
	if fileID == "missing1" {
		return "", nil, fmt.Errorf("unknown file ID %s", fileID)
	}
	return "sess1234", f.results, nil
}

func (f *fakeTagging) CustomSearch(fileID, query string) (string, []models.SearchResult, error) {
	return "sess5678", f.results, nil
}

func (f *fakeTagging) ProcessSelection(fileID, selectionID string) (*database.Audiobook, error) {
	if _, _, err := pipeline.ParseSelectionID(selectionID); err != nil {
		return nil, err
	}
	if f.processed == nil {
		f.processed = make(map[string]string)
	}
	f.processed[fileID] = selectionID
	return &database.Audiobook{FileID: fileID, Status: database.StatusProcessed}, nil
}

func (f *fakeTagging) AutoProcess(fileID string) (*database.Audiobook, error) {
	if f.autoErr != nil {
		return nil, f.autoErr
	}
	return &database.Audiobook{FileID: fileID, Status: database.StatusProcessed}, nil
}

func (f *fakeTagging) AutoProcessAll(incomingDir string, onFile func(string, error)) (int, int, error) {
	return 2, 1, nil
}

func (f *fakeTagging) Skip(fileID string) error {
	f.skipped = append(f.skipped, fileID)
	return nil
}

func newTestServer(t *testing.T, tagging Tagging) (*Server, database.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	root := t.TempDir()
	cfg.IncomingDir = filepath.Join(root, "incoming")
	require.NoError(t, os.MkdirAll(cfg.IncomingDir, 0o755))

	store, err := database.NewSQLiteStore(filepath.Join(root, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return NewServer(cfg, store, tagging, nil), store
}

func doRequest(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		blob, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(blob)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	s, _ := newTestServer(t, &fakeTagging{})

	w := doRequest(t, s, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestListAudiobooks(t *testing.T) {
	s, store := newTestServer(t, &fakeTagging{})
	require.NoError(t, store.AddAudiobook("/in/a.m4b", "aaaa1111", 1))
	require.NoError(t, store.AddAudiobook("/in/b.m4b", "bbbb2222", 2))
	require.NoError(t, store.UpdateAudiobookStatus("bbbb2222", database.StatusSkipped, nil))

	w := doRequest(t, s, http.MethodGet, "/api/v1/audiobooks", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Audiobooks []database.Audiobook `json:"audiobooks"`
		Count      int                  `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)

	w = doRequest(t, s, http.MethodGet, "/api/v1/audiobooks?status=pending", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "aaaa1111", body.Audiobooks[0].FileID)

	w = doRequest(t, s, http.MethodGet, "/api/v1/audiobooks?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAudiobook(t *testing.T) {
	s, store := newTestServer(t, &fakeTagging{})
	require.NoError(t, store.AddAudiobook("/in/a.m4b", "aaaa1111", 1))

	w := doRequest(t, s, http.MethodGet, "/api/v1/audiobooks/aaaa1111", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var book database.Audiobook
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &book))
	assert.Equal(t, "aaaa1111", book.FileID)

	w = doRequest(t, s, http.MethodGet, "/api/v1/audiobooks/missing1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearchAudiobook(t *testing.T) {
	tagging := &fakeTagging{
		results: []models.SearchResult{
			{Title: "Project Hail Mary", Author: "Andy Weir", ASIN: "B08G9PRS1K", Locale: "com"},
			{Title: "The Martian", Author: "Andy Weir", ASIN: "B00B5HZGUG", Locale: "com"},
		},
	}
	s, _ := newTestServer(t, tagging)

	w := doRequest(t, s, http.MethodGet, "/api/v1/audiobooks/aaaa1111/search", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		SessionID string       `json:"session_id"`
		Results   []resultView `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "sess1234", body.SessionID)
	require.Len(t, body.Results, 2)
	assert.Equal(t, "sess1234_0", body.Results[0].SelectionID)
	assert.Equal(t, "sess1234_1", body.Results[1].SelectionID)
	assert.Equal(t, "B00B5HZGUG", body.Results[1].ASIN)
}

func TestSearchAudiobookUnknown(t *testing.T) {
	s, _ := newTestServer(t, &fakeTagging{})

	w := doRequest(t, s, http.MethodGet, "/api/v1/audiobooks/missing1/search", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCustomSearch(t *testing.T) {
	tagging := &fakeTagging{
		results: []models.SearchResult{{Title: "The Martian", ASIN: "B00B5HZGUG", Locale: "com"}},
	}
	s, _ := newTestServer(t, tagging)

	w := doRequest(t, s, http.MethodPost, "/api/v1/audiobooks/aaaa1111/search",
		map[string]string{"query": "the martian andy weir"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, s, http.MethodPost, "/api/v1/audiobooks/aaaa1111/search",
		map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProcessAudiobook(t *testing.T) {
	tagging := &fakeTagging{}
	s, _ := newTestServer(t, tagging)

	w := doRequest(t, s, http.MethodPost, "/api/v1/audiobooks/aaaa1111/process?selection_id=sess1234_0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sess1234_0", tagging.processed["aaaa1111"])

	w = doRequest(t, s, http.MethodPost, "/api/v1/audiobooks/aaaa1111/process", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, s, http.MethodPost, "/api/v1/audiobooks/aaaa1111/process?selection_id=garbage", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAutoProcessNoConfidentMatch(t *testing.T) {
	tagging := &fakeTagging{autoErr: pipeline.ErrNoConfidentMatch}
	s, _ := newTestServer(t, tagging)

	w := doRequest(t, s, http.MethodPost, "/api/v1/audiobooks/aaaa1111/auto", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSkipAudiobook(t *testing.T) {
	tagging := &fakeTagging{}
	s, _ := newTestServer(t, tagging)

	w := doRequest(t, s, http.MethodPost, "/api/v1/audiobooks/aaaa1111/skip", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"aaaa1111"}, tagging.skipped)
}

func TestBatchAuto(t *testing.T) {
	s, _ := newTestServer(t, &fakeTagging{})

	w := doRequest(t, s, http.MethodPost, "/api/v1/batch/auto", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]int
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body["processed"])
	assert.Equal(t, 1, body["remaining"])
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, &fakeTagging{})

	w := doRequest(t, s, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestScanSweepsTempFilesFirst(t *testing.T) {
	s, _ := newTestServer(t, &fakeTagging{})

	book := filepath.Join(s.cfg.IncomingDir, "Real Book.m4b")
	leftover := filepath.Join(s.cfg.IncomingDir, "temp-Real Book.m4b")
	require.NoError(t, os.WriteFile(book, []byte("audio"), 0o644))
	require.NoError(t, os.WriteFile(leftover, []byte("partial"), 0o644))

	w := doRequest(t, s, http.MethodPost, "/api/v1/scan", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Registered int `json:"registered"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	// The leftover intermediate file must be swept, not registered.
	assert.Equal(t, 1, resp.Registered)
	_, err := os.Stat(leftover)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(book)
	assert.NoError(t, err)
}

func TestEventsEndpointStreamsConnectionEvent(t *testing.T) {
	s, _ := newTestServer(t, &fakeTagging{})

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		s.Handler().ServeHTTP(w, req)
		close(done)
	}()

	// Give the handler a moment to flush the initial event, then hang up.
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "connection.established")
}
