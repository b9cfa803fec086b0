// file: internal/metadata/cover_test.go
// version: 1.0.0
// guid: 3c4d5e6f-7a8b-9c0d-1e2f-3a4b5c6d7e8f

package metadata

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestDownloadCover(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg bytes"))
	}))
	defer srv.Close()

	coversDir := t.TempDir()

	path, err := DownloadCover(srv.URL+"/cover.jpg", coversDir, "B08G9PRS1K")
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join(coversDir, "B08G9PRS1K.jpg") {
		t.Errorf("path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "jpeg bytes" {
		t.Errorf("content = %q", data)
	}

	// Second call finds the existing file and skips the download.
	again, err := DownloadCover(srv.URL+"/cover.jpg", coversDir, "B08G9PRS1K")
	if err != nil {
		t.Fatal(err)
	}
	if again != path {
		t.Errorf("cached path = %q, want %q", again, path)
	}
	if requests != 1 {
		t.Errorf("made %d requests, want 1", requests)
	}
}

func TestDownloadCoverPNG(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png bytes"))
	}))
	defer srv.Close()

	path, err := DownloadCover(srv.URL, t.TempDir(), "B000PNG000")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Ext(path) != ".png" {
		t.Errorf("extension = %q, want .png", filepath.Ext(path))
	}
}

func TestDownloadCoverRejectsNonImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>not a cover</html>"))
	}))
	defer srv.Close()

	if _, err := DownloadCover(srv.URL, t.TempDir(), "B000HTML00"); err == nil {
		t.Error("expected error for text/html response")
	}
}

func TestDownloadCoverValidation(t *testing.T) {
	if _, err := DownloadCover("", t.TempDir(), "B001"); err == nil {
		t.Error("expected error for empty URL")
	}
	if _, err := DownloadCover("http://example.invalid/c.jpg", t.TempDir(), ""); err == nil {
		t.Error("expected error for empty ASIN")
	}
}

func TestCoverPath(t *testing.T) {
	dir := t.TempDir()
	if got := CoverPath(dir, "B001"); got != "" {
		t.Errorf("CoverPath = %q for empty dir", got)
	}

	want := filepath.Join(dir, "B001.jpg")
	if err := os.WriteFile(want, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := CoverPath(dir, "B001"); got != want {
		t.Errorf("CoverPath = %q, want %q", got, want)
	}
}

func TestExtractASINNonAudioFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-audio.m4b")
	if err := os.WriteFile(path, []byte("definitely not an mp4 container"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := ExtractASIN(path); got != "" {
		t.Errorf("ExtractASIN = %q for junk file, want empty", got)
	}
	if got := ExtractASIN(filepath.Join(t.TempDir(), "missing.m4b")); got != "" {
		t.Errorf("ExtractASIN = %q for missing file, want empty", got)
	}
}
