// file: internal/cleanup/cleanup_test.go
// version: 1.0.0
// guid: 9a0b1c2d-3e4f-5a6b-7c8d-9e0f1a2b3c4d

package cleanup

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsTempFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"temp-Some Book.m4b", true},
		{"Some Book_tagged.m4b", true},
		{"ap-Some Book.m4b", true},
		{"chunk.tmp", true},
		{"Some Book.m4b.backup", true},
		{"Some Book.m4b", false},
		{"temperature notes.txt", false},
		{"attempt.m4b", false},
	}
	for _, tt := range tests {
		if got := IsTempFile(tt.name); got != tt.want {
			t.Errorf("IsTempFile(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func write(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRunRemovesTempFiles(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "temp-Book.m4b"))
	write(t, filepath.Join(dir, "Book_tagged.m4b"))
	write(t, filepath.Join(dir, "Keep Me.m4b"))

	report, err := Run(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	if report.TempFiles != 2 {
		t.Errorf("TempFiles = %d, want 2", report.TempFiles)
	}
	if _, err := os.Stat(filepath.Join(dir, "Keep Me.m4b")); err != nil {
		t.Errorf("real audiobook was removed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "temp-Book.m4b")); !os.IsNotExist(err) {
		t.Error("temp file survived cleanup")
	}
}

func TestRunStraysOnlyWhenAsked(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "cover.jpg"))
	write(t, filepath.Join(dir, "Book.m4b"))

	report, err := Run(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	if report.Strays != 0 {
		t.Errorf("Strays = %d without removeStrays, want 0", report.Strays)
	}

	report, err = Run(dir, true)
	if err != nil {
		t.Fatal(err)
	}
	if report.Strays != 1 {
		t.Errorf("Strays = %d, want 1", report.Strays)
	}
	if _, err := os.Stat(filepath.Join(dir, "Book.m4b")); err != nil {
		t.Errorf("audiobook removed as stray: %v", err)
	}
}

func TestRunPrunesEmptyDirsDeepestFirst(t *testing.T) {
	dir := t.TempDir()
	// a/b/c is empty all the way up once c is pruned.
	if err := os.MkdirAll(filepath.Join(dir, "a", "b", "c"), 0o755); err != nil {
		t.Fatal(err)
	}
	write(t, filepath.Join(dir, "occupied", "Book.m4b"))

	report, err := Run(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	if report.EmptyDirs != 3 {
		t.Errorf("EmptyDirs = %d, want 3", report.EmptyDirs)
	}
	if _, err := os.Stat(filepath.Join(dir, "a")); !os.IsNotExist(err) {
		t.Error("empty tree not fully pruned")
	}
	if _, err := os.Stat(filepath.Join(dir, "occupied")); err != nil {
		t.Errorf("occupied dir pruned: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("root pruned: %v", err)
	}
}
