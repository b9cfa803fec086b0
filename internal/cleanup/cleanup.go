// file: internal/cleanup/cleanup.go
// version: 1.1.0
// guid: 8f9a0b1c-2d3e-4f5a-6b7c-8d9e0f1a2b3c

package cleanup

import (
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// tempPatterns match the intermediate files tagging can leave behind after
// a crash or interrupted run.
var tempPatterns = []string{
	"temp-*.m4b",
	"*_tagged.m4b",
	"ap-*.m4b",
	"*.tmp",
	"*.backup",
}

// Report summarizes what a cleanup run removed.
type Report struct {
	TempFiles int
	Strays    int
	EmptyDirs int
}

// IsTempFile reports whether the base name of path matches a known
// intermediate-file pattern.
func IsTempFile(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range tempPatterns {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

// Run sweeps the incoming directory: leftover intermediate files always go;
// with removeStrays set, every non-.m4b file goes too. Empty directories are
// pruned afterwards, deepest first, leaving the root itself in place.
func Run(incomingDir string, removeStrays bool) (Report, error) {
	var report Report

	var files []string
	var dirs []string
	err := filepath.WalkDir(incomingDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == incomingDir {
			return nil
		}
		if d.IsDir() {
			dirs = append(dirs, path)
		} else {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return report, err
	}

	for _, path := range files {
		switch {
		case IsTempFile(path):
			if removeFile(path) {
				report.TempFiles++
			}
		case removeStrays && !strings.EqualFold(filepath.Ext(path), ".m4b"):
			if removeFile(path) {
				report.Strays++
			}
		}
	}

	// Deepest directories first so emptied parents get a chance too.
	sort.Slice(dirs, func(i, j int) bool {
		return strings.Count(dirs[i], string(filepath.Separator)) > strings.Count(dirs[j], string(filepath.Separator))
	})
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			continue
		}
		if err := os.Remove(dir); err == nil {
			report.EmptyDirs++
		}
	}

	return report, nil
}

func removeFile(path string) bool {
	if err := os.Remove(path); err != nil {
		log.Printf("[WARN] cleanup: could not remove %s: %v", path, err)
		return false
	}
	log.Printf("[INFO] cleanup: removed %s", path)
	return true
}
