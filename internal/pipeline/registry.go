// file: internal/pipeline/registry.go
// version: 1.1.0
// guid: 1e2f3a4b-5c6d-7e8f-9a0b-1c2d3e4f5a6b

package pipeline

import (
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/jdfalk/audible-tagger/internal/database"
)

// FileID derives the stable short identifier for a file from its path
// relative to the incoming directory. The same relative path always maps to
// the same ID, so re-scans never duplicate registry rows.
func FileID(relPath string) string {
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(relPath)).String()[:8]
}

// FindAudiobooks walks incomingDir and returns the paths of all .m4b files,
// sorted by the walk order (lexical within each directory).
func FindAudiobooks(incomingDir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(incomingDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".m4b") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// RegisterIncoming scans incomingDir and registers every audiobook found
// with the store. Already-known paths are left untouched. Returns the file
// IDs of everything currently in the incoming directory.
func RegisterIncoming(store database.Store, incomingDir string) ([]string, error) {
	paths, err := FindAudiobooks(incomingDir)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(paths))
	for _, path := range paths {
		rel, err := filepath.Rel(incomingDir, path)
		if err != nil {
			rel = filepath.Base(path)
		}
		id := FileID(rel)

		info, err := os.Stat(path)
		if err != nil {
			log.Printf("[WARN] could not stat %s: %v", path, err)
			continue
		}

		if err := store.AddAudiobook(path, id, info.Size()); err != nil {
			log.Printf("[ERROR] could not register %s: %v", path, err)
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
