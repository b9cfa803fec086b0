// file: internal/tagger/taglib_backend.go
// version: 1.2.0
// guid: 0c1d2e3f-4a5b-6c7d-8e9f-0a1b2c3d4e5f

package tagger

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/jdfalk/audible-tagger/internal/fileops"
	"github.com/jdfalk/audible-tagger/internal/metrics"
	"github.com/jdfalk/audible-tagger/internal/models"
	taglib "go.senan.xyz/taglib"
)

// atom keys mapped to TagLib property names. Freeform iTunes keys pass
// through under their bare suffix; anything absent from this map and not
// freeform is skipped by the backend.
var taglibProperties = map[string]string{
	KeyTitle:        taglib.Title,
	KeyAlbum:        taglib.Album,
	KeyYear:         taglib.Date,
	KeyArtist:       taglib.Artist,
	KeyAlbumArt:     taglib.AlbumArtist,
	KeyComposer:     taglib.Composer,
	KeyComment:      taglib.Comment,
	KeyCopyright:    "COPYRIGHT",
	KeyGenre:        taglib.Genre,
	KeyAlbumSort:    "ALBUMSORT",
	KeyShowMovement: "SHOWWORKMOVEMENT",
	KeyGapless:      "GAPLESSPLAYBACK",
	KeyStick:        "MEDIATYPE",
	KeySimpleASIN:   "ASIN",
	KeyCDEKASIN:     "CDEK",
	KeyDescAlt:      "DESCRIPTION",
	KeyDescAlt2:     "DESCRIPTION",
	KeyPublisherAlt: "PUBLISHER",
	KeyNarratorAlt:  "NARRATOR",
	KeySeriesAlt:    "MOVEMENTNAME",
	KeyGroup:        "GROUPING",
}

const freeformPrefix = "----:com.apple.iTunes:"

// TagLibBackend writes tags through the TagLib property API (in-process,
// no external tools). The original file is backed up before the write and
// restored if TagLib fails.
type TagLibBackend struct{}

// NewTagLibBackend creates the TagLib-based tag writer.
func NewTagLibBackend() *TagLibBackend {
	return &TagLibBackend{}
}

// Name returns the display name for this backend.
func (b *TagLibBackend) Name() string {
	return "taglib"
}

// Apply writes the tag set and optional cover into the container at path.
func (b *TagLibBackend) Apply(path string, tags *models.TagSet, cover []byte) error {
	properties := make(map[string][]string)

	for _, key := range tags.Keys() {
		value, _ := tags.Get(key)

		name, ok := b.propertyName(key)
		if !ok {
			log.Printf("[WARN] taglib backend skipping unrecognized tag key %q", key)
			metrics.TagKeysSkipped.WithLabelValues(b.Name()).Inc()
			continue
		}

		if IntegerKeys[key] {
			if _, err := strconv.Atoi(value); err != nil {
				log.Printf("[WARN] taglib backend skipping non-integer value %q for key %q", value, key)
				metrics.TagKeysSkipped.WithLabelValues(b.Name()).Inc()
				continue
			}
		}

		properties[name] = []string{value}
	}

	if len(properties) == 0 {
		return fmt.Errorf("no writable tags supplied")
	}

	backupPath := path + ".backup"
	if err := fileops.SafeCopy(path, backupPath); err != nil {
		return fmt.Errorf("taglib backup failed: %w", err)
	}
	defer os.Remove(backupPath)

	if err := taglib.WriteTags(path, properties, 0); err != nil {
		if restoreErr := fileops.SafeCopy(backupPath, path); restoreErr != nil {
			return fmt.Errorf("taglib write failed and restore failed: write=%w restore=%v", err, restoreErr)
		}
		return fmt.Errorf("taglib write failed (restored): %w", err)
	}

	if len(cover) > 0 {
		if err := taglib.WriteImage(path, cover); err != nil {
			// Tags are already in place; a cover failure is not fatal.
			log.Printf("[WARN] could not embed cover art: %v", err)
		}
	}

	return nil
}

func (b *TagLibBackend) propertyName(key string) (string, bool) {
	if name, ok := taglibProperties[key]; ok {
		return name, true
	}
	if strings.HasPrefix(key, freeformPrefix) {
		name := strings.TrimPrefix(key, freeformPrefix)
		// Property names with spaces confuse some readers; normalize.
		return strings.ReplaceAll(name, " ", "_"), true
	}
	return "", false
}
