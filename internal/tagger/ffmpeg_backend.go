// file: internal/tagger/ffmpeg_backend.go
// version: 1.1.0
// guid: 9d0e1f2a-3b4c-5d6e-7f8a-9b0c1d2e3f4b

package tagger

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jdfalk/audible-tagger/internal/fileops"
	"github.com/jdfalk/audible-tagger/internal/metrics"
	"github.com/jdfalk/audible-tagger/internal/models"
)

// atom keys mapped to ffmpeg mov-muxer metadata names. Freeform iTunes keys
// pass through under their bare suffix; the muxer stores them as custom
// metadata when use_metadata_tags is set.
var ffmpegMetadataNames = map[string]string{
	KeyTitle:        "title",
	KeyAlbum:        "album",
	KeyYear:         "date",
	KeyArtist:       "artist",
	KeyAlbumArt:     "album_artist",
	KeyComposer:     "composer",
	KeyComment:      "comment",
	KeyCopyright:    "copyright",
	KeyGenre:        "genre",
	KeyAlbumSort:    "sort_album",
	KeyShowMovement: "show_movement",
	KeyGapless:      "gapless_playback",
	KeyStick:        "media_type",
	KeySimpleASIN:   "asin",
	KeyCDEKASIN:     "CDEK",
	KeyDescAlt:      "description",
	KeyDescAlt2:     "description",
	KeyPublisherAlt: "publisher",
	KeyNarratorAlt:  "narrator",
	KeySeriesAlt:    "movement_name",
	KeyGroup:        "grouping",
}

// FFmpegBackend writes tags by remuxing through an external ffmpeg binary
// (stream copy, no re-encode). The remux lands in a temporary sibling file
// that replaces the original only after ffmpeg exits cleanly, so a failed
// invocation leaves the original untouched.
type FFmpegBackend struct {
	ffmpegPath string
}

// NewFFmpegBackend creates the ffmpeg-based tag writer. ffmpegPath may be
// empty to resolve "ffmpeg" from PATH.
func NewFFmpegBackend(ffmpegPath string) *FFmpegBackend {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &FFmpegBackend{ffmpegPath: ffmpegPath}
}

// Name returns the display name for this backend.
func (b *FFmpegBackend) Name() string {
	return "ffmpeg"
}

// Apply writes the tag set and optional cover into the container at path.
func (b *FFmpegBackend) Apply(path string, tags *models.TagSet, cover []byte) error {
	dir := filepath.Dir(path)
	tmpOut := filepath.Join(dir, "temp-"+filepath.Base(path))
	defer os.Remove(tmpOut)

	args := []string{"-y", "-i", path}

	coverFile := ""
	if len(cover) > 0 {
		f, err := os.CreateTemp(dir, "cover-*.jpg")
		if err == nil {
			if _, werr := f.Write(cover); werr == nil {
				coverFile = f.Name()
			}
			f.Close()
		}
		if coverFile == "" {
			log.Printf("[WARN] could not stage cover art for ffmpeg, continuing without it")
		} else {
			defer os.Remove(coverFile)
			args = append(args, "-i", coverFile)
		}
	}

	if coverFile != "" {
		args = append(args, "-map", "0", "-map", "1", "-c", "copy", "-disposition:v:1", "attached_pic")
	} else {
		args = append(args, "-map", "0", "-c", "copy")
	}
	args = append(args, "-movflags", "use_metadata_tags")

	for _, key := range tags.Keys() {
		value, _ := tags.Get(key)

		name, ok := b.metadataName(key)
		if !ok {
			log.Printf("[WARN] ffmpeg backend skipping unrecognized tag key %q", key)
			metrics.TagKeysSkipped.WithLabelValues(b.Name()).Inc()
			continue
		}
		if IntegerKeys[key] {
			if _, err := strconv.Atoi(value); err != nil {
				log.Printf("[WARN] ffmpeg backend skipping non-integer value %q for key %q", value, key)
				metrics.TagKeysSkipped.WithLabelValues(b.Name()).Inc()
				continue
			}
		}
		args = append(args, "-metadata", name+"="+value)
	}

	args = append(args, "-f", "mp4", tmpOut)

	cmd := exec.Command(b.ffmpegPath, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg tagging failed: %w: %s", err, lastLine(out))
	}

	if err := fileops.SafeReplace(path, tmpOut); err != nil {
		return fmt.Errorf("failed to swap tagged file into place: %w", err)
	}
	return nil
}

func (b *FFmpegBackend) metadataName(key string) (string, bool) {
	if name, ok := ffmpegMetadataNames[key]; ok {
		return name, true
	}
	if strings.HasPrefix(key, freeformPrefix) {
		name := strings.TrimPrefix(key, freeformPrefix)
		if strings.ContainsAny(name, "=\n") {
			return "", false
		}
		return strings.ReplaceAll(name, " ", "_"), true
	}
	return "", false
}

func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}
