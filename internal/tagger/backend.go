// file: internal/tagger/backend.go
// version: 1.0.0
// guid: 6c7d8e9f-0a1b-2c3d-4e5f-6a7b8c9d0e1f

package tagger

import (
	"fmt"

	"github.com/jdfalk/audible-tagger/internal/config"
	"github.com/jdfalk/audible-tagger/internal/models"
)

// Backend physically writes a tag set into an audio container. Backends must
// apply every key they recognize, skip (and log) individual keys they cannot
// handle, and leave the original file untouched when the whole apply fails.
type Backend interface {
	// Name returns the display name for this backend.
	Name() string

	// Apply writes tags and optional cover art into the file at path.
	Apply(path string, tags *models.TagSet, cover []byte) error
}

// NewBackend returns the configured tag-writing backend.
func NewBackend(cfg config.Config) (Backend, error) {
	switch cfg.TagBackend {
	case "", "taglib":
		return NewTagLibBackend(), nil
	case "ffmpeg":
		return NewFFmpegBackend(""), nil
	default:
		return nil, fmt.Errorf("unknown tag backend: %s", cfg.TagBackend)
	}
}
