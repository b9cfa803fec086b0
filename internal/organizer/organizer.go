// file: internal/organizer/organizer.go
// version: 1.2.0
// guid: 5e6f7a8b-9c0d-1e2f-3a4b-5c6d7e8f9a0b

package organizer

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jdfalk/audible-tagger/internal/config"
	"github.com/jdfalk/audible-tagger/internal/fileops"
	"github.com/jdfalk/audible-tagger/internal/models"
	"golang.org/x/text/unicode/norm"
)

const audioExt = ".m4b"

// Organizer plans library destinations and moves tagged files into them.
type Organizer struct {
	config config.Config
}

// NewOrganizer creates a new organizer instance
func NewOrganizer(cfg config.Config) *Organizer {
	return &Organizer{config: cfg}
}

// CleanSegment makes a metadata value safe for use as a single path segment.
// Filesystem-reserved characters degrade to underscores, ill-formed Unicode
// is repaired best-effort, and leading/trailing spaces and dots are trimmed.
// A value that cleans away entirely becomes the literal "Unknown".
func CleanSegment(name string) string {
	if name == "" {
		return "Unknown"
	}

	var b strings.Builder
	for _, r := range name {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}

	cleaned := norm.NFC.String(strings.ToValidUTF8(b.String(), "_"))
	cleaned = strings.Trim(cleaned, " .")
	if cleaned == "" {
		return "Unknown"
	}
	return cleaned
}

// Plan derives the library destination for a book. The folder name always
// disambiguates by series and part (collision avoidance); the file name only
// carries that disambiguation when include_series_in_filename is on. The two
// are computed independently on purpose; callers must not assume they match.
func (o *Organizer) Plan(detail *models.BookDetail) models.LibraryDestination {
	author := detail.Author
	if author == "" {
		author = "Unknown Author"
	}
	title := detail.Title
	if title == "" {
		title = "Unknown Title"
	}

	authorClean := CleanSegment(author)
	titleClean := CleanSegment(title)

	seriesClean := ""
	if detail.HasSeries() {
		seriesClean = CleanSegment(detail.Series)
	}
	seriesPart := detail.SeriesPart

	// File name: bare title unless series disambiguation is configured in.
	fileName := titleClean + audioExt
	if o.config.IncludeSeriesInFilename && seriesClean != "" {
		if seriesPart != "" {
			fileName = fmt.Sprintf("%s (%s #%s)%s", titleClean, seriesClean, seriesPart, audioExt)
		} else {
			fileName = fmt.Sprintf("%s (%s)%s", titleClean, seriesClean, audioExt)
		}
	}

	if seriesClean == "" {
		// Standalone: library/Author/Title/Title.m4b
		return models.LibraryDestination{
			DirSegments: []string{authorClean, titleClean},
			FileName:    fileName,
		}
	}

	// Series: library/Author/Series/<folder>/<file>
	folderName := titleClean
	if o.config.IncludeSeriesInFilename {
		if seriesPart != "" {
			folderName = fmt.Sprintf("%s (%s #%s)", titleClean, seriesClean, seriesPart)
		} else {
			folderName = fmt.Sprintf("%s (%s)", titleClean, seriesClean)
		}
	}

	return models.LibraryDestination{
		DirSegments: []string{authorClean, seriesClean, folderName},
		FileName:    fileName,
	}
}

// DestinationDir resolves the destination directory under the library root.
func (o *Organizer) DestinationDir(dest models.LibraryDestination) string {
	parts := append([]string{o.config.LibraryDir}, dest.DirSegments...)
	return filepath.Join(parts...)
}

// Move relocates a tagged file into its planned destination and returns the
// final path.
func (o *Organizer) Move(srcPath string, dest models.LibraryDestination) (string, error) {
	destDir := o.DestinationDir(dest)
	destPath := filepath.Join(destDir, dest.FileName)

	if err := fileops.SafeMove(srcPath, destPath); err != nil {
		return "", fmt.Errorf("failed to move file to library: %w", err)
	}
	return destPath, nil
}
