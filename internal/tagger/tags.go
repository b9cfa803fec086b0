// file: internal/tagger/tags.go
// version: 1.3.0
// guid: 3b4c5d6e-7f8a-9b0c-1d2e-3f4a5b6c7d8e

package tagger

import (
	"fmt"
	"strings"

	"github.com/jdfalk/audible-tagger/internal/config"
	"github.com/jdfalk/audible-tagger/internal/models"
)

// Options is the subset of configuration the tag mapping engine consumes.
type Options struct {
	PreferredLocale      string
	AddNarratorToArtist  bool
	AddSingleAlbumArtist bool
	AddSingleGenreOnly   bool
	GenreDelimiter       string
}

// OptionsFromConfig extracts tag mapping options from the app configuration.
func OptionsFromConfig(cfg config.Config) Options {
	delim := cfg.GenreDelimiter
	if delim == "" {
		delim = "/"
	}
	return Options{
		PreferredLocale:      cfg.PreferredLocale,
		AddNarratorToArtist:  cfg.AddNarratorToArtist,
		AddSingleAlbumArtist: cfg.AddSingleAlbumArtist,
		AddSingleGenreOnly:   cfg.AddSingleGenreOnly,
		GenreDelimiter:       delim,
	}
}

// BuildTags transforms a BookDetail into the complete container tag set.
// It is pure and total: any detail record, however sparse, yields a valid
// set containing at least the basic group, the iTunes flags, and the
// explicit flag. Groups merge left to right; later groups may overwrite
// earlier keys, and that ordering is part of the Mp3tag convention this
// engine reproduces.
func BuildTags(detail *models.BookDetail, opts Options) *models.TagSet {
	tags := models.NewTagSet()

	tags.Merge(buildBasicTags(detail))
	tags.Merge(buildCustomTags(detail))
	tags.Merge(buildAuthorTags(detail, opts))
	tags.Merge(buildNarratorTags(detail))
	tags.Merge(buildSeriesTags(detail))
	tags.Merge(buildDescriptionTags(detail))
	tags.Merge(buildGenreTags(detail, opts))
	tags.Merge(buildRatingTags(detail))
	tags.Merge(buildAdultContentTags(detail))
	tags.Merge(buildITunesTags())
	tags.Merge(buildAudibleTags(detail, opts))
	tags.Merge(buildAlbumSortTag(detail))
	tags.Merge(buildCompatibilityTags(detail))
	applyNarratorToArtist(tags, detail, opts)

	return tags
}

func buildBasicTags(detail *models.BookDetail) *models.TagSet {
	tags := models.NewTagSet()

	if detail.Title != "" {
		tags.Set(KeyTitle, detail.Title)
		tags.Set(KeyAlbum, detail.Title)
	}
	if year := detail.Year(); year != "" {
		tags.Set(KeyYear, year)
	}
	if detail.Copyright != "" {
		tags.Set(KeyCopyright, detail.Copyright)
	}

	return tags
}

func buildCustomTags(detail *models.BookDetail) *models.TagSet {
	tags := models.NewTagSet()

	if detail.ASIN != "" {
		tags.Set(KeyASIN, detail.ASIN)
	}
	if detail.Language != "" {
		tags.Set(KeyLanguage, detail.Language)
	}
	if detail.FormatType != "" {
		tags.Set(KeyFormat, detail.FormatType)
	}
	if detail.Subtitle != "" {
		tags.Set(KeySubtitle, detail.Subtitle)
	}
	if detail.ReleaseTimeShort != "" {
		tags.Set(KeyReleaseTime, detail.ReleaseTimeShort)
	}

	return tags
}

// buildAuthorTags carries the most intricate rules of the convention. When
// multiple authors exist under the single-album-artist policy, ARTIST holds
// all authors, ALBUMARTIST only the first, and ALBUMARTISTS all authors;
// then a final pass overwrites ARTIST with ALBUMARTISTS again. The double
// write is intentional fidelity to the Mp3tag Audible source; downstream
// library tools depend on the final-write-wins order.
func buildAuthorTags(detail *models.BookDetail, opts Options) *models.TagSet {
	tags := models.NewTagSet()

	names := make([]string, 0, len(detail.Authors))
	for _, n := range detail.Authors {
		n = strings.TrimSpace(n)
		if n != "" {
			names = append(names, n)
		}
	}

	switch {
	case len(names) > 0:
		if len(names) > 1 && opts.AddSingleAlbumArtist {
			joined := strings.Join(names, ", ")
			tags.Set(KeyArtist, joined)
			tags.Set(KeyAlbumArt, names[0])
			tags.Set(KeyAlbumArtists, joined)
		} else {
			joined := strings.Join(names, ", ")
			tags.Set(KeyArtist, joined)
			tags.Set(KeyAlbumArt, joined)
		}
	case detail.Author != "":
		tags.Set(KeyArtist, detail.Author)
		tags.Set(KeyAlbumArt, detail.Author)
	}

	if opts.AddSingleAlbumArtist {
		if v, ok := tags.Get(KeyAlbumArtists); ok {
			tags.Set(KeyArtist, v)
			return tags
		}
	}
	if v, ok := tags.Get(KeyAlbumArt); ok {
		tags.Set(KeyArtist, v)
	}

	return tags
}

func buildNarratorTags(detail *models.BookDetail) *models.TagSet {
	tags := models.NewTagSet()

	names := make([]string, 0, len(detail.Narrators))
	for _, n := range detail.Narrators {
		n = strings.TrimSpace(n)
		if n != "" {
			names = append(names, n)
		}
	}

	if len(names) > 0 {
		tags.Set(KeyComposer, strings.Join(names, ", "))
	} else if detail.Narrator != "" {
		tags.Set(KeyComposer, detail.Narrator)
	}

	return tags
}

func buildSeriesTags(detail *models.BookDetail) *models.TagSet {
	tags := models.NewTagSet()

	if detail.HasSeries() {
		tags.Set(KeyShowMovement, "1")
		tags.Set(KeySeries, detail.Series)
		if detail.SeriesPart != "" {
			tags.Set(KeySeriesPart, detail.SeriesPart)
		}
	}

	return tags
}

// The description is written to three comment-like keys simultaneously so
// every known reader finds it somewhere.
func buildDescriptionTags(detail *models.BookDetail) *models.TagSet {
	tags := models.NewTagSet()

	if detail.Description != "" {
		tags.Set(KeyComment, detail.Description)
		tags.Set(KeyDescAlt, detail.Description)
		tags.Set(KeyDescAlt2, detail.Description)
	}

	return tags
}

func buildGenreTags(detail *models.BookDetail, opts Options) *models.TagSet {
	tags := models.NewTagSet()

	if len(detail.Genres) > 0 {
		if opts.AddSingleGenreOnly && len(detail.Genres) > 1 {
			tags.Set(KeyGenre, detail.Genres[0])
		} else {
			tags.Set(KeyGenre, strings.Join(detail.Genres, opts.GenreDelimiter))
		}
	}

	return tags
}

func buildRatingTags(detail *models.BookDetail) *models.TagSet {
	tags := models.NewTagSet()

	if detail.Rating != "" {
		tags.Set(KeyRating, detail.Rating)
		tags.Set(KeyRatingWMP, detail.Rating)
	}

	return tags
}

// The explicit flag is always emitted, unlike most optional tags.
func buildAdultContentTags(detail *models.BookDetail) *models.TagSet {
	tags := models.NewTagSet()

	if detail.IsAdultProduct {
		tags.Set(KeyExplicit, "1")
	} else {
		tags.Set(KeyExplicit, "0")
	}

	return tags
}

func buildITunesTags() *models.TagSet {
	tags := models.NewTagSet()

	tags.Set(KeyGapless, "True")
	tags.Set(KeyStick, "2") // audiobook media kind

	return tags
}

func buildAudibleTags(detail *models.BookDetail, opts Options) *models.TagSet {
	tags := models.NewTagSet()

	if detail.ASIN != "" {
		locale := opts.PreferredLocale
		if locale == "" {
			locale = "com"
		}
		tags.Set(KeyWWWAudioFile, fmt.Sprintf("https://www.audible.%s/pd/%s", locale, detail.ASIN))
		tags.Set(KeyASIN, detail.ASIN)
		tags.Set(KeyAudibleASIN, detail.ASIN)
		tags.Set(KeySimpleASIN, detail.ASIN)
		tags.Set(KeyCDEKASIN, detail.ASIN)
	}

	return tags
}

// Album-sort priority: series+part, series alone, title+subtitle, bare title.
func buildAlbumSortTag(detail *models.BookDetail) *models.TagSet {
	tags := models.NewTagSet()

	var albumSort string
	switch {
	case detail.HasSeries() && detail.SeriesPart != "":
		albumSort = fmt.Sprintf("%s %s - %s", detail.Series, detail.SeriesPart, detail.Title)
	case detail.HasSeries():
		albumSort = fmt.Sprintf("%s - %s", detail.Series, detail.Title)
	case detail.Subtitle != "":
		albumSort = fmt.Sprintf("%s - %s", detail.Title, detail.Subtitle)
	default:
		albumSort = detail.Title
	}

	if albumSort != "" {
		tags.Set(KeyAlbumSort, albumSort)
	}

	return tags
}

func buildCompatibilityTags(detail *models.BookDetail) *models.TagSet {
	tags := models.NewTagSet()

	if detail.PublisherName != "" {
		tags.Set(KeyPublisherAlt, detail.PublisherName)
	}
	if detail.Narrator != "" {
		tags.Set(KeyNarratorAlt, detail.Narrator)
	}
	if detail.HasSeries() {
		tags.Set(KeySeriesAlt, detail.Series)
		if detail.SeriesPart != "" {
			tags.Set(KeyGroup, fmt.Sprintf("%s, Book #%s", detail.Series, detail.SeriesPart))
		} else {
			tags.Set(KeyGroup, detail.Series)
		}
	}

	return tags
}

// applyNarratorToArtist appends the narrator to whatever ARTIST currently
// holds. It must run after every author group write, including the final
// ARTIST overwrite, which is why it reads from the merged set instead of
// recomputing the author join.
func applyNarratorToArtist(tags *models.TagSet, detail *models.BookDetail, opts Options) {
	if !opts.AddNarratorToArtist || detail.Narrator == "" {
		return
	}
	if current, ok := tags.Get(KeyArtist); ok && current != "" {
		tags.Set(KeyArtist, current+", "+detail.Narrator)
	} else {
		tags.Set(KeyArtist, detail.Narrator)
	}
}
