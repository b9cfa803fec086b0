// file: internal/models/book.go
// version: 1.0.0
// guid: 3f8a1b2c-4d5e-6f70-8192-a3b4c5d6e7f8

package models

// SearchResult is a single Audible catalog search hit, shown to the user
// (or an automated selector) before detail lookup. It lives only for the
// duration of a search session.
type SearchResult struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	Narrator string `json:"narrator"`
	Series   string `json:"series"`
	ASIN     string `json:"asin"`
	Locale   string `json:"locale"`
}

// BookDetail is the canonical catalog record flowing through tagging and
// library organization. Optional fields are empty strings or nil slices;
// consumers must treat absence as "omit", never as an error.
type BookDetail struct {
	ASIN     string `json:"asin"`
	ISBN     string `json:"isbn,omitempty"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`

	// Author is the display string derived from Authors via the configured
	// author policy. Always non-empty ("Unknown Author" fallback).
	Author    string   `json:"author"`
	Authors   []string `json:"authors,omitempty"`
	Narrator  string   `json:"narrator,omitempty"`
	Narrators []string `json:"narrators,omitempty"`

	Series     string `json:"series,omitempty"`
	SeriesPart string `json:"series_part,omitempty"`

	Description    string   `json:"description,omitempty"`
	Genres         []string `json:"genres,omitempty"`
	Rating         string   `json:"rating,omitempty"`
	IsAdultProduct bool     `json:"is_adult_product"`

	// ReleaseDate is the full ISO-8601 publication datetime as returned by
	// the catalog. ReleaseTimeShort is its YYYY-MM-DD prefix, derived only
	// when ReleaseDate is present.
	ReleaseDate      string `json:"release_date,omitempty"`
	ReleaseTimeShort string `json:"release_time,omitempty"`

	Language      string `json:"language,omitempty"`
	FormatType    string `json:"format_type,omitempty"`
	PublisherName string `json:"publisher_name,omitempty"`
	Copyright     string `json:"copyright,omitempty"`

	RuntimeMinutes string `json:"runtime_length_min,omitempty"`
	CoverURL       string `json:"cover_url,omitempty"`
}

// Year returns the four-digit publication year derived from ReleaseDate,
// or "" when no release date is known.
func (d *BookDetail) Year() string {
	if len(d.ReleaseDate) >= 4 {
		return d.ReleaseDate[:4]
	}
	return ""
}

// HasSeries reports whether the record carries usable series information.
// A series part without a series name is meaningless and ignored downstream.
func (d *BookDetail) HasSeries() bool {
	return d.Series != ""
}

// LibraryDestination is the planned location of an organized audiobook.
// DirSegments are the path components below the library root, in order.
// It is built once per book and never mutated.
type LibraryDestination struct {
	DirSegments []string
	FileName    string
}
