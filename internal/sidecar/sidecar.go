// file: internal/sidecar/sidecar.go
// version: 1.1.0
// guid: 2e3f4a5b-6c7d-8e9f-0a1b-2c3d4e5f6a7b

package sidecar

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/jdfalk/audible-tagger/internal/fileops"
	"github.com/jdfalk/audible-tagger/internal/models"
)

// Writer emits companion metadata files (OPF manifest, desc.txt, reader.txt,
// cover.jpg) next to an organized audiobook so external library managers can
// read them without touching the container tags.
type Writer struct {
	enabled bool
}

// NewWriter creates a sidecar writer. When enabled is false every call is a
// no-op, mirroring the create_additional_metadata switch.
func NewWriter(enabled bool) *Writer {
	return &Writer{enabled: enabled}
}

// Write emits all companion files for a book into destDir. baseName is the
// organized file name without extension (the OPF shares it); coverPath may
// be empty. Individual file failures are logged and skipped, never fatal.
func (w *Writer) Write(destDir string, detail *models.BookDetail, baseName string, coverPath string) error {
	if !w.enabled {
		return nil
	}

	if detail.Description != "" {
		if err := os.WriteFile(filepath.Join(destDir, "desc.txt"), []byte(detail.Description), 0644); err != nil {
			log.Printf("[WARN] could not write desc.txt: %v", err)
		}
	}

	if detail.Narrator != "" {
		if err := os.WriteFile(filepath.Join(destDir, "reader.txt"), []byte(detail.Narrator), 0644); err != nil {
			log.Printf("[WARN] could not write reader.txt: %v", err)
		}
	}

	if baseName == "" {
		baseName = detail.ASIN
		if baseName == "" {
			baseName = "book"
		}
	}
	opf := BuildOPF(detail)
	if err := os.WriteFile(filepath.Join(destDir, baseName+".opf"), []byte(opf), 0644); err != nil {
		return fmt.Errorf("failed to write OPF file: %w", err)
	}

	if coverPath != "" {
		if _, err := os.Stat(coverPath); err == nil {
			if err := fileops.SafeCopy(coverPath, filepath.Join(destDir, "cover.jpg")); err != nil {
				log.Printf("[WARN] could not copy cover to book folder: %v", err)
			}
		}
	}

	return nil
}

// BuildOPF renders the Open Packaging Format document for a book. Identifier
// and title always carry values (with fallbacks); publisher, description,
// subject, and date elements are always present even when empty, matching
// what downstream library managers expect; narrator and series entries are
// emitted only when known.
func BuildOPF(detail *models.BookDetail) string {
	title := detail.Title
	if title == "" {
		title = "Unknown Title"
	}
	author := detail.Author
	if author == "" {
		author = "Unknown Author"
	}
	identifier := detail.ASIN
	if identifier == "" {
		identifier = "unknown"
	}
	language := detail.Language
	if language == "" {
		language = "en"
	}

	genres := ""
	for i, g := range detail.Genres {
		if i > 0 {
			genres += ", "
		}
		genres += g
	}

	var b bytes.Buffer
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="BookId">` + "\n")
	b.WriteString(`    <metadata xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:opf="http://www.idpf.org/2007/opf">` + "\n")
	fmt.Fprintf(&b, "        <dc:identifier id=\"BookId\">%s</dc:identifier>\n", escape(identifier))
	fmt.Fprintf(&b, "        <dc:title>%s</dc:title>\n", escape(title))
	fmt.Fprintf(&b, "        <dc:creator>%s</dc:creator>\n", escape(author))
	fmt.Fprintf(&b, "        <dc:publisher>%s</dc:publisher>\n", escape(detail.PublisherName))
	fmt.Fprintf(&b, "        <dc:language>%s</dc:language>\n", escape(language))
	fmt.Fprintf(&b, "        <dc:description>%s</dc:description>\n", escape(detail.Description))
	fmt.Fprintf(&b, "        <dc:subject>%s</dc:subject>\n", escape(genres))
	fmt.Fprintf(&b, "        <dc:date>%s</dc:date>\n", escape(detail.Year()))
	fmt.Fprintf(&b, "        <dc:identifier opf:scheme=\"ASIN\">%s</dc:identifier>\n", escape(detail.ASIN))
	if detail.ISBN != "" {
		fmt.Fprintf(&b, "        <dc:identifier opf:scheme=\"ISBN\">%s</dc:identifier>\n", escape(detail.ISBN))
	}
	if detail.Narrator != "" {
		fmt.Fprintf(&b, "        <dc:contributor role=\"nrt\">%s</dc:contributor>\n", escape(detail.Narrator))
	}
	if detail.HasSeries() {
		fmt.Fprintf(&b, "        <dc:subject opf:authority=\"series\">%s</dc:subject>\n", escape(detail.Series))
		if detail.SeriesPart != "" {
			fmt.Fprintf(&b, "        <meta property=\"series-part\">%s</meta>\n", escape(detail.SeriesPart))
		}
	}
	b.WriteString("    </metadata>\n")
	b.WriteString("<manifest>\n")
	b.WriteString(`    <item id="cover" href="cover.jpg" media-type="image/jpeg"/>` + "\n")
	b.WriteString("</manifest>\n")
	b.WriteString("<spine>\n")
	b.WriteString(`    <itemref idref="cover"/>` + "\n")
	b.WriteString("</spine>\n")
	b.WriteString("</package>")

	return b.String()
}

func escape(s string) string {
	var b bytes.Buffer
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return ""
	}
	return b.String()
}
