// file: cmd/interactive.go
// version: 1.1.0
// guid: 7b8c9d0e-1f2a-3b4c-5d6e-7f8a9b0c1d2e

package cmd

import (
	"bufio"
	"fmt"
	"io"

	"github.com/jdfalk/audible-tagger/internal/config"
	"github.com/jdfalk/audible-tagger/internal/database"
	"github.com/jdfalk/audible-tagger/internal/models"
	"github.com/jdfalk/audible-tagger/internal/pipeline"
)

// runInteractive walks the user through every pending audiobook: search,
// show results, read a choice, act on it. Reads from in so tests can drive
// the loop.
func runInteractive(p *pipeline.Pipeline, store database.Store, in io.Reader, out io.Writer) error {
	if _, err := pipeline.RegisterIncoming(store, config.AppConfig.IncomingDir); err != nil {
		return fmt.Errorf("failed to scan incoming directory: %w", err)
	}

	pending, err := store.GetAllAudiobooks(database.StatusPending)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		fmt.Fprintln(out, "No pending audiobooks")
		return nil
	}

	reader := bufio.NewScanner(in)

	for _, book := range pending {
		fmt.Fprintf(out, "\n=== %s ===\n", book.FileName)

		sessionID, results, err := p.SearchForFile(book.FileID)
		if err != nil {
			fmt.Fprintf(out, "Search failed: %v\n", err)
			continue
		}

	selection:
		for {
			printResults(out, results)
			fmt.Fprint(out, "Select [number], (r)etry, (c <query>) custom search, (s)kip: ")

			if !reader.Scan() {
				return reader.Err()
			}

			choice := pipeline.ParseChoice(reader.Text(), len(results))
			switch choice.Action {
			case pipeline.ActionSelect:
				selectionID := pipeline.SelectionID(sessionID, choice.Index)
				processed, err := p.ProcessSelection(book.FileID, selectionID)
				if err != nil {
					fmt.Fprintf(out, "Processing failed: %v\n", err)
				} else {
					fmt.Fprintf(out, "Done: %s\n", processed.FinalPath)
				}
				break selection

			case pipeline.ActionRetry:
				sessionID, results, err = p.SearchForFile(book.FileID)
				if err != nil {
					fmt.Fprintf(out, "Search failed: %v\n", err)
					break selection
				}

			case pipeline.ActionCustomSearch:
				sessionID, results, err = p.CustomSearch(book.FileID, choice.Query)
				if err != nil {
					fmt.Fprintf(out, "Search failed: %v\n", err)
					break selection
				}

			case pipeline.ActionSkip:
				if err := p.Skip(book.FileID); err != nil {
					fmt.Fprintf(out, "Skip failed: %v\n", err)
				} else {
					fmt.Fprintln(out, "Skipped")
				}
				break selection

			default:
				fmt.Fprintln(out, "Unrecognized input")
			}
		}
	}

	return nil
}

func printResults(out io.Writer, results []models.SearchResult) {
	if len(results) == 0 {
		fmt.Fprintln(out, "No results")
		return
	}
	for i, r := range results {
		line := fmt.Sprintf("%d. %s by %s", i+1, r.Title, r.Author)
		if r.Narrator != "" {
			line += fmt.Sprintf(", read by %s", r.Narrator)
		}
		if r.Series != "" {
			line += fmt.Sprintf(" [%s]", r.Series)
		}
		line += fmt.Sprintf(" (%s, audible.%s)", r.ASIN, r.Locale)
		fmt.Fprintln(out, line)
	}
}
