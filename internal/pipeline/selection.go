// file: internal/pipeline/selection.go
// version: 1.0.0
// guid: 4b5c6d7e-8f9a-0b1c-2d3e-4f5a6b7c8d9e

package pipeline

import (
	"strconv"
	"strings"
)

// Action is what an interactive user asked to do with a result list.
type Action int

const (
	// ActionSelect picks one of the displayed results.
	ActionSelect Action = iota
	// ActionRetry re-runs the search with the same query.
	ActionRetry
	// ActionCustomSearch re-runs the search with a user-supplied query.
	ActionCustomSearch
	// ActionSkip leaves the file untouched and moves on.
	ActionSkip
	// ActionInvalid means the input could not be understood.
	ActionInvalid
)

// Choice is a parsed interactive answer. Index is set for ActionSelect,
// Query for ActionCustomSearch.
type Choice struct {
	Action Action
	Index  int
	Query  string
}

// ParseChoice interprets a line of interactive input against a result list
// of resultCount entries. Accepted forms: a 1-based result number, "r"
// (retry), "s" (skip), or "c <query>" (custom search).
func ParseChoice(input string, resultCount int) Choice {
	input = strings.TrimSpace(input)
	if input == "" {
		return Choice{Action: ActionInvalid}
	}

	switch strings.ToLower(input) {
	case "r":
		return Choice{Action: ActionRetry}
	case "s":
		return Choice{Action: ActionSkip}
	}

	if len(input) > 2 && (input[0] == 'c' || input[0] == 'C') && input[1] == ' ' {
		query := strings.TrimSpace(input[2:])
		if query == "" {
			return Choice{Action: ActionInvalid}
		}
		return Choice{Action: ActionCustomSearch, Query: query}
	}

	n, err := strconv.Atoi(input)
	if err != nil || n < 1 || n > resultCount {
		return Choice{Action: ActionInvalid}
	}
	return Choice{Action: ActionSelect, Index: n - 1}
}
