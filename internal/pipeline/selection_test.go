// file: internal/pipeline/selection_test.go
// version: 1.0.0
// guid: 7e8f9a0b-1c2d-3e4f-5a6b-7c8d9e0f1a2b

package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseChoiceSelect(t *testing.T) {
	choice := ParseChoice("3", 5)
	assert.Equal(t, ActionSelect, choice.Action)
	assert.Equal(t, 2, choice.Index)

	choice = ParseChoice(" 1 ", 5)
	assert.Equal(t, ActionSelect, choice.Action)
	assert.Equal(t, 0, choice.Index)
}

func TestParseChoiceSelectOutOfRange(t *testing.T) {
	assert.Equal(t, ActionInvalid, ParseChoice("0", 5).Action)
	assert.Equal(t, ActionInvalid, ParseChoice("6", 5).Action)
	assert.Equal(t, ActionInvalid, ParseChoice("1", 0).Action)
}

func TestParseChoiceRetryAndSkip(t *testing.T) {
	assert.Equal(t, ActionRetry, ParseChoice("r", 5).Action)
	assert.Equal(t, ActionRetry, ParseChoice("R", 5).Action)
	assert.Equal(t, ActionSkip, ParseChoice("s", 5).Action)
	assert.Equal(t, ActionSkip, ParseChoice("S", 5).Action)
}

func TestParseChoiceCustomSearch(t *testing.T) {
	choice := ParseChoice("c project hail mary", 5)
	assert.Equal(t, ActionCustomSearch, choice.Action)
	assert.Equal(t, "project hail mary", choice.Query)

	choice = ParseChoice("C The Martian", 5)
	assert.Equal(t, ActionCustomSearch, choice.Action)
	assert.Equal(t, "The Martian", choice.Query)
}

func TestParseChoiceInvalid(t *testing.T) {
	for _, input := range []string{"", "   ", "x", "c ", "c", "one", "-1"} {
		assert.Equal(t, ActionInvalid, ParseChoice(input, 5).Action, "input %q", input)
	}
}
