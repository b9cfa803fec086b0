// file: internal/metadata/htmlclean_test.go
// version: 1.0.0
// guid: 1a2b3c4d-5e6f-7a8b-9c0d-1e2f3a4b5c6d

package metadata

import "testing"

func TestCleanHTMLText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"empty",
			"",
			"",
		},
		{
			"plain text untouched",
			"No markup here.",
			"No markup here.",
		},
		{
			"paragraphs become breaks",
			"<p>First paragraph.</p><p>Second paragraph.</p>",
			"First paragraph.\n\nSecond paragraph.",
		},
		{
			"br splits",
			"Line one<br/>Line two",
			"Line one\n\nLine two",
		},
		{
			"inline tags stripped silently",
			"An <i>italic</i> and <b>bold</b> word.",
			"An italic and bold word.",
		},
		{
			"entities decoded",
			"<p>Tom &amp; Jerry &mdash; friends</p>",
			"Tom & Jerry — friends",
		},
		{
			"empty paragraphs dropped",
			"<p>Real content</p><p>  </p><p></p><p>More</p>",
			"Real content\n\nMore",
		},
		{
			"list items",
			"<ul><li>one</li><li>two</li></ul>",
			"one\n\ntwo",
		},
	}
	for _, tt := range tests {
		if got := CleanHTMLText(tt.in); got != tt.want {
			t.Errorf("%s: CleanHTMLText(%q) = %q, want %q", tt.name, tt.in, got, tt.want)
		}
	}
}
