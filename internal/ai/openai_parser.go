// file: internal/ai/openai_parser.go
// version: 2.0.0
// guid: 9a0b1c2d-3e4f-5a6b-7c8d-9e0f1a2b3c4d

package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"
)

// ParsedFilename is the structured metadata the model extracts from an
// audiobook filename. SeriesPart stays a string because catalog sequences
// can be "1.5" or "Book 2 of 3".
type ParsedFilename struct {
	Title      string `json:"title"`
	Author     string `json:"author"`
	Series     string `json:"series,omitempty"`
	SeriesPart string `json:"series_part,omitempty"`
	Confidence string `json:"confidence"` // high, medium, low
}

// Usable reports whether the parse carries enough signal to build a catalog
// search query from. Low-confidence parses are treated as misses.
func (p *ParsedFilename) Usable() bool {
	return p != nil && p.Title != "" && p.Confidence != "low"
}

// OpenAIParser extracts title and author from filenames the regex patterns
// cannot handle, using an OpenAI chat model constrained to JSON output.
type OpenAIParser struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	enabled bool
}

// NewOpenAIParser creates a parser. With an empty API key or enabled=false
// the parser is inert and ParseFilename always errors.
func NewOpenAIParser(apiKey string, enabled bool) *OpenAIParser {
	return newParser(enabled, apiKey)
}

// NewOpenAIParserWithBaseURL creates a parser against a fixed endpoint (for
// testing).
func NewOpenAIParserWithBaseURL(apiKey, baseURL string) *OpenAIParser {
	return newParser(true, apiKey, option.WithBaseURL(baseURL))
}

func newParser(enabled bool, apiKey string, extra ...option.RequestOption) *OpenAIParser {
	if !enabled || apiKey == "" {
		return &OpenAIParser{enabled: false}
	}

	opts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, extra...)
	client := openai.NewClient(opts...)

	return &OpenAIParser{
		client:  &client,
		model:   "gpt-4o-mini",
		timeout: 20 * time.Second,
		enabled: true,
	}
}

// IsEnabled returns whether the parser is enabled
func (p *OpenAIParser) IsEnabled() bool {
	return p.enabled
}

const parseSystemPrompt = `You extract metadata from audiobook filenames so the book can be found in the Audible catalog.

Filenames follow patterns like:
- "Title by Author"
- "Author - Title" or "Title - Author"
- "Series N - Title" or "Title (Series #N)"
- Extra noise: bitrate, "unabridged", uploader tags, release years

Return ONLY a JSON object:
{
  "title": "book title",
  "author": "author name",
  "series": "series name",
  "series_part": "1",
  "confidence": "high|medium|low"
}

Omit fields you cannot determine. Use "low" confidence when the filename is ambiguous about which part is the title.`

// ParseFilename asks the model for structured metadata for one filename.
func (p *OpenAIParser) ParseFilename(ctx context.Context, filename string) (*ParsedFilename, error) {
	if !p.enabled {
		return nil, fmt.Errorf("OpenAI parser is not enabled")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	jsonObjectFormat := shared.NewResponseFormatJSONObjectParam()

	completion, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(parseSystemPrompt),
			openai.UserMessage(fmt.Sprintf("Parse this audiobook filename:\n\n%s", filename)),
		},
		Model:       shared.ChatModel(p.model),
		Temperature: param.NewOpt(0.1),
		MaxTokens:   param.NewOpt[int64](300),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &jsonObjectFormat,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	var parsed ParsedFilename
	content := completion.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse OpenAI response: %w", err)
	}
	return &parsed, nil
}
