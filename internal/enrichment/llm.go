package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"plexshelf/internal/seriesmatch"
	"plexshelf/internal/services/llm"
)

const llmSystemPrompt = `You are an expert librarian who identifies book series and their reading order.
You ALWAYS respond with a single JSON object and nothing else.

Given a book title and optionally its author, decide whether the book belongs to a series.

If it does, respond with:
{"series_name": "<exact series name>", "series_index": "<number as a string, or \"Companion\" for unnumbered books in the series universe>", "confidence": <0-100>}

If it is a standalone book, respond with:
{"series_name": null, "series_index": null, "confidence": <0-100>}

Examples:
- "Stormbreaker" by Anthony Horowitz -> {"series_name": "Alex Rider", "series_index": "1", "confidence": 95}
- "Scorpia Rising: Alex Rider, Book 9" -> {"series_name": "Alex Rider", "series_index": "9", "confidence": 98}
- "Alex Rider: Secret Weapon" (short stories) -> {"series_name": "Alex Rider", "series_index": "Companion", "confidence": 85}
- "The Stand" by Stephen King -> {"series_name": null, "series_index": null, "confidence": 90}`

// Completer is the part of the chat client the LLM provider needs.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// LLMProvider asks a chat model which series a book belongs to.
type LLMProvider struct {
	client Completer
	// ceiling caps the confidence reported by the model.
	ceiling int
}

// NewLLMProvider builds the provider. ceiling is the highest confidence a
// Found answer can carry.
func NewLLMProvider(client Completer, ceiling int) *LLMProvider {
	return &LLMProvider{client: client, ceiling: ceiling}
}

// Name implements Provider.
func (p *LLMProvider) Name() string { return "llm" }

type llmAnswer struct {
	SeriesName  *string     `json:"series_name"`
	SeriesIndex looseString `json:"series_index"`
	Confidence  *float64    `json:"confidence"`
}

// Query implements Provider.
func (p *LLMProvider) Query(ctx context.Context, req seriesmatch.LookupRequest) (seriesmatch.LookupResult, error) {
	content, err := p.client.CompleteJSON(ctx, llmSystemPrompt, buildLLMPrompt(req))
	if err != nil {
		if llm.IsRateLimited(err) {
			return seriesmatch.LookupResult{}, unavailable("llm", "complete", "", fmt.Errorf("%w: %w", ErrRateLimited, err))
		}
		return seriesmatch.LookupResult{}, unavailable("llm", "complete", "", err)
	}
	var answer llmAnswer
	if err := llm.DecodeJSON(content, &answer); err != nil {
		return seriesmatch.LookupResult{}, unavailable("llm", "decode", "malformed answer", err)
	}
	if answer.SeriesName == nil || strings.TrimSpace(*answer.SeriesName) == "" {
		return seriesmatch.NotFound(), nil
	}
	return seriesmatch.Found(*answer.SeriesName, seriesmatch.ParsePosition(string(answer.SeriesIndex)), p.confidence(answer.Confidence)), nil
}

// confidence accepts 0-100 or a 0-1 fraction and never exceeds the ceiling.
func (p *LLMProvider) confidence(reported *float64) int {
	if reported == nil {
		return p.ceiling
	}
	value := *reported
	if value > 0 && value <= 1 {
		value *= 100
	}
	return min(int(math.Round(value)), p.ceiling)
}

func buildLLMPrompt(req seriesmatch.LookupRequest) string {
	title := strings.TrimSpace(req.RawTitle)
	if title == "" {
		title = req.Title
	}
	author := strings.TrimSpace(req.RawAuthor)
	if author == "" {
		author = req.Author
	}
	var b strings.Builder
	b.WriteString("Title: ")
	b.WriteString(title)
	if author != "" {
		b.WriteString("\nAuthor: ")
		b.WriteString(author)
	}
	return b.String()
}

// looseString accepts a JSON string, number, or null.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "null":
		*s = ""
	case strings.HasPrefix(trimmed, `"`):
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = looseString(strings.TrimSpace(str))
	default:
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return fmt.Errorf("series_index: %w", err)
		}
		*s = looseString(strconv.FormatFloat(f, 'f', -1, 64))
	}
	return nil
}
