package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// DecodeJSON decodes a model answer into target. It first tries the payload as
// is, then strips a code fence and any prose around the outermost object.
func DecodeJSON(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return errors.New("empty payload")
	}
	directErr := json.Unmarshal([]byte(trimmed), target)
	if directErr == nil {
		return nil
	}
	extracted := extractObject(trimmed)
	if extracted == "" || extracted == trimmed {
		return fmt.Errorf("%w (payload snippet: %s)", directErr, snippet(trimmed))
	}
	if err := json.Unmarshal([]byte(extracted), target); err != nil {
		return fmt.Errorf("%w (extracted payload snippet: %s)", err, snippet(extracted))
	}
	return nil
}

func extractObject(content string) string {
	body := stripCodeFence(content)
	if body == "" || body[0] == '{' || body[0] == '[' {
		return body
	}
	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		start := strings.Index(body, pair[0])
		end := strings.LastIndex(body, pair[1])
		if start >= 0 && end > start {
			return strings.TrimSpace(body[start : end+1])
		}
	}
	return body
}

func stripCodeFence(content string) string {
	body, ok := strings.CutPrefix(strings.TrimSpace(content), "```")
	if !ok {
		return strings.TrimSpace(content)
	}
	body = strings.TrimLeft(body, " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = body[4:]
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

// snippet flattens whitespace and truncates text for error messages.
func snippet(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	if clean == "" {
		return "<empty>"
	}
	const limit = 160
	if runes := []rune(clean); len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
