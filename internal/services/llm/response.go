package llm

import "strings"

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type chatChoice struct {
	Message responseMessage `json:"message"`
	// Some providers send the streaming shape even when stream=false.
	Delta        responseMessage `json:"delta"`
	Text         string          `json:"text"`
	FinishReason string          `json:"finish_reason"`
}

type responseMessage struct {
	Content   string `json:"content"`
	Refusal   string `json:"refusal"`
	ToolCalls []struct {
		Function struct {
			Arguments string `json:"arguments"`
		} `json:"function"`
	} `json:"tool_calls"`
}

func (m responseMessage) toolArguments() string {
	for _, call := range m.ToolCalls {
		if args := strings.TrimSpace(call.Function.Arguments); args != "" {
			return args
		}
	}
	return ""
}

// content returns the first non-empty payload across choices, along with the
// first finish reason and refusal seen.
func (r chatResponse) content() (content, finishReason, refusal string) {
	for _, choice := range r.Choices {
		if finishReason == "" {
			finishReason = strings.TrimSpace(choice.FinishReason)
		}
		if refusal == "" {
			refusal = firstNonEmpty(choice.Message.Refusal, choice.Delta.Refusal)
		}
		content = firstNonEmpty(
			choice.Message.Content,
			choice.Delta.Content,
			choice.Text,
			choice.Message.toolArguments(),
			choice.Delta.toolArguments(),
		)
		if content != "" {
			return content, finishReason, refusal
		}
	}
	return "", finishReason, refusal
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
