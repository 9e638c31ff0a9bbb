package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the OpenRouter chat completions endpoint.
	DefaultBaseURL = "https://openrouter.ai/api/v1/chat/completions"

	jsonResponseType      = "json_object"
	defaultHTTPTimeout    = 15 * time.Second
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
)

// Config captures the settings required to talk to the model.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// Client sends JSON-mode chat completion requests.
type Client struct {
	cfg        Config
	httpClient *http.Client

	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	sleeper     func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryMaxAttempts sets the total number of attempts per request.
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.maxAttempts = attempts
	}
}

// WithRetryBackoff overrides the first retry delay and the delay cap.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.baseDelay = baseDelay
		c.maxDelay = maxDelay
	}
}

// WithSleeper replaces the retry sleep; tests use it to avoid waiting.
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs a client. An empty BaseURL selects DefaultBaseURL.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.Referer = strings.TrimSpace(cfg.Referer)
	cfg.Title = strings.TrimSpace(cfg.Title)
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	client := &Client{
		cfg:         cfg,
		httpClient:  &http.Client{Timeout: timeout},
		maxAttempts: defaultRetryAttempts,
		baseDelay:   defaultRetryBaseDelay,
		maxDelay:    defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Model reports the configured model name.
func (c *Client) Model() string {
	return c.cfg.Model
}

// StatusError is returned when the endpoint answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm request: http %d: %s", e.StatusCode, e.Body)
}

// IsRateLimited reports whether err carries an HTTP 429 response.
func IsRateLimited(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusTooManyRequests
}

// CompleteJSON sends a system and user prompt and returns the model's JSON
// payload as text. Use DecodeJSON to parse it.
func (c *Client) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	systemPrompt = strings.TrimSpace(systemPrompt)
	userPrompt = strings.TrimSpace(userPrompt)
	switch {
	case systemPrompt == "":
		return "", errors.New("llm complete: system prompt required")
	case userPrompt == "":
		return "", errors.New("llm complete: user prompt required")
	case c.cfg.APIKey == "":
		return "", errors.New("llm complete: api key required")
	}
	return c.complete(ctx, "llm complete", systemPrompt, userPrompt)
}

// HealthCheck verifies the key and model with a trivial request.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return errors.New("llm health: api key required")
	}
	content, err := c.complete(ctx, "llm health", "You must respond with JSON only.", `Respond with {"ok":true}`)
	if err != nil {
		return err
	}
	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := DecodeJSON(content, &parsed); err != nil {
		return fmt.Errorf("llm health: parse payload: %w", err)
	}
	if !parsed.OK {
		return errors.New("llm health: unexpected response")
	}
	return nil
}

func (c *Client) complete(ctx context.Context, op, systemPrompt, userPrompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		ResponseFormat: map[string]string{"type": jsonResponseType},
	})
	if err != nil {
		return "", fmt.Errorf("%s: encode body: %w", op, err)
	}

	attempts := max(c.maxAttempts, 1)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		content, err := c.send(ctx, op, body)
		if err == nil {
			return content, nil
		}
		lastErr = err
		delay, retry := c.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			if attempt > 1 {
				return "", fmt.Errorf("%s: failed after %d attempts: %w", op, attempt, err)
			}
			return "", err
		}
		if err := c.sleep(ctx, delay); err != nil {
			return "", err
		}
	}
	return "", lastErr
}

func (c *Client) send(ctx context.Context, op string, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%s: new request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: http error (timeout=%s): %w", op, c.httpClient.Timeout, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%s: read body: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return "", &StatusError{
			StatusCode: resp.StatusCode,
			Body:       snippet(string(raw)),
			RetryAfter: retryAfter,
		}
	}

	var completion chatResponse
	if err := json.Unmarshal(raw, &completion); err != nil {
		return "", fmt.Errorf("%s: decode response: %w", op, err)
	}
	if completion.Error != nil {
		return "", fmt.Errorf("%s: api error: %s", op, strings.TrimSpace(completion.Error.Message))
	}
	if len(completion.Choices) == 0 {
		return "", &emptyContentError{op: op, snippet: snippet(string(raw))}
	}
	content, finish, refusal := completion.content()
	if content == "" {
		return "", &emptyContentError{op: op, finishReason: finish, refusal: refusal, snippet: snippet(string(raw))}
	}
	return content, nil
}

type emptyContentError struct {
	op           string
	finishReason string
	refusal      string
	snippet      string
}

func (e *emptyContentError) Error() string {
	return fmt.Sprintf("%s: empty content (finish_reason=%q, refusal=%q, response_snippet=%s)",
		e.op, e.finishReason, e.refusal, e.snippet)
}
