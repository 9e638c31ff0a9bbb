// Package llm provides a chat-completions client that asks a model for a
// JSON answer.
//
// The client targets OpenAI-compatible endpoints (OpenRouter by default). The
// enrichment package uses it to ask which series, if any, a book belongs to.
//
// Requests are retried on HTTP 408/429/5xx, empty completions, and network
// timeouts with exponential backoff. A Retry-After header on the final
// response is honoured up to the backoff cap. Context cancellation aborts
// retries immediately. Errors carrying an HTTP status are *StatusError so
// callers can detect rate limiting with IsRateLimited.
//
// DecodeJSON tolerates code fences and prose around the JSON object, which
// some models emit even when asked for JSON only.
package llm
