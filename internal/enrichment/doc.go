// Package enrichment implements the external series lookups consulted by the
// matching engine.
//
// A Provider answers one title at a time and reports failures as errors. The
// wrappers in this package add caching (Cached) and pacing (Throttled), and
// AsLookup converts the stack into the seriesmatch.Lookup contract, where
// every failure becomes an Unavailable result instead of an error.
//
// Two providers exist: an LLM provider built on the chat-completions client
// in services/llm, and a Google Books provider that reads the volume
// seriesInfo block. New assembles the configured stack.
package enrichment
