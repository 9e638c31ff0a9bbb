package seriesmatch

import (
	"context"
	"strings"
)

// Outcome discriminates the three lookup result variants.
type Outcome int

const (
	// OutcomeUnknown means the provider answered and knows of no series.
	OutcomeUnknown Outcome = iota
	// OutcomeFound means the provider identified a series.
	OutcomeFound
	// OutcomeUnavailable means the provider could not answer (timeout, quota,
	// network, or auth failure).
	OutcomeUnavailable
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFound:
		return "found"
	case OutcomeUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// LookupRequest asks whether a title belongs to a known series.
type LookupRequest struct {
	// Title is the normalized title.
	Title string
	// Author is the normalized author and may be empty.
	Author string
	// RawTitle and RawAuthor carry the catalog strings for providers that
	// search better with original casing and punctuation.
	RawTitle  string
	RawAuthor string
}

// LookupResult is the tagged result of a lookup. Only the fields of the
// variant named by Outcome are meaningful.
type LookupResult struct {
	Outcome    Outcome
	SeriesName string
	// SeriesID is the provider's identifier for the series, when it has one.
	SeriesID   string
	Position   Position
	Confidence int
	Reason     string
}

// Found builds a successful lookup result.
func Found(series string, position Position, confidence int) LookupResult {
	return LookupResult{Outcome: OutcomeFound, SeriesName: strings.TrimSpace(series), Position: position, Confidence: clamp(confidence)}
}

// NotFound builds the "no known series" result.
func NotFound() LookupResult {
	return LookupResult{Outcome: OutcomeUnknown}
}

// Unavailable builds a failed lookup result.
func Unavailable(reason string) LookupResult {
	return LookupResult{Outcome: OutcomeUnavailable, Reason: reason}
}

// Lookup is the enrichment contract. Implementations must honour ctx and never
// panic; failures are reported as Unavailable rather than returned as errors.
type Lookup interface {
	Lookup(ctx context.Context, req LookupRequest) LookupResult
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(ctx context.Context, req LookupRequest) LookupResult

// Lookup implements Lookup.
func (f LookupFunc) Lookup(ctx context.Context, req LookupRequest) LookupResult {
	return f(ctx, req)
}
