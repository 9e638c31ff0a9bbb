package enrichment

import (
	"context"
	"sync"

	"plexshelf/internal/seriesmatch"
)

// Cached memoizes successful answers by normalized title and author. Failures
// are never cached so a later run retries them.
type Cached struct {
	inner Provider

	mu      sync.Mutex
	entries map[cacheKey]seriesmatch.LookupResult
}

type cacheKey struct {
	title  string
	author string
}

// NewCached wraps inner with an in-memory cache.
func NewCached(inner Provider) *Cached {
	return &Cached{inner: inner, entries: make(map[cacheKey]seriesmatch.LookupResult)}
}

// Name implements Provider.
func (c *Cached) Name() string { return c.inner.Name() }

// Len reports the number of cached answers.
func (c *Cached) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Query implements Provider.
func (c *Cached) Query(ctx context.Context, req seriesmatch.LookupRequest) (seriesmatch.LookupResult, error) {
	key := cacheKey{title: req.Title, author: req.Author}
	c.mu.Lock()
	res, ok := c.entries[key]
	c.mu.Unlock()
	if ok {
		return res, nil
	}

	res, err := c.inner.Query(ctx, req)
	if err != nil {
		return res, err
	}
	if res.Outcome == seriesmatch.OutcomeUnavailable {
		return res, nil
	}
	c.mu.Lock()
	c.entries[key] = res
	c.mu.Unlock()
	return res, nil
}
