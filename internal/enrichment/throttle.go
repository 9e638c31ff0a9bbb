package enrichment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"plexshelf/internal/seriesmatch"
)

// Throttled spaces calls to inner by at least interval and stops calling it
// for backoff after a rate-limit failure. Calls during the back-off window fail
// immediately with ErrRateLimited.
type Throttled struct {
	inner    Provider
	interval time.Duration
	backoff  time.Duration

	now   func() time.Time
	sleep func(context.Context, time.Duration) error

	mu           sync.Mutex
	next         time.Time
	blockedUntil time.Time
}

// NewThrottled wraps inner.
func NewThrottled(inner Provider, interval, backoff time.Duration) *Throttled {
	return &Throttled{
		inner:    inner,
		interval: interval,
		backoff:  backoff,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// Name implements Provider.
func (t *Throttled) Name() string { return t.inner.Name() }

// Query implements Provider.
func (t *Throttled) Query(ctx context.Context, req seriesmatch.LookupRequest) (seriesmatch.LookupResult, error) {
	wait, err := t.reserve()
	if err != nil {
		return seriesmatch.LookupResult{}, err
	}
	if err := t.sleep(ctx, wait); err != nil {
		return seriesmatch.LookupResult{}, err
	}

	res, err := t.inner.Query(ctx, req)
	if err != nil && errors.Is(err, ErrRateLimited) {
		t.mu.Lock()
		t.blockedUntil = t.now().Add(t.backoff)
		t.mu.Unlock()
	}
	return res, err
}

// reserve claims the next call slot and returns how long to wait for it.
func (t *Throttled) reserve() (time.Duration, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	if now.Before(t.blockedUntil) {
		return 0, unavailable(t.inner.Name(), "throttle",
			fmt.Sprintf("backing off for %s", t.blockedUntil.Sub(now).Round(time.Second)), ErrRateLimited)
	}
	slot := now
	if t.next.After(slot) {
		slot = t.next
	}
	t.next = slot.Add(t.interval)
	return slot.Sub(now), nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
