package enrichment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"plexshelf/internal/config"
	"plexshelf/internal/logging"
	"plexshelf/internal/seriesmatch"
	"plexshelf/internal/services"
	"plexshelf/internal/testsupport"
)

type stubCompleter struct {
	content string
	err     error
	prompts []string
}

func (s *stubCompleter) CompleteJSON(_ context.Context, _ string, user string) (string, error) {
	s.prompts = append(s.prompts, user)
	return s.content, s.err
}

type countingProvider struct {
	mu      sync.Mutex
	calls   int
	results []seriesmatch.LookupResult
	errs    []error
}

func (p *countingProvider) Name() string { return "stub" }

func (p *countingProvider) Query(context.Context, seriesmatch.LookupRequest) (seriesmatch.LookupResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	idx := p.calls
	p.calls++
	var res seriesmatch.LookupResult
	var err error
	if idx < len(p.results) {
		res = p.results[idx]
	}
	if idx < len(p.errs) {
		err = p.errs[idx]
	}
	return res, err
}

func TestLLMProviderAnswers(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		outcome  seriesmatch.Outcome
		series   string
		position seriesmatch.Position
		conf     int
	}{
		{
			name:     "numbered series",
			content:  `{"series_name":"Alex Rider","series_index":"9","confidence":98}`,
			outcome:  seriesmatch.OutcomeFound,
			series:   "Alex Rider",
			position: seriesmatch.Position{Number: 9, Known: true, Label: "9"},
			conf:     80,
		},
		{
			name:     "numeric index and fractional confidence",
			content:  "```json\n{\"series_name\":\"Dune\",\"series_index\":2,\"confidence\":0.6}\n```",
			outcome:  seriesmatch.OutcomeFound,
			series:   "Dune",
			position: seriesmatch.Position{Number: 2, Known: true, Label: "2"},
			conf:     60,
		},
		{
			name:     "companion without confidence",
			content:  `{"series_name":"Alex Rider","series_index":"Companion"}`,
			outcome:  seriesmatch.OutcomeFound,
			series:   "Alex Rider",
			position: seriesmatch.Position{Label: "Companion"},
			conf:     80,
		},
		{
			name:    "standalone",
			content: `{"series_name":null,"series_index":null,"confidence":90}`,
			outcome: seriesmatch.OutcomeUnknown,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := NewLLMProvider(&stubCompleter{content: tt.content}, 80)
			res, err := provider.Query(context.Background(), seriesmatch.LookupRequest{Title: "scorpia rising"})
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			if res.Outcome != tt.outcome {
				t.Fatalf("outcome %s, want %s", res.Outcome, tt.outcome)
			}
			if tt.outcome != seriesmatch.OutcomeFound {
				return
			}
			if res.SeriesName != tt.series || res.Position != tt.position || res.Confidence != tt.conf {
				t.Fatalf("unexpected result %+v", res)
			}
		})
	}
}

func TestLLMProviderPromptPrefersRawStrings(t *testing.T) {
	stub := &stubCompleter{content: `{"series_name":null}`}
	provider := NewLLMProvider(stub, 80)
	_, err := provider.Query(context.Background(), seriesmatch.LookupRequest{
		Title: "stormbreaker", Author: "anthony horowitz",
		RawTitle: "Stormbreaker", RawAuthor: "Anthony Horowitz",
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(stub.prompts) != 1 || stub.prompts[0] != "Title: Stormbreaker\nAuthor: Anthony Horowitz" {
		t.Fatalf("unexpected prompt %q", stub.prompts)
	}
}

func TestLLMProviderFailures(t *testing.T) {
	provider := NewLLMProvider(&stubCompleter{content: "I am not sure"}, 80)
	_, err := provider.Query(context.Background(), seriesmatch.LookupRequest{Title: "x"})
	if !errors.Is(err, services.ErrLookupUnavailable) {
		t.Fatalf("expected lookup unavailable for malformed answer, got %v", err)
	}

	provider = NewLLMProvider(&stubCompleter{err: errors.New("connection refused")}, 80)
	_, err = provider.Query(context.Background(), seriesmatch.LookupRequest{Title: "x"})
	if !errors.Is(err, services.ErrLookupUnavailable) || errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected plain unavailable error, got %v", err)
	}
}

func googleBooksServer(t *testing.T, hits *int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			*hits++
		}
		switch r.URL.Path {
		case "/volumes":
			q := r.URL.Query().Get("q")
			if r.URL.Query().Get("key") != "k" {
				t.Errorf("missing api key in %s", r.URL.RawQuery)
			}
			if !strings.Contains(q, `intitle:"Golden Son"`) {
				_ = json.NewEncoder(w).Encode(map[string]any{"totalItems": 0})
				return
			}
			if !strings.Contains(q, `inauthor:"Pierce Brown"`) {
				t.Errorf("expected author in query %q", q)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"totalItems": 1,
				"items": []any{map[string]any{"volumeInfo": map[string]any{
					"title": "Golden Son",
					"seriesInfo": map[string]any{
						"bookDisplayNumber": "2",
						"volumeSeries":      []any{map[string]any{"seriesId": "SER123", "orderNumber": 2}},
					},
				}}},
			})
		case "/series/get":
			if r.URL.Query().Get("series_id") != "SER123" {
				t.Errorf("unexpected series id %q", r.URL.Query().Get("series_id"))
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"series": []any{map[string]any{"seriesId": "SER123", "title": "Red Rising Saga"}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestGoogleBooksProviderFound(t *testing.T) {
	server := googleBooksServer(t, nil)
	provider := NewGoogleBooksProvider(server.URL+"/", "k", time.Second)

	res, err := provider.Query(context.Background(), seriesmatch.LookupRequest{
		Title: "golden son", RawTitle: "Golden Son", RawAuthor: "Pierce Brown",
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if res.Outcome != seriesmatch.OutcomeFound || res.SeriesName != "Red Rising Saga" {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.SeriesID != "SER123" || res.Confidence != GoogleBooksConfidence || res.Position.Number != 2 {
		t.Fatalf("unexpected details %+v", res)
	}

	res, err = provider.Query(context.Background(), seriesmatch.LookupRequest{Title: "the stand"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if res.Outcome != seriesmatch.OutcomeUnknown {
		t.Fatalf("expected unknown, got %+v", res)
	}
}

func TestGoogleBooksProviderRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	provider := NewGoogleBooksProvider(server.URL, "", time.Second)
	_, err := provider.Query(context.Background(), seriesmatch.LookupRequest{Title: "x"})
	if !errors.Is(err, ErrRateLimited) || !errors.Is(err, services.ErrLookupUnavailable) {
		t.Fatalf("expected rate limited lookup error, got %v", err)
	}
}

func TestCachedKeepsAnswersButNotFailures(t *testing.T) {
	inner := &countingProvider{
		results: []seriesmatch.LookupResult{{}, seriesmatch.Found("Dune", seriesmatch.KnownPosition(1), 70)},
		errs:    []error{errors.New("network down")},
	}
	cached := NewCached(inner)
	req := seriesmatch.LookupRequest{Title: "dune", Author: "frank herbert"}

	if _, err := cached.Query(context.Background(), req); err == nil {
		t.Fatal("expected first call to fail")
	}
	for range 3 {
		res, err := cached.Query(context.Background(), req)
		if err != nil {
			t.Fatalf("Query: %v", err)
		}
		if res.SeriesName != "Dune" {
			t.Fatalf("unexpected result %+v", res)
		}
	}
	if inner.calls != 2 {
		t.Fatalf("expected 2 inner calls, got %d", inner.calls)
	}
	if cached.Len() != 1 {
		t.Fatalf("expected one cached entry, got %d", cached.Len())
	}
}

func TestThrottledSpacesCallsAndBacksOff(t *testing.T) {
	inner := &countingProvider{
		errs: []error{nil, unavailable("stub", "query", "", ErrRateLimited)},
	}
	throttled := NewThrottled(inner, 2*time.Second, time.Minute)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var waits []time.Duration
	throttled.now = func() time.Time { return clock }
	throttled.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	req := seriesmatch.LookupRequest{Title: "x"}

	if _, err := throttled.Query(context.Background(), req); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := throttled.Query(context.Background(), req); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected rate limit from second call, got %v", err)
	}
	if len(waits) != 2 || waits[0] != 0 || waits[1] != 2*time.Second {
		t.Fatalf("unexpected waits %v", waits)
	}

	clock = clock.Add(30 * time.Second)
	if _, err := throttled.Query(context.Background(), req); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected back-off rejection, got %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("provider must not be called during back-off, got %d calls", inner.calls)
	}

	clock = clock.Add(31 * time.Second)
	if _, err := throttled.Query(context.Background(), req); err != nil {
		t.Fatalf("expected call after back-off, got %v", err)
	}
	if inner.calls != 3 {
		t.Fatalf("expected 3 provider calls, got %d", inner.calls)
	}
}

func TestAsLookupMapsFailuresToUnavailable(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		reason string
	}{
		{name: "quota", err: unavailable("stub", "query", "", ErrRateLimited), reason: "quota exceeded"},
		{name: "timeout", err: context.DeadlineExceeded, reason: "lookup timed out"},
		{name: "other", err: unavailable("stub", "query", "http 500", nil), reason: "stub: query: http 500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup := AsLookup(&countingProvider{errs: []error{tt.err}}, logging.NewNop())
			res := lookup.Lookup(context.Background(), seriesmatch.LookupRequest{Title: "x"})
			if res.Outcome != seriesmatch.OutcomeUnavailable || res.Reason != tt.reason {
				t.Fatalf("unexpected result %+v", res)
			}
		})
	}
}

func TestNewSelectsProvider(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	lookup, err := New(cfg, logging.NewNop())
	if err != nil || lookup != nil {
		t.Fatalf("expected no lookup when disabled, got %v %v", lookup, err)
	}

	var hits int
	server := googleBooksServer(t, &hits)
	cfg = testsupport.NewConfig(t, testsupport.WithEnrichment(config.ProviderGoogleBooks))
	cfg.GoogleBooks.BaseURL = server.URL
	cfg.GoogleBooks.APIKey = "k"
	lookup, err = New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	req := seriesmatch.LookupRequest{Title: "golden son", RawTitle: "Golden Son", RawAuthor: "Pierce Brown"}
	for range 2 {
		res := lookup.Lookup(context.Background(), req)
		if res.Outcome != seriesmatch.OutcomeFound || res.SeriesName != "Red Rising Saga" {
			t.Fatalf("unexpected result %+v", res)
		}
	}
	if hits != 2 {
		t.Fatalf("expected the second lookup to be served from cache, got %d requests", hits)
	}

	cfg.Enrichment.Provider = "tmdb"
	if _, err := New(cfg, logging.NewNop()); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
