package seriesmatch

import (
	"context"
	"testing"

	"plexshelf/internal/catalog"
)

func TestBestKnownSeries(t *testing.T) {
	known := []KnownSeries{
		{Name: "foundation", DisplayName: "Foundation", Author: "isaac asimov"},
		{Name: "dune", DisplayName: "Dune", Author: "frank herbert"},
		{Name: "it", DisplayName: "It"},
		{Name: "the", DisplayName: "The"},
	}
	opts := FuzzyOptions{Threshold: 70, AuthorThreshold: 80}

	tests := []struct {
		name       string
		title      string
		author     string
		wantSeries string
		wantScore  int
	}{
		{"contained with author", "foundations edge", "isaac asimov", "foundation", 100},
		{"contained without author", "foundations edge", "", "foundation", 100},
		{"different author", "foundations edge", "brent weeks", "", 0},
		{"short names ignored", "it ends with us", "", "", 0},
		{"unrelated", "neuromancer", "william gibson", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := bestKnownSeries(tt.title, tt.author, known, opts)
			if tt.wantSeries == "" {
				if ok {
					t.Fatalf("unexpected match %+v", got)
				}
				return
			}
			if !ok {
				t.Fatal("expected a match")
			}
			if got.series.Name != tt.wantSeries || got.score != tt.wantScore {
				t.Fatalf("got %s/%d, want %s/%d", got.series.Name, got.score, tt.wantSeries, tt.wantScore)
			}
		})
	}
}

func TestEngineJoinsKnownSeries(t *testing.T) {
	engine := NewEngine(Options{
		FuzzyEnabled: true,
		Fuzzy:        FuzzyOptions{Threshold: 70, AuthorThreshold: 80},
		KnownSeries: []KnownSeries{
			{Name: "foundation", DisplayName: "Foundation", Author: "isaac asimov"},
		},
	}, nil, nil)
	items := []catalog.Item{
		{ID: "1", Title: "Foundation's Edge", Author: "Isaac Asimov"},
		{ID: "2", Title: "Neuromancer", Author: "William Gibson"},
	}
	res, err := engine.Run(context.Background(), items)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Candidates) != 1 {
		t.Fatalf("expected one candidate, got %+v", res.Candidates)
	}
	c := res.Candidates[0]
	if c.ItemID != "1" || c.SeriesName != "foundation" || c.DisplayName != "Foundation" {
		t.Fatalf("unexpected candidate %+v", c)
	}
	if c.Origin != OriginFuzzy || !c.Signals.KnownSeries || !c.Signals.AuthorMatched {
		t.Fatalf("unexpected origin/signals %s %+v", c.Origin, c.Signals)
	}
	if c.Confidence != FuzzyCeiling {
		t.Fatalf("expected confidence %d, got %d", FuzzyCeiling, c.Confidence)
	}
	if res.Stats.KnownSeriesMatched != 1 {
		t.Fatalf("unexpected stats %+v", res.Stats)
	}
	if len(res.Unmatched) != 1 || res.Unmatched[0] != "2" {
		t.Fatalf("unexpected unmatched %v", res.Unmatched)
	}
}

func TestKnownSeriesIgnoredWithoutFuzzy(t *testing.T) {
	engine := NewEngine(Options{
		Fuzzy:       FuzzyOptions{Threshold: 70, AuthorThreshold: 80},
		KnownSeries: []KnownSeries{{Name: "foundation", DisplayName: "Foundation"}},
	}, nil, nil)
	res, err := engine.Run(context.Background(), []catalog.Item{{ID: "1", Title: "Foundation's Edge"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Candidates) != 0 {
		t.Fatalf("expected no candidates, got %+v", res.Candidates)
	}
}

func TestKnownSeriesConfidence(t *testing.T) {
	tests := []struct{ score, want int }{
		{100, 80},
		{90, 72},
		{75, 60},
		{130, 80},
	}
	for _, tt := range tests {
		if got := KnownSeriesConfidence(tt.score); got != tt.want {
			t.Errorf("KnownSeriesConfidence(%d) = %d, want %d", tt.score, got, tt.want)
		}
	}
}
