package seriesmatch

import (
	"context"
	"testing"

	"plexshelf/internal/catalog"
)

func fuzzyEngine() *Engine {
	return NewEngine(Options{
		FuzzyEnabled: true,
		Fuzzy:        FuzzyOptions{Threshold: 70, AuthorThreshold: 80},
	}, nil, nil)
}

func TestStem(t *testing.T) {
	tests := map[string]string{
		"book one the name":     "the name",
		"mistborn ii":           "mistborn",
		"the expanse 3":         "the expanse",
		"part two volume 4":     "",
		"i robot":               "i robot",
		"second foundation":     "foundation",
		"foundation and empire": "foundation and empire",
	}
	for in, want := range tests {
		if got := Stem(in); got != want {
			t.Errorf("Stem(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFuzzyClusterSameAuthor(t *testing.T) {
	items := []catalog.Item{
		{ID: "1", Title: "Foundation", Author: "Isaac Asimov"},
		{ID: "2", Title: "Foundation and Empire", Author: "Isaac Asimov"},
	}
	res, err := fuzzyEngine().Run(context.Background(), items)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %+v", res.Candidates)
	}
	for _, c := range res.Candidates {
		if c.SeriesName != "foundation" || c.DisplayName != "Foundation" {
			t.Fatalf("unexpected series for %s: %q/%q", c.ItemID, c.SeriesName, c.DisplayName)
		}
		if c.Origin != OriginFuzzy {
			t.Fatalf("expected fuzzy origin, got %s", c.Origin)
		}
		if c.Confidence != 80 {
			t.Fatalf("expected confidence 80, got %d", c.Confidence)
		}
		if c.Signals.ClusterSize != 2 {
			t.Fatalf("expected cluster size 2, got %d", c.Signals.ClusterSize)
		}
	}
	if res.Stats.Clusters != 1 || res.Stats.Clustered != 2 {
		t.Fatalf("unexpected stats %+v", res.Stats)
	}
}

func TestFuzzyDifferentAuthorsDoNotCluster(t *testing.T) {
	items := []catalog.Item{
		{ID: "1", Title: "Foundation", Author: "Isaac Asimov"},
		{ID: "2", Title: "Foundation Rising", Author: "Brent Weeks"},
	}
	res, err := fuzzyEngine().Run(context.Background(), items)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Candidates) != 0 {
		t.Fatalf("expected no candidates, got %+v", res.Candidates)
	}
	if len(res.Unmatched) != 2 {
		t.Fatalf("expected both items unmatched, got %v", res.Unmatched)
	}
}

func TestFuzzySingletonDropped(t *testing.T) {
	items := []catalog.Item{
		{ID: "1", Title: "Hyperion", Author: "Dan Simmons"},
		{ID: "2", Title: "Neuromancer", Author: "William Gibson"},
		{ID: "3", Title: "Dune", Author: "Frank Herbert"},
	}
	res, err := fuzzyEngine().Run(context.Background(), items)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Candidates) != 0 || res.Stats.Clusters != 0 {
		t.Fatalf("expected no clusters, got %+v", res)
	}
}

func TestFuzzyExplicitItemsExcluded(t *testing.T) {
	items := []catalog.Item{
		{ID: "1", Title: "The Long War - Book 2", Author: "Terry Pratchett"},
		{ID: "2", Title: "The Long War", Author: "Terry Pratchett"},
	}
	res, err := fuzzyEngine().Run(context.Background(), items)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Candidates) != 1 || res.Candidates[0].ItemID != "1" {
		t.Fatalf("expected only the explicit candidate, got %+v", res.Candidates)
	}
	if res.Candidates[0].Origin != OriginExplicit {
		t.Fatalf("unexpected origin %s", res.Candidates[0].Origin)
	}
}

func TestFuzzyOrderIndependent(t *testing.T) {
	items := []catalog.Item{
		{ID: "a", Title: "Foundation", Author: "Isaac Asimov"},
		{ID: "b", Title: "Foundation and Empire", Author: "Isaac Asimov"},
		{ID: "c", Title: "Second Foundation", Author: "Isaac Asimov"},
		{ID: "d", Title: "The Stars My Destination", Author: "Alfred Bester"},
		{ID: "e", Title: "The Demolished Man", Author: "Alfred Bester"},
	}
	reversed := make([]catalog.Item, len(items))
	for i, item := range items {
		reversed[len(items)-1-i] = item
	}

	summarize := func(res Result) map[string]string {
		out := make(map[string]string, len(res.Candidates))
		for _, c := range res.Candidates {
			out[c.ItemID] = c.SeriesName
		}
		return out
	}
	first, err := fuzzyEngine().Run(context.Background(), items)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	second, err := fuzzyEngine().Run(context.Background(), reversed)
	if err != nil {
		t.Fatalf("Run reversed: %v", err)
	}
	a, b := summarize(first), summarize(second)
	if len(a) != len(b) {
		t.Fatalf("candidate sets differ: %v vs %v", a, b)
	}
	for id, series := range a {
		if b[id] != series {
			t.Fatalf("item %s: %q vs %q", id, series, b[id])
		}
	}
	if a["a"] != "foundation" || a["c"] != "foundation" {
		t.Fatalf("expected foundation trio to cluster, got %v", a)
	}
}

func TestRoundDiv(t *testing.T) {
	tests := []struct{ num, den, want int }{
		{200, 2, 100},
		{16000, 200, 80},
		{6000, 100, 60},
		{1, 2, 1},
		{1, 3, 0},
		{5, 0, 0},
	}
	for _, tt := range tests {
		if got := roundDiv(tt.num, tt.den); got != tt.want {
			t.Errorf("roundDiv(%d, %d) = %d, want %d", tt.num, tt.den, got, tt.want)
		}
	}
}

func TestBestClusterTieBreaks(t *testing.T) {
	entries := []fuzzyEntry{
		{index: 0, itemID: "x", stem: "red moon rising"},
		{index: 1, itemID: "a", stem: "red moon rising"},
		{index: 2, itemID: "b", stem: "red moon falling"},
		{index: 3, itemID: "c", stem: "red moon falling"},
		{index: 4, itemID: "d", stem: "red moon rising"},
		{index: 5, itemID: "e", stem: "unrelated words here"},
	}
	g := newGrouper(FuzzyOptions{Threshold: 70, AuthorThreshold: 80}, entries)

	tests := []struct {
		name     string
		clusters []*workingCluster
		want     string
	}{
		{
			name: "highest similarity beats size and name",
			clusters: []*workingCluster{
				{members: []int{2, 3}, name: "aaa"},
				{members: []int{1}, name: "zzz"},
			},
			want: "zzz",
		},
		{
			name: "more members on equal similarity",
			clusters: []*workingCluster{
				{members: []int{1}, name: "aaa"},
				{members: []int{4, 5}, name: "zzz"},
			},
			want: "zzz",
		},
		{
			name: "lexical name on full tie",
			clusters: []*workingCluster{
				{members: []int{1}, name: "beta"},
				{members: []int{4}, name: "alpha"},
			},
			want: "alpha",
		},
		{
			name: "nothing above threshold",
			clusters: []*workingCluster{
				{members: []int{5}, name: "other"},
			},
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			best, _ := g.bestCluster(0, tt.clusters)
			got := ""
			if best != nil {
				got = best.name
			}
			if got != tt.want {
				t.Fatalf("bestCluster chose %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGroupAccumulatesPairwiseSimilarity(t *testing.T) {
	entries := []fuzzyEntry{
		{index: 0, itemID: "1", stem: "red moon rising"},
		{index: 1, itemID: "2", stem: "red moon rising"},
		{index: 2, itemID: "3", stem: "red moon rising"},
	}
	clusters := newGrouper(FuzzyOptions{Threshold: 70, AuthorThreshold: 80}, entries).group()
	if len(clusters) != 1 {
		t.Fatalf("expected one cluster, got %+v", clusters)
	}
	c := clusters[0]
	if c.pairs != 3 || c.similaritySum != 300 || c.AvgSimilarity != 100 {
		t.Fatalf("unexpected accumulation: pairs=%d sum=%d avg=%d", c.pairs, c.similaritySum, c.AvgSimilarity)
	}
}

func TestSameAuthorUsesEditRatio(t *testing.T) {
	entries := []fuzzyEntry{
		{index: 0, itemID: "1", stem: "a", author: "isaac asimov"},
		{index: 1, itemID: "2", stem: "b", author: "isaac asimov jr"},
		{index: 2, itemID: "3", stem: "c", author: "ursula le guin"},
		{index: 3, itemID: "4", stem: "d"},
	}
	g := newGrouper(FuzzyOptions{Threshold: 70, AuthorThreshold: 80}, entries)
	tests := []struct {
		a, b int
		want bool
	}{
		{0, 1, true},
		{1, 0, true},
		{0, 2, false},
		{2, 3, true},
		{0, 0, true},
	}
	for _, tt := range tests {
		if got := g.sameAuthor(tt.a, tt.b); got != tt.want {
			t.Errorf("sameAuthor(%q, %q) = %v, want %v", entries[tt.a].author, entries[tt.b].author, got, tt.want)
		}
	}
	if len(g.authorGate) != 2 {
		t.Fatalf("expected two cached author pairs, got %d", len(g.authorGate))
	}
}
