package seriesmatch

import "testing"

func TestExplicitConfidence(t *testing.T) {
	if got := ExplicitConfidence(true); got != 95 {
		t.Fatalf("explicit with position = %d, want 95", got)
	}
	if got := ExplicitConfidence(false); got != 85 {
		t.Fatalf("explicit without position = %d, want 85", got)
	}
}

func TestFuzzyConfidence(t *testing.T) {
	tests := []struct {
		name string
		c    Cluster
		want int
	}{
		{"identical pair set", Cluster{similaritySum: 200, pairs: 2}, 80},
		{"single pair at 75", Cluster{similaritySum: 75, pairs: 1}, 60},
		{"rounded down", Cluster{similaritySum: 253, pairs: 3}, 67},
		{"average only", Cluster{AvgSimilarity: 90}, 72},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FuzzyConfidence(tt.c); got != tt.want {
				t.Fatalf("FuzzyConfidence = %d, want %d", got, tt.want)
			}
		})
	}
}

func fuzzyCandidate(series string, confidence int) *Candidate {
	return &Candidate{
		ItemID:      "item-1",
		SeriesName:  series,
		DisplayName: series,
		Origin:      OriginFuzzy,
		Confidence:  confidence,
	}
}

func TestApplyEnrichmentAgreementAddsBonus(t *testing.T) {
	local := fuzzyCandidate("the expanse", 60)
	got := ApplyEnrichment(local, "item-1", "", Found("The Expanse", KnownPosition(2), 90))
	if got == nil {
		t.Fatal("expected candidate")
	}
	if got.Confidence != 75 {
		t.Fatalf("confidence = %d, want 75", got.Confidence)
	}
	if got.Origin != OriginFuzzy {
		t.Fatalf("origin changed to %s", got.Origin)
	}
	if !got.Signals.EnrichmentAgreed || got.Signals.LocalConfidence != 60 {
		t.Fatalf("unexpected signals %+v", got.Signals)
	}
	if !got.Position.Known || got.Position.Number != 2 {
		t.Fatalf("expected position adopted from lookup, got %+v", got.Position)
	}
	if local.Confidence != 60 {
		t.Fatal("input candidate was mutated")
	}
}

func TestApplyEnrichmentAgreementClamps(t *testing.T) {
	local := fuzzyCandidate("dune", 95)
	got := ApplyEnrichment(local, "item-1", "", Found("Dune", UnknownPosition(), 80))
	if got.Confidence != 100 {
		t.Fatalf("confidence = %d, want 100", got.Confidence)
	}
}

func TestApplyEnrichmentContradiction(t *testing.T) {
	t.Run("higher lookup confidence replaces", func(t *testing.T) {
		got := ApplyEnrichment(fuzzyCandidate("foundation", 60), "item-1", "isaac asimov", Found("Robot Series", KnownPosition(1), 90))
		if got.Origin != OriginEnrichment || got.SeriesName != "robot series" || got.Confidence != 90 {
			t.Fatalf("unexpected winner %+v", got)
		}
		if got.Discarded == nil || got.Discarded.SeriesName != "foundation" || got.Discarded.Confidence != 60 {
			t.Fatalf("expected local candidate discarded, got %+v", got.Discarded)
		}
		if got.Author != "isaac asimov" {
			t.Fatalf("author not carried: %q", got.Author)
		}
	})
	t.Run("local wins when stronger", func(t *testing.T) {
		local := &Candidate{ItemID: "item-1", SeriesName: "discworld", Origin: OriginExplicit, Confidence: 85}
		got := ApplyEnrichment(local, "item-1", "", Found("Long Earth", UnknownPosition(), 70))
		if got.SeriesName != "discworld" || got.Confidence != 85 {
			t.Fatalf("unexpected winner %+v", got)
		}
		if got.Discarded == nil || got.Discarded.SeriesName != "long earth" || got.Discarded.Origin != OriginEnrichment {
			t.Fatalf("expected lookup discarded, got %+v", got.Discarded)
		}
	})
	t.Run("tie keeps local", func(t *testing.T) {
		got := ApplyEnrichment(fuzzyCandidate("alpha", 80), "item-1", "", Found("Beta", UnknownPosition(), 80))
		if got.SeriesName != "alpha" {
			t.Fatalf("tie should keep local, got %q", got.SeriesName)
		}
	})
}

func TestApplyEnrichmentWithoutLocal(t *testing.T) {
	got := ApplyEnrichment(nil, "item-9", "frank herbert", Found("Dune Chronicles", KnownPosition(1), 90))
	if got == nil {
		t.Fatal("expected candidate from lookup")
	}
	if got.ItemID != "item-9" || got.Origin != OriginEnrichment || got.Confidence != 90 {
		t.Fatalf("unexpected candidate %+v", got)
	}
	if got.DisplayName != "Dune Chronicles" || got.SeriesName != "dune chronicles" {
		t.Fatalf("unexpected names %q/%q", got.SeriesName, got.DisplayName)
	}

	if got := ApplyEnrichment(nil, "item-9", "", NotFound()); got != nil {
		t.Fatalf("expected nil for unknown outcome, got %+v", got)
	}
	if got := ApplyEnrichment(nil, "item-9", "", Unavailable("timeout")); got != nil {
		t.Fatalf("expected nil for unavailable outcome, got %+v", got)
	}
	if got := ApplyEnrichment(nil, "item-9", "", Found("  ", UnknownPosition(), 90)); got != nil {
		t.Fatalf("expected nil for blank series, got %+v", got)
	}
}

func TestApplyEnrichmentUnavailableKeepsLocal(t *testing.T) {
	local := fuzzyCandidate("foundation", 64)
	got := ApplyEnrichment(local, "item-1", "", Unavailable("quota exceeded"))
	if got.Confidence != 64 || got.SeriesName != "foundation" {
		t.Fatalf("unexpected candidate %+v", got)
	}
	if got.Signals.Enrichment != "unavailable" {
		t.Fatalf("expected enrichment signal recorded, got %q", got.Signals.Enrichment)
	}
}
