package lifecycle

import (
	"testing"

	"plexshelf/internal/seriesmatch"
	"plexshelf/internal/store"
)

func statusOf(s string) store.MatchStatus { return store.MatchStatus(s) }

var testPolicy = Policy{
	ConfidenceThreshold:  70,
	AutoApproveThreshold: 95,
	SeriesMergeThreshold: 90,
	SupersedePolicy:      "supersede",
}

func candidate(itemID, series string, confidence int) seriesmatch.Candidate {
	return seriesmatch.Candidate{
		ItemID:      itemID,
		SeriesName:  series,
		DisplayName: series,
		Origin:      seriesmatch.OriginFuzzy,
		Confidence:  confidence,
	}
}

func TestReconcileCreatesSeriesAndMatches(t *testing.T) {
	plan := Reconcile([]seriesmatch.Candidate{
		candidate("1", "the expanse", 95),
		candidate("2", "the expanse", 80),
		candidate("3", "dune", 60),
	}, nil, nil, testPolicy)

	if len(plan.Changeset.Series) != 1 || plan.Changeset.Series[0].NormalizedName != "the expanse" {
		t.Fatalf("unexpected series %+v", plan.Changeset.Series)
	}
	if plan.Created != 2 || plan.AutoApproved != 1 || plan.BelowThreshold != 1 {
		t.Fatalf("unexpected counts %+v", plan)
	}
	inserts := plan.Changeset.Inserts
	if inserts[0].Status != store.StatusApproved || inserts[1].Status != store.StatusPending {
		t.Fatalf("unexpected statuses %s/%s", inserts[0].Status, inserts[1].Status)
	}
	for _, ins := range inserts {
		if ins.SeriesKey != "the expanse" || ins.SeriesID != 0 {
			t.Fatalf("expected insert keyed to new series, got %+v", ins)
		}
	}
}

func TestReconcileMergesSimilarSeriesNames(t *testing.T) {
	existing := []store.Series{{ID: 7, NormalizedName: "the expanse"}}
	plan := Reconcile([]seriesmatch.Candidate{
		candidate("1", "the expanses", 80),
		candidate("2", "wheel of time", 80),
		candidate("3", "the wheel of time", 80),
	}, existing, nil, testPolicy)

	if plan.Changeset.Inserts[0].SeriesID != 7 {
		t.Fatalf("expected merge into existing series, got %+v", plan.Changeset.Inserts[0])
	}
	if len(plan.Changeset.Series) != 2 {
		t.Fatalf("expected two new series, got %+v", plan.Changeset.Series)
	}
}

func TestReconcileMergesWithinRun(t *testing.T) {
	plan := Reconcile([]seriesmatch.Candidate{
		candidate("1", "the expanse", 80),
		candidate("2", "the expanses", 80),
	}, nil, nil, testPolicy)
	if len(plan.Changeset.Series) != 1 {
		t.Fatalf("expected one series, got %+v", plan.Changeset.Series)
	}
	if plan.Changeset.Inserts[1].SeriesKey != "the expanse" {
		t.Fatalf("expected second insert to reuse new series, got %+v", plan.Changeset.Inserts[1])
	}
}

func TestReconcilePreservesReviewedStatus(t *testing.T) {
	series := []store.Series{{ID: 1, NormalizedName: "alpha"}, {ID: 2, NormalizedName: "beta"}}
	matches := []store.Match{
		{ID: 10, ItemID: "p", SeriesID: 1, Confidence: 80, Status: store.StatusPending, Origin: "fuzzy-cluster"},
		{ID: 11, ItemID: "a", SeriesID: 1, Confidence: 96, Status: store.StatusApproved, Origin: "fuzzy-cluster"},
		{ID: 12, ItemID: "r", SeriesID: 2, Confidence: 80, Status: store.StatusRejected, Origin: "fuzzy-cluster"},
	}
	plan := Reconcile([]seriesmatch.Candidate{
		candidate("p", "alpha", 40),
		candidate("a", "alpha", 40),
		candidate("r", "beta", 99),
	}, series, matches, testPolicy)

	if plan.Created != 0 || plan.Updated != 3 || plan.BelowThreshold != 0 {
		t.Fatalf("unexpected counts %+v", plan)
	}
	for _, u := range plan.Changeset.Updates {
		if u.Promote {
			t.Fatalf("update %d should not promote", u.ID)
		}
	}
	if plan.Changeset.Updates[0].Confidence != 40 {
		t.Fatalf("expected rescore to 40, got %+v", plan.Changeset.Updates[0])
	}
}

func TestReconcilePromotesPendingWhenConfident(t *testing.T) {
	series := []store.Series{{ID: 1, NormalizedName: "alpha"}, {ID: 2, NormalizedName: "beta"}}
	matches := []store.Match{
		{ID: 10, ItemID: "x", SeriesID: 1, Confidence: 80, Status: store.StatusPending},
		{ID: 20, ItemID: "y", SeriesID: 1, Confidence: 80, Status: store.StatusPending},
		{ID: 21, ItemID: "y", SeriesID: 2, Confidence: 96, Status: store.StatusApproved},
	}
	plan := Reconcile([]seriesmatch.Candidate{
		candidate("x", "alpha", 97),
		candidate("y", "alpha", 97),
	}, series, matches, testPolicy)

	if !plan.Changeset.Updates[0].Promote {
		t.Fatal("expected x to be promoted")
	}
	if plan.Changeset.Updates[1].Promote {
		t.Fatal("y already has an approved match and must stay pending")
	}
	if plan.AutoApproved != 1 {
		t.Fatalf("expected one auto-approval, got %d", plan.AutoApproved)
	}
}

func TestReconcileNewMatchPendingWhenItemApproved(t *testing.T) {
	series := []store.Series{{ID: 1, NormalizedName: "alpha"}}
	matches := []store.Match{{ID: 1, ItemID: "x", SeriesID: 1, Confidence: 96, Status: store.StatusApproved}}
	plan := Reconcile([]seriesmatch.Candidate{candidate("x", "omega", 99)}, series, matches, testPolicy)
	if len(plan.Changeset.Inserts) != 1 || plan.Changeset.Inserts[0].Status != store.StatusPending {
		t.Fatalf("expected pending insert, got %+v", plan.Changeset.Inserts)
	}
}

func TestReconcileUnchangedMatchIsNotRewritten(t *testing.T) {
	c := candidate("x", "alpha", 80)
	series := []store.Series{{ID: 1, NormalizedName: "alpha"}}
	matches := []store.Match{{
		ID: 1, ItemID: "x", SeriesID: 1, Confidence: 80, Status: store.StatusPending,
		Origin: string(c.Origin), Signals: encodeSignals(c.Signals),
	}}
	plan := Reconcile([]seriesmatch.Candidate{c}, series, matches, testPolicy)
	if !plan.Changeset.Empty() || plan.Unchanged != 1 {
		t.Fatalf("expected no changes, got %+v", plan)
	}
}
