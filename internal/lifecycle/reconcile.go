package lifecycle

import (
	"encoding/json"
	"slices"
	"strings"

	"plexshelf/internal/config"
	"plexshelf/internal/seriesmatch"
	"plexshelf/internal/store"
	"plexshelf/internal/textutil"
)

// Policy holds the thresholds that govern reconciliation and approvals.
type Policy struct {
	ConfidenceThreshold  int
	AutoApproveThreshold int
	SeriesMergeThreshold int
	SupersedePolicy      string
}

// PolicyFromConfig extracts the matching policy from configuration.
func PolicyFromConfig(cfg *config.Config) Policy {
	return Policy{
		ConfidenceThreshold:  cfg.Matching.ConfidenceThreshold,
		AutoApproveThreshold: cfg.Matching.AutoApproveThreshold,
		SeriesMergeThreshold: cfg.Matching.SeriesMergeThreshold,
		SupersedePolicy:      cfg.Matching.SupersedePolicy,
	}
}

// Plan is the outcome of reconciling one run's candidates.
type Plan struct {
	Changeset      store.Changeset
	Created        int
	Updated        int
	Unchanged      int
	AutoApproved   int
	BelowThreshold int
}

type pairKey struct {
	itemID   string
	seriesID int64
}

type seriesRef struct {
	id   int64
	key  string // normalized name of a series created in this plan
	name string
}

type reconciler struct {
	policy   Policy
	plan     Plan
	byName   map[string]seriesRef
	existing []seriesRef
	created  []seriesRef
	matches  map[pairKey]store.Match
	approved map[string]bool
}

// Reconcile merges candidates into existing state without touching storage.
//
// Series are resolved by exact normalized name, then by edit ratio at or above
// SeriesMergeThreshold against existing series and then series created earlier
// in the same plan. Candidates below ConfidenceThreshold never create series or
// matches but still rescore a match that already exists. New matches start
// approved when they reach AutoApproveThreshold and the item has no approved
// match; existing matches keep their status except that a pending match may be
// promoted under the same rule.
func Reconcile(candidates []seriesmatch.Candidate, series []store.Series, matches []store.Match, policy Policy) Plan {
	r := &reconciler{
		policy:   policy,
		byName:   make(map[string]seriesRef, len(series)),
		matches:  make(map[pairKey]store.Match, len(matches)),
		approved: make(map[string]bool),
	}
	sorted := slices.Clone(series)
	slices.SortFunc(sorted, func(a, b store.Series) int {
		return strings.Compare(a.NormalizedName, b.NormalizedName)
	})
	for _, s := range sorted {
		ref := seriesRef{id: s.ID, name: s.NormalizedName}
		r.byName[s.NormalizedName] = ref
		r.existing = append(r.existing, ref)
	}
	for _, m := range matches {
		r.matches[pairKey{m.ItemID, m.SeriesID}] = m
		if m.Status == store.StatusApproved {
			r.approved[m.ItemID] = true
		}
	}

	for _, c := range candidates {
		r.add(c)
	}
	return r.plan
}

func (r *reconciler) add(c seriesmatch.Candidate) {
	ref, found := r.resolve(c.SeriesName)
	signals := encodeSignals(c.Signals)
	autoApprove := c.Confidence >= r.policy.AutoApproveThreshold && !r.approved[c.ItemID]

	if found && ref.id != 0 {
		if existing, ok := r.matches[pairKey{c.ItemID, ref.id}]; ok {
			promote := existing.Status == store.StatusPending && autoApprove
			if !promote && existing.Confidence == c.Confidence && existing.Position == c.Position &&
				existing.Origin == string(c.Origin) && existing.Signals == signals {
				r.plan.Unchanged++
				return
			}
			r.plan.Changeset.Updates = append(r.plan.Changeset.Updates, store.MatchUpdate{
				ID:         existing.ID,
				Confidence: c.Confidence,
				Position:   c.Position,
				Origin:     string(c.Origin),
				Signals:    signals,
				Promote:    promote,
			})
			r.plan.Updated++
			if promote {
				r.approved[c.ItemID] = true
				r.plan.AutoApproved++
			}
			return
		}
	}

	if c.Confidence < r.policy.ConfidenceThreshold {
		r.plan.BelowThreshold++
		return
	}

	if !found {
		ref = seriesRef{key: c.SeriesName, name: c.SeriesName}
		r.plan.Changeset.Series = append(r.plan.Changeset.Series, store.SeriesInsert{
			NormalizedName: c.SeriesName,
			Name:           displayOr(c.DisplayName, c.SeriesName),
			Author:         c.Author,
			CanonicalID:    c.CanonicalID,
		})
		r.byName[c.SeriesName] = ref
		r.created = append(r.created, ref)
	}

	status := store.StatusPending
	if autoApprove {
		status = store.StatusApproved
		r.approved[c.ItemID] = true
		r.plan.AutoApproved++
	}
	r.plan.Changeset.Inserts = append(r.plan.Changeset.Inserts, store.MatchInsert{
		ItemID:     c.ItemID,
		SeriesID:   ref.id,
		SeriesKey:  ref.key,
		Confidence: c.Confidence,
		Position:   c.Position,
		Status:     status,
		Origin:     string(c.Origin),
		Signals:    signals,
	})
	r.plan.Created++
}

// resolve finds the series a normalized name belongs to. It reports false when
// a new series is needed.
func (r *reconciler) resolve(name string) (seriesRef, bool) {
	if ref, ok := r.byName[name]; ok {
		return ref, true
	}
	if ref, ok := closest(name, r.existing, r.policy.SeriesMergeThreshold); ok {
		return ref, true
	}
	return closest(name, r.created, r.policy.SeriesMergeThreshold)
}

// closest returns the candidate with the highest edit ratio at or above
// threshold. refs are in a stable order and the first best wins ties.
func closest(name string, refs []seriesRef, threshold int) (seriesRef, bool) {
	var (
		best      seriesRef
		bestRatio = -1
	)
	for _, ref := range refs {
		ratio := textutil.Ratio(name, ref.name)
		if ratio >= threshold && ratio > bestRatio {
			best, bestRatio = ref, ratio
		}
	}
	return best, bestRatio >= 0
}

func encodeSignals(signals seriesmatch.Signals) string {
	data, err := json.Marshal(signals)
	if err != nil {
		return ""
	}
	return string(data)
}

func displayOr(display, fallback string) string {
	if display != "" {
		return display
	}
	return fallback
}
