package api

import (
	"encoding/json"
	"time"

	"plexshelf/internal/lifecycle"
	"plexshelf/internal/store"
)

// FromMatch converts a stored match to its API representation.
func FromMatch(m store.Match) Match {
	dto := Match{
		ID:         m.ID,
		ItemID:     m.ItemID,
		ItemTitle:  m.ItemTitle,
		ItemAuthor: m.ItemAuthor,
		SeriesID:   m.SeriesID,
		SeriesName: m.SeriesName,
		Confidence: m.Confidence,
		Position:   m.Position.String(),
		Status:     string(m.Status),
		Origin:     m.Origin,
		Applied:    m.Applied(),
		AppliedAt:  formatTimePtr(m.AppliedAt),
		CreatedAt:  formatTime(m.CreatedAt),
		UpdatedAt:  formatTime(m.UpdatedAt),
	}
	if m.Position.Known {
		n := m.Position.Number
		dto.Index = &n
	}
	if m.Signals != "" && json.Valid([]byte(m.Signals)) {
		dto.Signals = json.RawMessage(m.Signals)
	}
	return dto
}

// FromMatches converts a slice of stored matches.
func FromMatches(matches []store.Match) []Match {
	out := make([]Match, 0, len(matches))
	for _, m := range matches {
		out = append(out, FromMatch(m))
	}
	return out
}

// FromSeries converts a stored series.
func FromSeries(s store.Series) Series {
	return Series{
		ID:          s.ID,
		Name:        s.Name,
		Author:      s.Author,
		CanonicalID: s.CanonicalID,
		Pending:     s.Pending,
		Approved:    s.Approved,
		Applied:     s.Applied,
		CreatedAt:   formatTime(s.CreatedAt),
	}
}

// FromRunResult converts a lifecycle run result.
func FromRunResult(r lifecycle.RunResult) RunSummary {
	summary := RunSummary{
		RunID:                 r.RunID,
		StartedAt:             formatTime(r.StartedAt),
		FinishedAt:            formatTime(r.FinishedAt),
		Items:                 r.Items,
		Candidates:            r.Candidates,
		Created:               r.Created,
		Updated:               r.Updated,
		AutoApproved:          r.AutoApproved,
		BelowThreshold:        r.BelowThreshold,
		Unmatched:             r.Unmatched,
		Skipped:               len(r.Skipped),
		ExplicitMatches:       r.Stats.Explicit,
		FuzzyClusters:         r.Stats.Clusters,
		EnrichmentCalls:       r.Stats.EnrichmentCalls,
		EnrichmentUnavailable: r.Stats.EnrichmentUnavailable,
	}
	summary.Failures = fromFailures(r.Failures)
	return summary
}

// FromRun converts a stored run record.
func FromRun(r store.Run) RunRecord {
	return RunRecord{
		ID:           r.ID,
		StartedAt:    formatTime(r.StartedAt),
		FinishedAt:   formatTimePtr(r.FinishedAt),
		Outcome:      string(r.Outcome),
		Items:        r.Items,
		Created:      r.Created,
		Updated:      r.Updated,
		AutoApproved: r.AutoApproved,
		Failures:     r.Failures,
		ErrorMessage: r.ErrorMessage,
	}
}

// FromStats converts stored counts.
func FromStats(s store.Stats) Stats {
	return Stats{
		Items:       s.Items,
		Series:      s.Series,
		Pending:     s.Pending,
		Approved:    s.Approved,
		Rejected:    s.Rejected,
		Applied:     s.Applied,
		Collections: s.Collections,
	}
}

func fromFailures(failures []lifecycle.Failure) []Failure {
	if len(failures) == 0 {
		return nil
	}
	out := make([]Failure, 0, len(failures))
	for _, f := range failures {
		out = append(out, Failure{ItemID: f.ItemID, Kind: f.Kind, Reason: f.Reason})
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}
