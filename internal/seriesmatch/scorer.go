package seriesmatch

// Confidence constants. Scores are integers so auto-approval decisions are
// reproducible across runs and platforms.
const (
	ExplicitBase   = 85
	PositionBonus  = 10
	FuzzyCeiling   = 80
	AgreementBonus = 15
)

// ExplicitConfidence scores an explicit pattern match.
func ExplicitConfidence(positionKnown bool) int {
	score := ExplicitBase
	if positionKnown {
		score += PositionBonus
	}
	return clamp(score)
}

// FuzzyConfidence scales a cluster's average pairwise similarity into 0-80.
func FuzzyConfidence(c Cluster) int {
	if c.pairs == 0 {
		return clamp(roundDiv(c.AvgSimilarity*FuzzyCeiling, 100))
	}
	return clamp(roundDiv(c.similaritySum*FuzzyCeiling, c.pairs*100))
}

// KnownSeriesConfidence scales an existing-series match score into the same
// 0-80 band as fuzzy clusters, so such matches always go to review.
func KnownSeriesConfidence(score int) int {
	return clamp(roundDiv(clamp(score)*FuzzyCeiling, 100))
}

// ApplyEnrichment folds a lookup result into the local candidate for one item
// and returns the final candidate, or nil when there is neither local evidence
// nor a found series.
//
// Agreement (same normalized series name) adds AgreementBonus. On disagreement
// the enrichment candidate replaces the local one only when its confidence is
// strictly higher; the loser is kept as the discarded alternative.
func ApplyEnrichment(local *Candidate, itemID, author string, res LookupResult) *Candidate {
	var out *Candidate
	if local != nil {
		cp := *local
		out = &cp
		out.Signals.Enrichment = res.Outcome.String()
	}
	if res.Outcome != OutcomeFound {
		return out
	}

	found := Candidate{
		ItemID:      itemID,
		SeriesName:  Normalize(res.SeriesName),
		DisplayName: res.SeriesName,
		Author:      author,
		Position:    res.Position,
		Origin:      OriginEnrichment,
		Confidence:  clamp(res.Confidence),
		CanonicalID: res.SeriesID,
		Signals: Signals{
			Enrichment:           res.Outcome.String(),
			EnrichmentConfidence: clamp(res.Confidence),
			PositionParsed:       res.Position.Known,
		},
	}
	if found.SeriesName == "" {
		return out
	}
	if out == nil {
		return &found
	}

	out.Signals.EnrichmentConfidence = found.Confidence
	if found.SeriesName == out.SeriesName {
		out.Signals.EnrichmentAgreed = true
		out.Signals.LocalConfidence = out.Confidence
		out.Confidence = clamp(out.Confidence + AgreementBonus)
		out.CanonicalID = found.CanonicalID
		if !out.Position.Known && found.Position.Known {
			out.Position = found.Position
		}
		return out
	}

	if found.Confidence > out.Confidence {
		found.Signals.LocalConfidence = out.Confidence
		found.Discarded = out.alternative()
		found.Signals.Discarded = found.Discarded
		return &found
	}
	out.Discarded = found.alternative()
	out.Signals.Discarded = out.Discarded
	return out
}

func clamp(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
