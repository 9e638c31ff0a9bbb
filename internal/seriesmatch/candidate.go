package seriesmatch

// Origin tags which stage produced a candidate.
type Origin string

const (
	OriginExplicit   Origin = "explicit-pattern"
	OriginFuzzy      Origin = "fuzzy-cluster"
	OriginEnrichment Origin = "enrichment"
)

// Candidate is a tentative series membership for one item.
type Candidate struct {
	ItemID      string
	SeriesName  string
	DisplayName string
	Author      string
	Position    Position
	Origin      Origin
	Confidence  int
	Signals     Signals
	// CanonicalID is the enrichment provider's series identifier.
	CanonicalID string
	// Discarded holds the losing alternative when local and enrichment
	// evidence disagreed.
	Discarded *Alternative
}

// Signals records the raw evidence behind a candidate's confidence.
type Signals struct {
	Pattern              string       `json:"pattern,omitempty"`
	PositionParsed       bool         `json:"position_parsed,omitempty"`
	ClusterSize          int          `json:"cluster_size,omitempty"`
	ClusterSimilarity    int          `json:"cluster_similarity,omitempty"`
	KnownSeries          bool         `json:"known_series,omitempty"`
	SeriesSimilarity     int          `json:"series_similarity,omitempty"`
	AuthorMatched        bool         `json:"author_matched,omitempty"`
	LocalConfidence      int          `json:"local_confidence,omitempty"`
	Enrichment           string       `json:"enrichment,omitempty"`
	EnrichmentConfidence int          `json:"enrichment_confidence,omitempty"`
	EnrichmentAgreed     bool         `json:"enrichment_agreed,omitempty"`
	Discarded            *Alternative `json:"discarded,omitempty"`
}

// Alternative is a series proposal that lost to another signal.
type Alternative struct {
	SeriesName string   `json:"series_name"`
	Position   Position `json:"position"`
	Origin     Origin   `json:"origin"`
	Confidence int      `json:"confidence"`
}

func (c Candidate) alternative() *Alternative {
	return &Alternative{
		SeriesName: c.SeriesName,
		Position:   c.Position,
		Origin:     c.Origin,
		Confidence: c.Confidence,
	}
}
