package api

import "encoding/json"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Match describes a series match for review.
type Match struct {
	ID         int64           `json:"id"`
	ItemID     string          `json:"itemId"`
	ItemTitle  string          `json:"itemTitle"`
	ItemAuthor string          `json:"itemAuthor,omitempty"`
	SeriesID   int64           `json:"seriesId"`
	SeriesName string          `json:"seriesName"`
	Confidence int             `json:"confidence"`
	Position   string          `json:"position"`
	Index      *int            `json:"index,omitempty"`
	Status     string          `json:"status"`
	Origin     string          `json:"origin"`
	Applied    bool            `json:"applied"`
	AppliedAt  string          `json:"appliedAt,omitempty"`
	CreatedAt  string          `json:"createdAt,omitempty"`
	UpdatedAt  string          `json:"updatedAt,omitempty"`
	Signals    json.RawMessage `json:"signals,omitempty"`
}

// Series describes a series and its member counts.
type Series struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Author      string `json:"author,omitempty"`
	CanonicalID string `json:"canonicalId,omitempty"`
	Pending     int    `json:"pending"`
	Approved    int    `json:"approved"`
	Applied     int    `json:"applied"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

// Failure is an item-level problem reported by a run or bulk operation.
type Failure struct {
	ItemID string `json:"itemId,omitempty"`
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

// RunSummary reports a completed matching run.
type RunSummary struct {
	RunID                 string    `json:"runId"`
	StartedAt             string    `json:"startedAt"`
	FinishedAt            string    `json:"finishedAt,omitempty"`
	Items                 int       `json:"items"`
	Candidates            int       `json:"candidates"`
	Created               int       `json:"created"`
	Updated               int       `json:"updated"`
	AutoApproved          int       `json:"autoApproved"`
	BelowThreshold        int       `json:"belowThreshold"`
	Unmatched             int       `json:"unmatched"`
	Skipped               int       `json:"skipped"`
	ExplicitMatches       int       `json:"explicitMatches"`
	FuzzyClusters         int       `json:"fuzzyClusters"`
	EnrichmentCalls       int       `json:"enrichmentCalls"`
	EnrichmentUnavailable int       `json:"enrichmentUnavailable"`
	Failures              []Failure `json:"failures,omitempty"`
}

// RunRecord is a stored run, as listed by Status.
type RunRecord struct {
	ID           string `json:"id"`
	StartedAt    string `json:"startedAt"`
	FinishedAt   string `json:"finishedAt,omitempty"`
	Outcome      string `json:"outcome"`
	Items        int    `json:"items"`
	Created      int    `json:"created"`
	Updated      int    `json:"updated"`
	AutoApproved int    `json:"autoApproved"`
	Failures     int    `json:"failures"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// ActiveRun identifies a run in progress in this process.
type ActiveRun struct {
	RunID     string `json:"runId"`
	StartedAt string `json:"startedAt"`
}

// Stats mirrors stored counts.
type Stats struct {
	Items       int `json:"items"`
	Series      int `json:"series"`
	Pending     int `json:"pending"`
	Approved    int `json:"approved"`
	Rejected    int `json:"rejected"`
	Applied     int `json:"applied"`
	Collections int `json:"collections"`
}

// Status aggregates runtime information.
type Status struct {
	DatabasePath string     `json:"databasePath"`
	Stats        Stats      `json:"stats"`
	ActiveRun    *ActiveRun `json:"activeRun,omitempty"`
	LastRun      *RunRecord `json:"lastRun,omitempty"`
	Enrichment   string     `json:"enrichment"`
}

// Rejection is a catalog record dropped during a scan.
type Rejection struct {
	ItemID string `json:"itemId"`
	Reason string `json:"reason"`
}

// ScanResult reports a catalog scan.
type ScanResult struct {
	Items    int         `json:"items"`
	Rejected []Rejection `json:"rejected,omitempty"`
	Warnings []string    `json:"warnings,omitempty"`
}

// BulkOptions narrows approve-all or reject-all to pending matches scoring at
// least MinConfidence.
type BulkOptions struct {
	MinConfidence int `json:"minConfidence,omitempty"`
}

// ClearResult counts the records removed by a database clear.
type ClearResult struct {
	Items       int64 `json:"items"`
	Series      int64 `json:"series"`
	Matches     int64 `json:"matches"`
	Collections int64 `json:"collections"`
}

// BulkResult reports approve-all or reject-all.
type BulkResult struct {
	Changed  int       `json:"changed"`
	Skipped  int       `json:"skipped"`
	Failures []Failure `json:"failures,omitempty"`
}

// ApplyFailure is a series whose collection could not be written.
type ApplyFailure struct {
	SeriesID   int64  `json:"seriesId"`
	Collection string `json:"collection"`
	Reason     string `json:"reason"`
}

// ApplyResult reports an apply pass.
type ApplyResult struct {
	Collections  int            `json:"collections"`
	ItemsApplied int            `json:"itemsApplied"`
	SortTitles   int            `json:"sortTitles"`
	SortFailures int            `json:"sortFailures"`
	MissingItems int            `json:"missingItems"`
	Failures     []ApplyFailure `json:"failures,omitempty"`
}
