package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"plexshelf/internal/seriesmatch"
)

// MatchStatus is the review state of a series match.
type MatchStatus string

const (
	StatusPending  MatchStatus = "pending"
	StatusApproved MatchStatus = "approved"
	StatusRejected MatchStatus = "rejected"
)

// ErrStaleMatch reports that a conditional status update found the match in a
// different state than the caller expected.
var ErrStaleMatch = errors.New("match changed concurrently")

// ParseStatus converts user input into a MatchStatus.
func ParseStatus(value string) (MatchStatus, error) {
	switch MatchStatus(strings.ToLower(strings.TrimSpace(value))) {
	case StatusPending:
		return StatusPending, nil
	case StatusApproved:
		return StatusApproved, nil
	case StatusRejected:
		return StatusRejected, nil
	}
	return "", fmt.Errorf("unknown match status %q", value)
}

// Series is a named grouping of catalog items.
type Series struct {
	ID             int64
	Name           string
	NormalizedName string
	Author         string
	CanonicalID    string
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Member counts, populated by ListSeries.
	Pending  int
	Approved int
	Applied  int
}

// Match links one catalog item to one series.
type Match struct {
	ID         int64
	ItemID     string
	SeriesID   int64
	Confidence int
	Position   seriesmatch.Position
	Status     MatchStatus
	Origin     string
	Signals    string
	Notes      string
	RunID      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	AppliedAt  *time.Time

	// ItemPresent is false when the item left the catalog snapshot after
	// the match was created.
	ItemPresent bool
	// Joined for display.
	ItemTitle  string
	ItemAuthor string
	SeriesName string
}

// Applied reports whether the match has been materialized as a collection.
func (m Match) Applied() bool {
	return m.AppliedAt != nil
}

// Filter narrows ListMatches. Zero values match everything.
type Filter struct {
	Status   MatchStatus
	SeriesID int64
	ItemID   string
}

// SeriesInsert creates a series inside a Changeset.
type SeriesInsert struct {
	NormalizedName string
	Name           string
	Author         string
	CanonicalID    string
}

// MatchInsert creates a match inside a Changeset. Exactly one of SeriesID and
// SeriesKey is set; SeriesKey refers to a SeriesInsert in the same changeset.
//
// A Status of StatusApproved is downgraded to pending at write time when the
// item already holds an approved match.
type MatchInsert struct {
	ItemID     string
	SeriesID   int64
	SeriesKey  string
	Confidence int
	Position   seriesmatch.Position
	Status     MatchStatus
	Origin     string
	Signals    string
}

// MatchUpdate rescores an existing match. Status is left alone unless Promote
// is set, in which case a still-pending match becomes approved when the item
// has no other approved match.
type MatchUpdate struct {
	ID         int64
	Confidence int
	Position   seriesmatch.Position
	Origin     string
	Signals    string
	Promote    bool
}

// Changeset is everything one matching run writes.
type Changeset struct {
	RunID   string
	Series  []SeriesInsert
	Inserts []MatchInsert
	Updates []MatchUpdate
}

// Empty reports whether the changeset has nothing to write.
func (c Changeset) Empty() bool {
	return len(c.Series) == 0 && len(c.Inserts) == 0 && len(c.Updates) == 0
}

// CommitResult reports identifiers assigned during Commit.
type CommitResult struct {
	SeriesIDs map[string]int64
	MatchIDs  []int64
}

// StatusChange is a conditional status update. Supersede lists approved
// matches on the same item that are rejected first, in the same transaction.
type StatusChange struct {
	ID        int64
	From      MatchStatus
	To        MatchStatus
	Supersede []int64
}

// RunOutcome is the terminal state of a matching run.
type RunOutcome string

const (
	RunRunning     RunOutcome = "running"
	RunCompleted   RunOutcome = "completed"
	RunFailed      RunOutcome = "failed"
	RunCancelled   RunOutcome = "cancelled"
	RunInterrupted RunOutcome = "interrupted"
)

// Run records one matching run.
type Run struct {
	ID             string
	StartedAt      time.Time
	FinishedAt     *time.Time
	Outcome        RunOutcome
	Items          int
	Created        int
	Updated        int
	AutoApproved   int
	BelowThreshold int
	Skipped        int
	Failures       int
	ErrorMessage   string
}

// Diagnostic is a non-fatal problem observed during a run.
type Diagnostic struct {
	ID        int64
	RunID     string
	ItemID    string
	Kind      string
	Message   string
	CreatedAt time.Time
}

// CollectionStatus tracks the external collection for a series.
type CollectionStatus string

const (
	CollectionPending CollectionStatus = "pending"
	CollectionCreated CollectionStatus = "created"
	CollectionFailed  CollectionStatus = "failed"
)

// Collection is the Plex collection materialized for a series.
type Collection struct {
	SeriesID     int64
	SeriesName   string
	Name         string
	Status       CollectionStatus
	ErrorMessage string
	SyncedAt     *time.Time
	UpdatedAt    time.Time
}

// Stats summarizes stored state.
type Stats struct {
	Items       int
	Series      int
	Pending     int
	Approved    int
	Rejected    int
	Applied     int
	Collections int
}
