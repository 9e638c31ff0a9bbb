package lifecycle

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"plexshelf/internal/catalog"
	"plexshelf/internal/config"
	"plexshelf/internal/logging"
	"plexshelf/internal/seriesmatch"
	"plexshelf/internal/services"
	"plexshelf/internal/store"
)

// Repository is the persistence the Manager needs. *store.Store satisfies it.
type Repository interface {
	ListItems(ctx context.Context) ([]catalog.Item, error)
	ListSeries(ctx context.Context) ([]store.Series, error)
	ListMatches(ctx context.Context, filter store.Filter) ([]store.Match, error)
	GetMatch(ctx context.Context, id int64) (*store.Match, error)
	Commit(ctx context.Context, cs store.Changeset) (store.CommitResult, error)
	UpdateMatchStatus(ctx context.Context, change store.StatusChange) error
	StartRun(ctx context.Context, id string, startedAt time.Time) error
	FinishRun(ctx context.Context, run store.Run) error
	RecordDiagnostics(ctx context.Context, runID string, diagnostics []store.Diagnostic) error
	MarkApplied(ctx context.Context, seriesID int64, collectionName string, matchIDs []int64) (int64, error)
	Clear(ctx context.Context) (store.ClearResult, error)
}

// RunOptions configures a single matching run.
type RunOptions struct {
	Engine seriesmatch.Options
	// Lookup is consulted only when Engine.EnrichmentEnabled is set.
	Lookup seriesmatch.Lookup
}

// Failure is one item-level problem surfaced in a run result.
type Failure struct {
	ItemID string `json:"item_id"`
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

// RunResult summarizes a completed matching run.
type RunResult struct {
	RunID          string             `json:"run_id"`
	StartedAt      time.Time          `json:"started_at"`
	FinishedAt     time.Time          `json:"finished_at"`
	Items          int                `json:"items"`
	Candidates     int                `json:"candidates"`
	Created        int                `json:"created"`
	Updated        int                `json:"updated"`
	AutoApproved   int                `json:"auto_approved"`
	BelowThreshold int                `json:"below_threshold"`
	Unmatched      int                `json:"unmatched"`
	Skipped        []seriesmatch.Skip `json:"skipped,omitempty"`
	Failures       []Failure          `json:"failures,omitempty"`
	Stats          seriesmatch.Stats  `json:"stats"`
}

// BulkResult reports the outcome of a bulk status change.
type BulkResult struct {
	Changed  int       `json:"changed"`
	Skipped  int       `json:"skipped"`
	Failures []Failure `json:"failures,omitempty"`
}

// Manager coordinates matching runs and review decisions.
type Manager struct {
	repo   Repository
	lock   *RunLock
	policy Policy
	logger *slog.Logger

	// writeMu serializes status changes with the commit phase of a run.
	writeMu sync.Mutex
}

// NewManager constructs a lifecycle manager. A nil lock gets an in-process
// lock without a file.
func NewManager(repo Repository, lock *RunLock, policy Policy, logger *slog.Logger) *Manager {
	if lock == nil {
		lock = NewRunLock("")
	}
	return &Manager{
		repo:   repo,
		lock:   lock,
		policy: policy,
		logger: logging.NewComponentLogger(logger, "lifecycle"),
	}
}

// Policy returns the active policy.
func (m *Manager) Policy() Policy {
	return m.policy
}

// ActiveRun reports the run currently holding the lock in this process.
func (m *Manager) ActiveRun() (RunToken, bool) {
	return m.lock.Active()
}

// RunMatching runs the engine over the stored catalog snapshot and commits the
// reconciled result. A cancelled or failed run commits nothing, but its
// diagnostics are still recorded.
func (m *Manager) RunMatching(ctx context.Context, opts RunOptions) (RunResult, error) {
	token, err := m.lock.Acquire()
	if err != nil {
		return RunResult{}, err
	}
	defer func() {
		if releaseErr := m.lock.Release(token); releaseErr != nil {
			m.logger.Error("release run lock failed", logging.Error(releaseErr))
		}
	}()

	ctx = services.WithRunID(ctx, token.RunID)
	logger := logging.WithContext(ctx, m.logger)
	result := RunResult{RunID: token.RunID, StartedAt: token.StartedAt}

	// Run bookkeeping must survive cancellation of the caller's context.
	bookkeeping := context.WithoutCancel(ctx)
	if err := m.repo.StartRun(bookkeeping, token.RunID, token.StartedAt); err != nil {
		return result, services.Wrap(services.ErrPersistence, "lifecycle", "start run", "", err)
	}
	logger.Info("matching run started")

	runErr := m.run(ctx, opts, &result)

	result.FinishedAt = time.Now().UTC()
	record := store.Run{
		ID:             token.RunID,
		FinishedAt:     &result.FinishedAt,
		Outcome:        store.RunCompleted,
		Items:          result.Items,
		Created:        result.Created,
		Updated:        result.Updated,
		AutoApproved:   result.AutoApproved,
		BelowThreshold: result.BelowThreshold,
		Skipped:        len(result.Skipped),
		Failures:       len(result.Failures),
	}
	switch {
	case runErr == nil:
	case errors.Is(runErr, context.Canceled), errors.Is(runErr, context.DeadlineExceeded):
		record.Outcome = store.RunCancelled
		record.ErrorMessage = runErr.Error()
	default:
		record.Outcome = store.RunFailed
		record.ErrorMessage = runErr.Error()
	}
	if err := m.repo.FinishRun(bookkeeping, record); err != nil {
		logging.WarnWithContext(logger, "failed to record run outcome", "run_record_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run history is incomplete"),
			logging.String(logging.FieldErrorHint, "check database permissions"),
		)
	}

	if runErr != nil {
		logging.ErrorWithContext(logger, "matching run failed", "run_failed",
			logging.Error(runErr),
			logging.String("outcome", string(record.Outcome)),
		)
		return result, runErr
	}
	logger.Info("matching run completed",
		logging.Int("items", result.Items),
		logging.Int("created", result.Created),
		logging.Int("updated", result.Updated),
		logging.Int("auto_approved", result.AutoApproved),
		logging.Int("below_threshold", result.BelowThreshold),
		logging.Int("failures", len(result.Failures)),
		logging.Duration("elapsed", result.FinishedAt.Sub(result.StartedAt)),
	)
	return result, nil
}

func (m *Manager) run(ctx context.Context, opts RunOptions, result *RunResult) error {
	items, err := m.repo.ListItems(ctx)
	if err != nil {
		return services.Wrap(services.ErrPersistence, "lifecycle", "load items", "", err)
	}
	result.Items = len(items)

	if opts.Engine.FuzzyEnabled && opts.Engine.KnownSeries == nil {
		stored, err := m.repo.ListSeries(ctx)
		if err != nil {
			return services.Wrap(services.ErrPersistence, "lifecycle", "load series", "", err)
		}
		opts.Engine.KnownSeries = knownSeries(stored)
	}

	engine := seriesmatch.NewEngine(opts.Engine, opts.Lookup, m.logger)
	res, runErr := engine.Run(ctx, items)

	result.Skipped = res.Skipped
	result.Stats = res.Stats
	result.Unmatched = len(res.Unmatched)
	result.Candidates = len(res.Candidates)
	diagnostics := make([]store.Diagnostic, 0, len(res.Diagnostics)+len(res.Skipped))
	for _, skip := range res.Skipped {
		result.Failures = append(result.Failures, Failure{ItemID: skip.ItemID, Kind: services.KindValidation, Reason: skip.Reason})
		diagnostics = append(diagnostics, store.Diagnostic{ItemID: skip.ItemID, Kind: services.KindValidation, Message: skip.Reason})
	}
	for _, d := range res.Diagnostics {
		result.Failures = append(result.Failures, Failure{ItemID: d.ItemID, Kind: d.Kind, Reason: d.Message})
		diagnostics = append(diagnostics, store.Diagnostic{ItemID: d.ItemID, Kind: d.Kind, Message: d.Message})
	}
	if err := m.repo.RecordDiagnostics(context.WithoutCancel(ctx), result.RunID, diagnostics); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, m.logger), "failed to record run diagnostics", "diagnostics_record_failed",
			logging.Error(err),
			logging.Int("count", len(diagnostics)),
			logging.String(logging.FieldImpact, "enrichment failures missing from run history"),
			logging.String(logging.FieldErrorHint, "check database permissions"),
		)
	}
	if runErr != nil {
		return runErr
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	series, err := m.repo.ListSeries(ctx)
	if err != nil {
		return services.Wrap(services.ErrPersistence, "lifecycle", "load series", "", err)
	}
	matches, err := m.repo.ListMatches(ctx, store.Filter{})
	if err != nil {
		return services.Wrap(services.ErrPersistence, "lifecycle", "load matches", "", err)
	}

	plan := Reconcile(res.Candidates, series, matches, m.policy)
	plan.Changeset.RunID = result.RunID
	if err := ctx.Err(); err != nil {
		return err
	}
	if !plan.Changeset.Empty() {
		if _, err := m.repo.Commit(ctx, plan.Changeset); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return services.Wrap(services.ErrPersistence, "lifecycle", "commit run", "changes rolled back", err)
		}
	}
	result.Created = plan.Created
	result.Updated = plan.Updated
	result.AutoApproved = plan.AutoApproved
	result.BelowThreshold = plan.BelowThreshold
	return nil
}

func knownSeries(stored []store.Series) []seriesmatch.KnownSeries {
	out := make([]seriesmatch.KnownSeries, 0, len(stored))
	for _, s := range stored {
		out = append(out, seriesmatch.KnownSeries{
			Name:        s.NormalizedName,
			DisplayName: s.Name,
			Author:      s.Author,
		})
	}
	return out
}

// GetMatches lists stored matches.
func (m *Manager) GetMatches(ctx context.Context, filter store.Filter) ([]store.Match, error) {
	matches, err := m.repo.ListMatches(ctx, filter)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "lifecycle", "list matches", "", err)
	}
	return matches, nil
}

// SetMatchStatus moves a match to a new status. Requesting the current status
// is a no-op. Applied matches are frozen.
func (m *Manager) SetMatchStatus(ctx context.Context, id int64, to store.MatchStatus) (store.Match, error) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	return m.setStatusLocked(ctx, id, to)
}

func (m *Manager) setStatusLocked(ctx context.Context, id int64, to store.MatchStatus) (store.Match, error) {
	match, err := m.repo.GetMatch(ctx, id)
	if err != nil {
		return store.Match{}, services.Wrap(services.ErrPersistence, "lifecycle", "load match", "", err)
	}
	if match == nil {
		return store.Match{}, services.Wrap(services.ErrNotFound, "lifecycle", "set status", fmt.Sprintf("match %d", id), nil)
	}
	if match.Status == to {
		return *match, nil
	}
	if match.Applied() {
		return store.Match{}, services.Wrap(services.ErrInvalidTransition, "lifecycle", "set status",
			fmt.Sprintf("match %d was applied to a collection and cannot change", id), nil)
	}
	if !CanTransition(match.Status, to) {
		return store.Match{}, services.Wrap(services.ErrInvalidTransition, "lifecycle", "set status",
			fmt.Sprintf("match %d cannot move from %s to %s", id, match.Status, to), nil)
	}

	change := store.StatusChange{ID: id, From: match.Status, To: to}
	if to == store.StatusApproved {
		supersede, err := m.supersedeTargets(ctx, *match)
		if err != nil {
			return store.Match{}, err
		}
		change.Supersede = supersede
	}

	if err := m.repo.UpdateMatchStatus(ctx, change); err != nil {
		if errors.Is(err, store.ErrStaleMatch) {
			return store.Match{}, services.Wrap(services.ErrInvalidTransition, "lifecycle", "set status",
				fmt.Sprintf("match %d changed while updating", id), err)
		}
		return store.Match{}, services.Wrap(services.ErrPersistence, "lifecycle", "set status", "", err)
	}

	logger := logging.WithContext(services.WithItemID(ctx, match.ItemID), m.logger)
	attrs := logging.DecisionAttrs("match_status", string(to), "review decision")
	attrs = append(attrs,
		logging.Int64(logging.FieldMatchID, id),
		logging.String(logging.FieldSeries, match.SeriesName),
		logging.String("from", string(match.Status)),
	)
	if len(change.Supersede) > 0 {
		attrs = append(attrs, logging.Any("superseded", change.Supersede))
	}
	logger.Info("match status changed", logging.Args(attrs...)...)

	updated, err := m.repo.GetMatch(ctx, id)
	if err != nil || updated == nil {
		match.Status = to
		return *match, nil
	}
	return *updated, nil
}

// supersedeTargets returns the other approved matches of the item that must be
// rejected before approving match, or an error when policy forbids it.
func (m *Manager) supersedeTargets(ctx context.Context, match store.Match) ([]int64, error) {
	approved, err := m.repo.ListMatches(ctx, store.Filter{ItemID: match.ItemID, Status: store.StatusApproved})
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "lifecycle", "load approved matches", "", err)
	}
	var ids []int64
	for _, other := range approved {
		if other.ID == match.ID {
			continue
		}
		if m.policy.SupersedePolicy == config.SupersedeReject {
			return nil, services.Wrap(services.ErrInvalidTransition, "lifecycle", "approve",
				fmt.Sprintf("item %s already has approved match %d (%s)", match.ItemID, other.ID, other.SeriesName), nil)
		}
		if other.Applied() {
			return nil, services.Wrap(services.ErrInvalidTransition, "lifecycle", "approve",
				fmt.Sprintf("item %s is already applied to %s", match.ItemID, other.SeriesName), nil)
		}
		ids = append(ids, other.ID)
	}
	return ids, nil
}

// BulkOptions narrows a bulk status change.
type BulkOptions struct {
	// MinConfidence limits the change to pending matches scoring at least this
	// much. Zero selects every pending match.
	MinConfidence int
}

// BulkSetStatus approves or rejects pending matches. Approval visits the
// highest confidence first and skips items that already hold an approved
// match, so it never supersedes.
func (m *Manager) BulkSetStatus(ctx context.Context, to store.MatchStatus, opts BulkOptions) (BulkResult, error) {
	if to != store.StatusApproved && to != store.StatusRejected {
		return BulkResult{}, services.Wrap(services.ErrValidation, "lifecycle", "bulk set status",
			fmt.Sprintf("unsupported bulk status %q", to), nil)
	}
	if opts.MinConfidence < 0 || opts.MinConfidence > 100 {
		return BulkResult{}, services.Wrap(services.ErrValidation, "lifecycle", "bulk set status",
			fmt.Sprintf("minimum confidence %d outside 0-100", opts.MinConfidence), nil)
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	pending, err := m.repo.ListMatches(ctx, store.Filter{Status: store.StatusPending})
	if err != nil {
		return BulkResult{}, services.Wrap(services.ErrPersistence, "lifecycle", "list pending", "", err)
	}
	taken := make(map[string]bool)
	if to == store.StatusApproved {
		approved, err := m.repo.ListMatches(ctx, store.Filter{Status: store.StatusApproved})
		if err != nil {
			return BulkResult{}, services.Wrap(services.ErrPersistence, "lifecycle", "list approved", "", err)
		}
		for _, match := range approved {
			taken[match.ItemID] = true
		}
		slices.SortStableFunc(pending, func(a, b store.Match) int {
			return cmp.Or(cmp.Compare(b.Confidence, a.Confidence), cmp.Compare(a.ID, b.ID))
		})
	}

	var result BulkResult
	for _, match := range pending {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if match.Confidence < opts.MinConfidence {
			continue
		}
		if to == store.StatusApproved && taken[match.ItemID] {
			result.Skipped++
			continue
		}
		if _, err := m.setStatusLocked(ctx, match.ID, to); err != nil {
			result.Failures = append(result.Failures, Failure{
				ItemID: match.ItemID,
				Kind:   services.FailureKind(err),
				Reason: err.Error(),
			})
			continue
		}
		taken[match.ItemID] = true
		result.Changed++
	}
	return result, nil
}

// MarkApplied records that a series' approved matches were materialized as an
// external collection. Applied matches can no longer change status.
func (m *Manager) MarkApplied(ctx context.Context, seriesID int64, collectionName string, matchIDs []int64) (int64, error) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	n, err := m.repo.MarkApplied(ctx, seriesID, collectionName, matchIDs)
	if err != nil {
		return 0, services.Wrap(services.ErrPersistence, "lifecycle", "mark applied", collectionName, err)
	}
	return n, nil
}

// Clear wipes the catalog snapshot, series, matches and collection records. It
// takes the run lock, so it fails with ErrRunAlreadyInProgress while a run is
// active. Plex collections already created are left in place.
func (m *Manager) Clear(ctx context.Context) (store.ClearResult, error) {
	token, err := m.lock.Acquire()
	if err != nil {
		return store.ClearResult{}, err
	}
	defer func() {
		if releaseErr := m.lock.Release(token); releaseErr != nil {
			m.logger.Error("release run lock failed", logging.Error(releaseErr))
		}
	}()

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	result, err := m.repo.Clear(ctx)
	if err != nil {
		return store.ClearResult{}, services.Wrap(services.ErrPersistence, "lifecycle", "clear", "", err)
	}
	attrs := logging.DecisionAttrs("database_clear", "cleared", "operator request")
	attrs = append(attrs,
		logging.Int64("items", result.Items),
		logging.Int64("series", result.Series),
		logging.Int64("matches", result.Matches),
		logging.Int64("collections", result.Collections),
	)
	m.logger.Info("database cleared", logging.Args(attrs...)...)
	return result, nil
}
