package api

import (
	"context"
	"log/slog"

	"plexshelf/internal/catalog"
	"plexshelf/internal/config"
	"plexshelf/internal/lifecycle"
	"plexshelf/internal/logging"
	"plexshelf/internal/seriesmatch"
	"plexshelf/internal/services"
	"plexshelf/internal/store"
)

// CollectionSink writes approved series to the external catalog.
type CollectionSink interface {
	AddToCollection(ctx context.Context, collection string, itemIDs []string) error
	SetSortTitle(ctx context.Context, itemID, sortTitle string) error
}

// Deps are the collaborators of a Service. Source and Sink may be nil when
// the caller only reviews; Lookup is nil when enrichment is disabled.
type Deps struct {
	Store  *store.Store
	Source catalog.Source
	Sink   CollectionSink
	Lookup seriesmatch.Lookup
	Logger *slog.Logger
}

// Service implements the control-surface operations.
type Service struct {
	cfg     *config.Config
	store   *store.Store
	manager *lifecycle.Manager
	source  catalog.Source
	sink    CollectionSink
	lookup  seriesmatch.Lookup
	logger  *slog.Logger
}

// NewService builds the service and marks runs left open by a previous
// process as interrupted.
func NewService(ctx context.Context, cfg *config.Config, deps Deps) (*Service, error) {
	if cfg == nil || deps.Store == nil {
		return nil, services.Wrap(services.ErrConfiguration, "api", "new service", "config and store are required", nil)
	}
	logger := logging.NewComponentLogger(deps.Logger, "api")
	lock := lifecycle.NewRunLock(cfg.RunLockPath())
	svc := &Service{
		cfg:     cfg,
		store:   deps.Store,
		manager: lifecycle.NewManager(deps.Store, lock, lifecycle.PolicyFromConfig(cfg), deps.Logger),
		source:  deps.Source,
		sink:    deps.Sink,
		lookup:  deps.Lookup,
		logger:  logger,
	}
	// Holding the run lock proves no other process is mid-run, so any run
	// still marked running was interrupted.
	if token, err := lock.Acquire(); err == nil {
		n, resetErr := deps.Store.ResetInterruptedRuns(ctx)
		if releaseErr := lock.Release(token); releaseErr != nil {
			logger.Error("release run lock failed", logging.Error(releaseErr))
		}
		if resetErr != nil {
			return nil, services.Wrap(services.ErrPersistence, "api", "reset interrupted runs", "", resetErr)
		}
		if n > 0 {
			logging.WarnWithContext(logger, "previous matching run did not finish", "run_interrupted",
				logging.Int64("runs", n),
				logging.String(logging.FieldImpact, "the interrupted run committed nothing"),
				logging.String(logging.FieldErrorHint, "run matching again"),
			)
		}
	}
	return svc, nil
}

// Manager exposes the lifecycle manager.
func (s *Service) Manager() *lifecycle.Manager {
	return s.manager
}

// Scan replaces the stored catalog snapshot with the source's current items.
func (s *Service) Scan(ctx context.Context) (ScanResult, error) {
	if s.source == nil {
		return ScanResult{}, services.Wrap(services.ErrConfiguration, "api", "scan", "no catalog source configured", nil)
	}
	raw, err := s.source.ListItems(ctx)
	if err != nil {
		return ScanResult{}, err
	}
	ingested := catalog.Ingest(raw)
	for _, rej := range ingested.Rejected {
		logging.WarnWithContext(s.logger, "catalog record rejected", "catalog_record_rejected",
			logging.String(logging.FieldItemID, rej.ItemID),
			logging.String("reason", rej.Reason),
			logging.String(logging.FieldImpact, "item excluded from matching"),
			logging.String(logging.FieldErrorHint, "fix the title or id in the catalog"),
		)
	}
	if err := s.store.ReplaceItems(ctx, ingested.Items); err != nil {
		return ScanResult{}, services.Wrap(services.ErrPersistence, "api", "scan", "store items", err)
	}
	result := ScanResult{Items: len(ingested.Items), Warnings: ingested.Warnings}
	for _, rej := range ingested.Rejected {
		result.Rejected = append(result.Rejected, Rejection{ItemID: rej.ItemID, Reason: rej.Reason})
	}
	s.logger.Info("catalog scanned",
		logging.Int("items", result.Items),
		logging.Int("rejected", len(result.Rejected)),
		logging.Int("warnings", len(result.Warnings)),
	)
	return result, nil
}

// MatchOptions toggles engine stages for one run.
type MatchOptions struct {
	DisableFuzzy      bool
	DisableEnrichment bool
}

// RunMatching runs the engine with thresholds from configuration.
func (s *Service) RunMatching(ctx context.Context, opts MatchOptions) (RunSummary, error) {
	engine := seriesmatch.Options{
		FuzzyEnabled: s.cfg.Matching.FuzzyEnabled && !opts.DisableFuzzy,
		Fuzzy: seriesmatch.FuzzyOptions{
			Threshold:       s.cfg.Matching.FuzzyThreshold,
			AuthorThreshold: s.cfg.Matching.AuthorThreshold,
		},
		EnrichmentEnabled: s.lookup != nil && !opts.DisableEnrichment,
		Concurrency:       s.cfg.Enrichment.Concurrency,
		LookupTimeout:     s.cfg.EnrichmentTimeout(),
	}
	result, err := s.manager.RunMatching(ctx, lifecycle.RunOptions{Engine: engine, Lookup: s.lookup})
	return FromRunResult(result), err
}

// ListMatches lists matches, optionally filtered by status.
func (s *Service) ListMatches(ctx context.Context, status string) ([]Match, error) {
	filter := store.Filter{}
	if status != "" {
		parsed, err := store.ParseStatus(status)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "api", "list matches", "", err)
		}
		filter.Status = parsed
	}
	matches, err := s.manager.GetMatches(ctx, filter)
	if err != nil {
		return nil, err
	}
	return FromMatches(matches), nil
}

// Approve approves a match.
func (s *Service) Approve(ctx context.Context, id int64) (Match, error) {
	return s.setStatus(ctx, id, store.StatusApproved)
}

// Reject rejects a match.
func (s *Service) Reject(ctx context.Context, id int64) (Match, error) {
	return s.setStatus(ctx, id, store.StatusRejected)
}

// Reopen returns a rejected match to pending.
func (s *Service) Reopen(ctx context.Context, id int64) (Match, error) {
	return s.setStatus(ctx, id, store.StatusPending)
}

func (s *Service) setStatus(ctx context.Context, id int64, to store.MatchStatus) (Match, error) {
	match, err := s.manager.SetMatchStatus(ctx, id, to)
	if err != nil {
		return Match{}, err
	}
	return FromMatch(match), nil
}

// ApproveAll approves every pending match the policy allows, optionally only
// those at or above a confidence floor.
func (s *Service) ApproveAll(ctx context.Context, opts BulkOptions) (BulkResult, error) {
	return s.bulk(ctx, store.StatusApproved, opts)
}

// RejectAll rejects every pending match, optionally only those at or above a
// confidence floor.
func (s *Service) RejectAll(ctx context.Context, opts BulkOptions) (BulkResult, error) {
	return s.bulk(ctx, store.StatusRejected, opts)
}

func (s *Service) bulk(ctx context.Context, to store.MatchStatus, opts BulkOptions) (BulkResult, error) {
	res, err := s.manager.BulkSetStatus(ctx, to, lifecycle.BulkOptions{MinConfidence: opts.MinConfidence})
	out := BulkResult{Changed: res.Changed, Skipped: res.Skipped, Failures: fromFailures(res.Failures)}
	return out, err
}

// Clear removes the stored catalog, series, matches and collection records so
// the next scan starts fresh. Collections already written to Plex are kept.
func (s *Service) Clear(ctx context.Context) (ClearResult, error) {
	res, err := s.manager.Clear(ctx)
	if err != nil {
		return ClearResult{}, err
	}
	return ClearResult{Items: res.Items, Series: res.Series, Matches: res.Matches, Collections: res.Collections}, nil
}

// ListSeries lists all series with member counts.
func (s *Service) ListSeries(ctx context.Context) ([]Series, error) {
	series, err := s.store.ListSeries(ctx)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "api", "list series", "", err)
	}
	out := make([]Series, 0, len(series))
	for _, item := range series {
		out = append(out, FromSeries(item))
	}
	return out, nil
}

// Status reports stored counts and run state.
func (s *Service) Status(ctx context.Context) (Status, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return Status{}, services.Wrap(services.ErrPersistence, "api", "status", "", err)
	}
	status := Status{
		DatabasePath: s.store.Path(),
		Stats:        FromStats(stats),
		Enrichment:   "disabled",
	}
	if s.lookup != nil {
		status.Enrichment = s.cfg.Enrichment.Provider
	}
	if token, ok := s.manager.ActiveRun(); ok {
		status.ActiveRun = &ActiveRun{RunID: token.RunID, StartedAt: formatTime(token.StartedAt)}
	}
	last, err := s.store.LastRun(ctx)
	if err != nil {
		return Status{}, services.Wrap(services.ErrPersistence, "api", "status", "last run", err)
	}
	if last != nil {
		record := FromRun(*last)
		status.LastRun = &record
	}
	return status, nil
}
