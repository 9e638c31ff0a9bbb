package seriesmatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"plexshelf/internal/catalog"
	"plexshelf/internal/logging"
	"plexshelf/internal/services"
)

// Stage names used in log context.
const (
	StageNormalize = "normalize"
	StageExtract   = "extract"
	StageGroup     = "group"
	StageKnown     = "known-series"
	StageEnrich    = "enrich"
)

// enrichmentClusterLimit is the cluster size at which fuzzy evidence is
// considered strong enough to skip enrichment.
const enrichmentClusterLimit = 3

// Options configures one matching run.
type Options struct {
	FuzzyEnabled bool
	Fuzzy        FuzzyOptions
	// KnownSeries are stored series that leftover items may join by title
	// similarity. Used only when FuzzyEnabled is set.
	KnownSeries       []KnownSeries
	EnrichmentEnabled bool
	// Concurrency bounds simultaneous lookups.
	Concurrency int
	// LookupTimeout bounds each individual lookup.
	LookupTimeout time.Duration
}

// Skip records an item excluded from matching.
type Skip struct {
	ItemID string
	Reason string
}

// Diagnostic records a non-fatal problem observed during a run.
type Diagnostic struct {
	ItemID  string
	Kind    string
	Message string
}

// Stats summarizes a run by stage.
type Stats struct {
	Items                 int
	Explicit              int
	Clusters              int
	Clustered             int
	KnownSeriesMatched    int
	EnrichmentCalls       int
	EnrichmentFound       int
	EnrichmentUnknown     int
	EnrichmentUnavailable int
}

// Result is the output of Engine.Run. Candidates are in item order.
type Result struct {
	Candidates  []Candidate
	Skipped     []Skip
	Diagnostics []Diagnostic
	Unmatched   []string
	Stats       Stats
}

// Engine runs the matching stages over an item snapshot.
type Engine struct {
	opts   Options
	lookup Lookup
	logger *slog.Logger
}

// NewEngine builds an engine. lookup may be nil when enrichment is disabled.
func NewEngine(opts Options, lookup Lookup, logger *slog.Logger) *Engine {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Engine{
		opts:   opts,
		lookup: lookup,
		logger: logging.NewComponentLogger(logger, "seriesmatch"),
	}
}

type itemState struct {
	item        catalog.Item
	title       string
	author      string
	local       *Candidate
	clusterSize int
}

// Run produces candidates for items. Cancellation is checked between items and
// between stages; a cancelled run returns the context error together with any
// diagnostics gathered so far.
func (e *Engine) Run(ctx context.Context, items []catalog.Item) (Result, error) {
	result := Result{Stats: Stats{Items: len(items)}}

	states, err := e.extract(ctx, items, &result)
	if err != nil {
		return result, err
	}

	if e.opts.FuzzyEnabled {
		if err := e.group(ctx, states, &result); err != nil {
			return result, err
		}
		if err := e.matchKnown(ctx, states, &result); err != nil {
			return result, err
		}
	}

	if e.opts.EnrichmentEnabled && e.lookup != nil {
		if err := e.enrich(ctx, states, &result); err != nil {
			return result, err
		}
	}

	for _, st := range states {
		if st.local == nil {
			result.Unmatched = append(result.Unmatched, st.item.ID)
			continue
		}
		result.Candidates = append(result.Candidates, *st.local)
	}

	logging.WithContext(ctx, e.logger).Info("matching stages complete",
		logging.Int("items", result.Stats.Items),
		logging.Int("candidates", len(result.Candidates)),
		logging.Int("explicit", result.Stats.Explicit),
		logging.Int("clusters", result.Stats.Clusters),
		logging.Int("known_series", result.Stats.KnownSeriesMatched),
		logging.Int("enrichment_calls", result.Stats.EnrichmentCalls),
		logging.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

func (e *Engine) extract(ctx context.Context, items []catalog.Item, result *Result) ([]itemState, error) {
	logger := logging.WithContext(services.WithStage(ctx, StageExtract), e.logger)
	normLogger := logging.WithContext(services.WithStage(ctx, StageNormalize), e.logger)
	states := make([]itemState, 0, len(items))
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		title := Normalize(item.Title)
		if title == "" {
			result.Skipped = append(result.Skipped, Skip{ItemID: item.ID, Reason: "title is empty after normalization"})
			normLogger.Info("skipping item with empty normalized title",
				logging.String(logging.FieldItemID, item.ID),
				logging.String("raw_title", item.Title),
			)
			continue
		}
		st := itemState{item: item, title: title, author: Normalize(item.Author)}

		ext, ok := ExtractHint(item.SeriesHint, item.SeriesIndexHint)
		if !ok {
			ext, ok = Extract(item.Title)
		}
		if ok {
			result.Stats.Explicit++
			st.local = &Candidate{
				ItemID:      item.ID,
				SeriesName:  ext.SeriesName,
				DisplayName: ext.DisplayName,
				Author:      st.author,
				Position:    ext.Position,
				Origin:      OriginExplicit,
				Confidence:  ExplicitConfidence(ext.Position.Known),
				Signals:     Signals{Pattern: ext.Pattern, PositionParsed: ext.Position.Known},
			}
			logger.Debug("explicit series marker",
				logging.String(logging.FieldItemID, item.ID),
				logging.String(logging.FieldSeries, ext.SeriesName),
				logging.String("pattern", ext.Pattern),
				logging.String("position", ext.Position.String()),
			)
		}
		states = append(states, st)
	}
	return states, nil
}

func (e *Engine) group(ctx context.Context, states []itemState, result *Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var entries []fuzzyEntry
	for idx, st := range states {
		if st.local != nil {
			continue
		}
		stem := Stem(st.title)
		if stem == "" {
			continue
		}
		entries = append(entries, fuzzyEntry{index: idx, itemID: st.item.ID, stem: stem, author: st.author})
	}
	if len(entries) < 2 {
		return nil
	}

	clusters := newGrouper(e.opts.Fuzzy, entries).group()
	logger := logging.WithContext(services.WithStage(ctx, StageGroup), e.logger)
	for _, c := range clusters {
		if err := ctx.Err(); err != nil {
			return err
		}
		confidence := FuzzyConfidence(c)
		result.Stats.Clusters++
		result.Stats.Clustered += len(c.Members)
		for _, idx := range c.Members {
			st := &states[idx]
			st.clusterSize = len(c.Members)
			position := positionFromTitle(st.title)
			st.local = &Candidate{
				ItemID:      st.item.ID,
				SeriesName:  c.SeriesName,
				DisplayName: c.DisplayName,
				Author:      st.author,
				Position:    position,
				Origin:      OriginFuzzy,
				Confidence:  confidence,
				Signals: Signals{
					ClusterSize:       len(c.Members),
					ClusterSimilarity: c.AvgSimilarity,
					PositionParsed:    position.Known,
				},
			}
		}
		logger.Debug("fuzzy cluster",
			logging.String(logging.FieldSeries, c.SeriesName),
			logging.Int("members", len(c.Members)),
			logging.Int("avg_similarity", c.AvgSimilarity),
			logging.Int("confidence", confidence),
		)
	}
	return nil
}

func (e *Engine) matchKnown(ctx context.Context, states []itemState, result *Result) error {
	if len(e.opts.KnownSeries) == 0 {
		return nil
	}
	logger := logging.WithContext(services.WithStage(ctx, StageKnown), e.logger)
	for idx := range states {
		if err := ctx.Err(); err != nil {
			return err
		}
		st := &states[idx]
		if st.local != nil {
			continue
		}
		m, ok := bestKnownSeries(st.title, st.author, e.opts.KnownSeries, e.opts.Fuzzy)
		if !ok {
			continue
		}
		result.Stats.KnownSeriesMatched++
		position := positionFromTitle(st.title)
		st.local = &Candidate{
			ItemID:      st.item.ID,
			SeriesName:  m.series.Name,
			DisplayName: m.series.DisplayName,
			Author:      st.author,
			Position:    position,
			Origin:      OriginFuzzy,
			Confidence:  KnownSeriesConfidence(m.score),
			Signals: Signals{
				KnownSeries:      true,
				SeriesSimilarity: m.similarity,
				AuthorMatched:    m.authorMatched,
				PositionParsed:   position.Known,
			},
		}
		logger.Debug("joined existing series",
			logging.String(logging.FieldItemID, st.item.ID),
			logging.String(logging.FieldSeries, m.series.Name),
			logging.Int("similarity", m.similarity),
			logging.Int("confidence", st.local.Confidence),
		)
	}
	return nil
}

func needsEnrichment(st itemState) bool {
	if st.local == nil {
		return true
	}
	return st.local.Origin == OriginFuzzy && st.clusterSize < enrichmentClusterLimit
}

func (e *Engine) enrich(ctx context.Context, states []itemState, result *Result) error {
	var targets []int
	for idx, st := range states {
		if needsEnrichment(st) {
			targets = append(targets, idx)
		}
	}
	if len(targets) == 0 {
		return nil
	}
	ctx = services.WithStage(ctx, StageEnrich)
	logger := logging.WithContext(ctx, e.logger)

	results := make([]LookupResult, len(states))
	called := make([]bool, len(states))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)
	for _, idx := range targets {
		if gctx.Err() != nil {
			break
		}
		st := states[idx]
		called[idx] = true
		g.Go(func() error {
			results[idx] = e.lookupOne(gctx, LookupRequest{
				Title:     st.title,
				Author:    st.author,
				RawTitle:  st.item.Title,
				RawAuthor: st.item.Author,
			})
			return nil
		})
	}
	_ = g.Wait()

	// Results are folded in item order so the outcome does not depend on
	// completion order.
	for _, idx := range targets {
		if !called[idx] {
			continue
		}
		st := &states[idx]
		res := results[idx]
		result.Stats.EnrichmentCalls++
		switch res.Outcome {
		case OutcomeFound:
			result.Stats.EnrichmentFound++
		case OutcomeUnknown:
			result.Stats.EnrichmentUnknown++
		case OutcomeUnavailable:
			result.Stats.EnrichmentUnavailable++
			result.Diagnostics = append(result.Diagnostics, Diagnostic{
				ItemID:  st.item.ID,
				Kind:    services.KindLookupUnavailable,
				Message: res.Reason,
			})
			logging.WarnWithContext(logger, "series lookup unavailable", "enrichment_unavailable",
				logging.String(logging.FieldItemID, st.item.ID),
				logging.String("reason", res.Reason),
				logging.String(logging.FieldImpact, "item scored from local signals only"),
				logging.String(logging.FieldErrorHint, "check enrichment provider credentials and quota"),
			)
		}
		st.local = ApplyEnrichment(st.local, st.item.ID, st.author, res)
	}
	return ctx.Err()
}

func (e *Engine) lookupOne(ctx context.Context, req LookupRequest) (res LookupResult) {
	callCtx := ctx
	if e.opts.LookupTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.opts.LookupTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			res = Unavailable(fmt.Sprintf("provider panic: %v", r))
		}
	}()
	res = e.lookup.Lookup(callCtx, req)
	if err := callCtx.Err(); err != nil && res.Outcome != OutcomeUnavailable {
		if errors.Is(err, context.DeadlineExceeded) {
			return Unavailable("lookup timed out")
		}
		return Unavailable(err.Error())
	}
	return res
}
