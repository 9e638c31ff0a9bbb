package api

import (
	"context"
	"fmt"
	"strings"

	"plexshelf/internal/logging"
	"plexshelf/internal/seriesmatch"
	"plexshelf/internal/services"
	"plexshelf/internal/store"
)

// unsortedPrefix sorts books without a usable index after numbered ones.
const unsortedPrefix = 99

// CollectionName is the external collection created for a series.
func CollectionName(series string) string {
	return strings.TrimSpace(series) + " Series"
}

// SortTitle builds the sort title that orders a book within its series:
// "03 - Mistborn" for a numbered book, "99 - Mistborn Companion" for a
// companion, "99 - Mistborn" otherwise.
func SortTitle(series string, position seriesmatch.Position) string {
	series = strings.TrimSpace(series)
	switch {
	case position.Known:
		return fmt.Sprintf("%02d - %s", position.Number, series)
	case strings.EqualFold(position.Label, "companion"):
		return fmt.Sprintf("%02d - %s Companion", unsortedPrefix, series)
	default:
		return fmt.Sprintf("%02d - %s", unsortedPrefix, series)
	}
}

type applyGroup struct {
	seriesID int64
	name     string
	matches  []store.Match
}

// Apply writes every approved, not yet applied series to the sink: sort
// titles first, then the collection, then the applied marker. A series whose
// collection write fails is recorded as failed and retried by the next apply.
// Sort title failures are counted but do not block the collection. Matches
// whose item is gone from the catalog snapshot are skipped and stay unapplied.
func (s *Service) Apply(ctx context.Context) (ApplyResult, error) {
	if s.sink == nil {
		return ApplyResult{}, services.Wrap(services.ErrConfiguration, "api", "apply", "no collection sink configured", nil)
	}
	approved, err := s.manager.GetMatches(ctx, store.Filter{Status: store.StatusApproved})
	if err != nil {
		return ApplyResult{}, err
	}

	var result ApplyResult
	var groups []*applyGroup
	bySeries := make(map[int64]*applyGroup)
	for _, m := range approved {
		if m.Applied() {
			continue
		}
		if !m.ItemPresent {
			result.MissingItems++
			s.logger.Debug("skipping match for item missing from catalog",
				logging.Int64(logging.FieldMatchID, m.ID),
				logging.String(logging.FieldItemID, m.ItemID),
				logging.String(logging.FieldSeries, m.SeriesName),
			)
			continue
		}
		g, ok := bySeries[m.SeriesID]
		if !ok {
			g = &applyGroup{seriesID: m.SeriesID, name: m.SeriesName}
			bySeries[m.SeriesID] = g
			groups = append(groups, g)
		}
		g.matches = append(g.matches, m)
	}

	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		collection := CollectionName(g.name)
		logger := s.logger.With(logging.String(logging.FieldSeries, g.name), logging.String("collection", collection))

		itemIDs := make([]string, 0, len(g.matches))
		matchIDs := make([]int64, 0, len(g.matches))
		for _, m := range g.matches {
			itemIDs = append(itemIDs, m.ItemID)
			matchIDs = append(matchIDs, m.ID)
			if err := s.sink.SetSortTitle(ctx, m.ItemID, SortTitle(g.name, m.Position)); err != nil {
				result.SortFailures++
				logging.WarnWithContext(logger, "sort title update failed", "sort_title_failed",
					logging.String(logging.FieldItemID, m.ItemID),
					logging.Error(err),
					logging.String(logging.FieldImpact, "book may sort out of series order"),
				)
				continue
			}
			result.SortTitles++
		}

		if err := s.sink.AddToCollection(ctx, collection, itemIDs); err != nil {
			result.Failures = append(result.Failures, ApplyFailure{SeriesID: g.seriesID, Collection: collection, Reason: err.Error()})
			if recErr := s.store.RecordCollectionFailure(context.WithoutCancel(ctx), g.seriesID, collection, err.Error()); recErr != nil {
				logger.Error("record collection failure", logging.Error(recErr))
			}
			logging.ErrorWithContext(logger, "collection update failed", "collection_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check plex connectivity and rerun apply"),
			)
			continue
		}

		stamped, err := s.manager.MarkApplied(ctx, g.seriesID, collection, matchIDs)
		if err != nil {
			return result, err
		}
		result.Collections++
		result.ItemsApplied += int(stamped)
		logger.Info("collection applied", logging.Int("items", len(itemIDs)), logging.Int64("stamped", stamped))
	}
	return result, nil
}
