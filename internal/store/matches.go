package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const matchSelect = `SELECT m.id, m.item_id, m.series_id, m.confidence, m.position_number, m.position_label,
        m.status, m.origin, m.signals_json, m.notes, m.run_id, m.created_at, m.updated_at, m.applied_at,
        i.id IS NOT NULL, COALESCE(i.title, ''), COALESCE(i.author, ''), s.name
    FROM series_matches m
    JOIN series s ON s.id = m.series_id
    LEFT JOIN items i ON i.id = m.item_id`

// ListMatches returns matches ordered by series, position, then id.
func (s *Store) ListMatches(ctx context.Context, filter Filter) ([]Match, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.Status != "" {
		clauses = append(clauses, "m.status = ?")
		args = append(args, filter.Status)
	}
	if filter.SeriesID != 0 {
		clauses = append(clauses, "m.series_id = ?")
		args = append(args, filter.SeriesID)
	}
	if filter.ItemID != "" {
		clauses = append(clauses, "m.item_id = ?")
		args = append(args, filter.ItemID)
	}
	query := matchSelect
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY s.normalized_name, m.position_number IS NULL, m.position_number, m.id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}
	return matches, rows.Err()
}

// GetMatch fetches one match, returning nil when absent.
func (s *Store) GetMatch(ctx context.Context, id int64) (*Match, error) {
	row := s.db.QueryRowContext(ctx, matchSelect+` WHERE m.id = ?`, id)
	match, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get match: %w", err)
	}
	return &match, nil
}

// Commit writes a run's changeset in a single transaction. Nothing is written
// when any statement fails.
func (s *Store) Commit(ctx context.Context, cs Changeset) (CommitResult, error) {
	var result CommitResult
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		result = CommitResult{SeriesIDs: make(map[string]int64, len(cs.Series))}
		timestamp := now()

		for _, series := range cs.Series {
			res, err := tx.ExecContext(ctx,
				`INSERT INTO series (name, normalized_name, author, canonical_id, created_at, updated_at)
                 VALUES (?, ?, ?, ?, ?, ?)`,
				series.Name, series.NormalizedName, nullableString(series.Author),
				nullableString(series.CanonicalID), timestamp, timestamp,
			)
			if err != nil {
				return fmt.Errorf("insert series %q: %w", series.NormalizedName, err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("series id: %w", err)
			}
			result.SeriesIDs[series.NormalizedName] = id
		}

		for _, update := range cs.Updates {
			number, label := positionArgs(update.Position)
			if _, err := tx.ExecContext(ctx,
				`UPDATE series_matches
                 SET confidence = ?, position_number = ?, position_label = ?, origin = ?, signals_json = ?,
                     run_id = ?, updated_at = ?,
                     status = CASE
                         WHEN ? = 1 AND status = 'pending' AND NOT EXISTS (
                             SELECT 1 FROM series_matches o
                             WHERE o.item_id = series_matches.item_id AND o.status = 'approved'
                         ) THEN 'approved'
                         ELSE status
                     END
                 WHERE id = ?`,
				update.Confidence, number, label, update.Origin, nullableString(update.Signals),
				nullableString(cs.RunID), timestamp,
				boolToInt(update.Promote),
				update.ID,
			); err != nil {
				return fmt.Errorf("update match %d: %w", update.ID, err)
			}
		}

		for _, insert := range cs.Inserts {
			seriesID := insert.SeriesID
			if seriesID == 0 {
				id, ok := result.SeriesIDs[insert.SeriesKey]
				if !ok {
					return fmt.Errorf("insert match for item %s: unknown series key %q", insert.ItemID, insert.SeriesKey)
				}
				seriesID = id
			}
			status := insert.Status
			if status == "" {
				status = StatusPending
			}
			number, label := positionArgs(insert.Position)
			res, err := tx.ExecContext(ctx,
				`INSERT INTO series_matches (
                     item_id, series_id, confidence, position_number, position_label, status,
                     origin, signals_json, run_id, created_at, updated_at
                 ) VALUES (?, ?, ?, ?, ?,
                     CASE
                         WHEN ? = 'approved' AND NOT EXISTS (
                             SELECT 1 FROM series_matches WHERE item_id = ? AND status = 'approved'
                         ) THEN 'approved'
                         ELSE 'pending'
                     END,
                     ?, ?, ?, ?, ?)`,
				insert.ItemID, seriesID, insert.Confidence, number, label,
				status, insert.ItemID,
				insert.Origin, nullableString(insert.Signals), nullableString(cs.RunID), timestamp, timestamp,
			)
			if err != nil {
				return fmt.Errorf("insert match for item %s: %w", insert.ItemID, err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("match id: %w", err)
			}
			result.MatchIDs = append(result.MatchIDs, id)
		}
		return nil
	})
	if err != nil {
		return CommitResult{}, fmt.Errorf("commit changeset: %w", err)
	}
	return result, nil
}

// UpdateMatchStatus applies a conditional status change. It returns
// ErrStaleMatch when the match (or a superseded match) is no longer in the
// expected state or has been applied.
func (s *Store) UpdateMatchStatus(ctx context.Context, change StatusChange) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		timestamp := now()
		for _, id := range change.Supersede {
			if err := conditionalStatus(ctx, tx, id, StatusApproved, StatusRejected, timestamp); err != nil {
				return fmt.Errorf("supersede match %d: %w", id, err)
			}
		}
		return conditionalStatus(ctx, tx, change.ID, change.From, change.To, timestamp)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("update match %d: %w: item already has an approved match", change.ID, ErrStaleMatch)
		}
		return fmt.Errorf("update match %d: %w", change.ID, err)
	}
	return nil
}

func conditionalStatus(ctx context.Context, tx *sql.Tx, id int64, from, to MatchStatus, timestamp string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE series_matches SET status = ?, updated_at = ?
         WHERE id = ? AND status = ? AND applied_at IS NULL`,
		to, timestamp, id, from,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStaleMatch
	}
	return nil
}

// MarkApplied stamps approved matches of a series as applied and records the
// collection as created. It returns the number of matches stamped.
func (s *Store) MarkApplied(ctx context.Context, seriesID int64, collectionName string, matchIDs []int64) (int64, error) {
	var stamped int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		timestamp := now()
		stamped = 0
		if len(matchIDs) > 0 {
			args := []any{timestamp, timestamp, seriesID}
			for _, id := range matchIDs {
				args = append(args, id)
			}
			res, err := tx.ExecContext(ctx,
				`UPDATE series_matches SET applied_at = ?, updated_at = ?
                 WHERE series_id = ? AND status = 'approved' AND applied_at IS NULL
                   AND id IN (`+makePlaceholders(len(matchIDs))+`)`,
				args...,
			)
			if err != nil {
				return fmt.Errorf("stamp matches: %w", err)
			}
			if stamped, err = res.RowsAffected(); err != nil {
				return err
			}
		}
		return upsertCollection(ctx, tx, seriesID, collectionName, CollectionCreated, "", timestamp)
	})
	if err != nil {
		return 0, fmt.Errorf("mark applied: %w", err)
	}
	return stamped, nil
}

// RecordCollectionFailure records that creating the collection for a series
// failed. Matches stay unapplied so a later apply retries them.
func (s *Store) RecordCollectionFailure(ctx context.Context, seriesID int64, collectionName, message string) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		return upsertCollection(ctx, tx, seriesID, collectionName, CollectionFailed, message, now())
	})
	if err != nil {
		return fmt.Errorf("record collection failure: %w", err)
	}
	return nil
}

func upsertCollection(ctx context.Context, tx *sql.Tx, seriesID int64, name string, status CollectionStatus, message, timestamp string) error {
	var synced any
	if status == CollectionCreated {
		synced = timestamp
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO collections (series_id, name, status, error_message, synced_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(series_id) DO UPDATE SET
             name = excluded.name,
             status = excluded.status,
             error_message = excluded.error_message,
             synced_at = COALESCE(excluded.synced_at, collections.synced_at),
             updated_at = excluded.updated_at`,
		seriesID, name, status, nullableString(message), synced, timestamp,
	)
	if err != nil {
		return fmt.Errorf("upsert collection: %w", err)
	}
	return nil
}

func scanMatch(scanner rowScanner) (Match, error) {
	var (
		match      Match
		number     sql.NullInt64
		label      sql.NullString
		status     string
		signals    sql.NullString
		notes      sql.NullString
		runID      sql.NullString
		createdRaw sql.NullString
		updatedRaw sql.NullString
		appliedRaw sql.NullString
	)
	if err := scanner.Scan(
		&match.ID,
		&match.ItemID,
		&match.SeriesID,
		&match.Confidence,
		&number,
		&label,
		&status,
		&match.Origin,
		&signals,
		&notes,
		&runID,
		&createdRaw,
		&updatedRaw,
		&appliedRaw,
		&match.ItemPresent,
		&match.ItemTitle,
		&match.ItemAuthor,
		&match.SeriesName,
	); err != nil {
		return Match{}, err
	}
	match.Position = scanPosition(number, label)
	match.Status = MatchStatus(status)
	match.Signals = signals.String
	match.Notes = notes.String
	match.RunID = runID.String
	if t, err := parseTimeString(createdRaw.String); err == nil {
		match.CreatedAt = t
	}
	if t, err := parseTimeString(updatedRaw.String); err == nil {
		match.UpdatedAt = t
	}
	match.AppliedAt = parseNullTime(appliedRaw)
	return match, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
