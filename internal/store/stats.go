package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Stats counts stored items, series, and matches by status.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	row := s.db.QueryRowContext(ctx, `SELECT
            (SELECT COUNT(1) FROM items),
            (SELECT COUNT(1) FROM series),
            (SELECT COUNT(1) FROM series_matches WHERE status = 'pending'),
            (SELECT COUNT(1) FROM series_matches WHERE status = 'approved'),
            (SELECT COUNT(1) FROM series_matches WHERE status = 'rejected'),
            (SELECT COUNT(1) FROM series_matches WHERE applied_at IS NOT NULL),
            (SELECT COUNT(1) FROM collections WHERE status = 'created')`)
	if err := row.Scan(
		&stats.Items, &stats.Series, &stats.Pending, &stats.Approved,
		&stats.Rejected, &stats.Applied, &stats.Collections,
	); err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	return stats, nil
}

// ListCollections returns the recorded collections ordered by series name.
func (s *Store) ListCollections(ctx context.Context) ([]Collection, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT c.series_id, s.name, c.name, c.status, c.error_message, c.synced_at, c.updated_at
        FROM collections c JOIN series s ON s.id = c.series_id
        ORDER BY s.normalized_name`)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	var out []Collection
	for rows.Next() {
		var (
			c       Collection
			status  string
			message sql.NullString
			synced  sql.NullString
			updated sql.NullString
		)
		if err := rows.Scan(&c.SeriesID, &c.SeriesName, &c.Name, &status, &message, &synced, &updated); err != nil {
			return nil, err
		}
		c.Status = CollectionStatus(status)
		c.ErrorMessage = message.String
		c.SyncedAt = parseNullTime(synced)
		if t, err := parseTimeString(updated.String); err == nil {
			c.UpdatedAt = t
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
