package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const seriesColumns = "s.id, s.name, s.normalized_name, s.author, s.canonical_id, s.created_at, s.updated_at"

// ListSeries returns every series with member counts, ordered by name.
func (s *Store) ListSeries(ctx context.Context) ([]Series, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+seriesColumns+`,
            COALESCE(SUM(CASE WHEN m.status = 'pending' THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN m.status = 'approved' THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN m.applied_at IS NOT NULL THEN 1 ELSE 0 END), 0)
        FROM series s
        LEFT JOIN series_matches m ON m.series_id = s.id
        GROUP BY s.id
        ORDER BY s.normalized_name`)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	defer rows.Close()

	var out []Series
	for rows.Next() {
		var (
			series  Series
			author  sql.NullString
			canon   sql.NullString
			created sql.NullString
			updated sql.NullString
		)
		if err := rows.Scan(
			&series.ID, &series.Name, &series.NormalizedName, &author, &canon, &created, &updated,
			&series.Pending, &series.Approved, &series.Applied,
		); err != nil {
			return nil, err
		}
		fillSeries(&series, author, canon, created, updated)
		out = append(out, series)
	}
	return out, rows.Err()
}

// GetSeries fetches one series, returning nil when absent.
func (s *Store) GetSeries(ctx context.Context, id int64) (*Series, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+seriesColumns+` FROM series s WHERE s.id = ?`, id)
	var (
		series  Series
		author  sql.NullString
		canon   sql.NullString
		created sql.NullString
		updated sql.NullString
	)
	err := row.Scan(&series.ID, &series.Name, &series.NormalizedName, &author, &canon, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get series: %w", err)
	}
	fillSeries(&series, author, canon, created, updated)
	return &series, nil
}

func fillSeries(series *Series, author, canon, created, updated sql.NullString) {
	series.Author = author.String
	series.CanonicalID = canon.String
	if t, err := parseTimeString(created.String); err == nil {
		series.CreatedAt = t
	}
	if t, err := parseTimeString(updated.String); err == nil {
		series.UpdatedAt = t
	}
}
