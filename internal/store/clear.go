package store

import (
	"context"
	"database/sql"
	"fmt"
)

// ClearResult counts the rows removed by Clear.
type ClearResult struct {
	Items       int64 `json:"items"`
	Series      int64 `json:"series"`
	Matches     int64 `json:"matches"`
	Collections int64 `json:"collections"`
}

// Clear deletes the catalog snapshot, every series, match and collection
// record in one transaction. Run history and diagnostics are kept.
func (s *Store) Clear(ctx context.Context) (ClearResult, error) {
	var result ClearResult
	steps := []struct {
		table string
		count *int64
	}{
		{"series_matches", &result.Matches},
		{"collections", &result.Collections},
		{"series", &result.Series},
		{"items", &result.Items},
	}
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for _, step := range steps {
			res, err := tx.ExecContext(ctx, `DELETE FROM `+step.table)
			if err != nil {
				return fmt.Errorf("clear %s: %w", step.table, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("clear %s: %w", step.table, err)
			}
			*step.count = n
		}
		return nil
	})
	if err != nil {
		return ClearResult{}, fmt.Errorf("clear database: %w", err)
	}
	return result, nil
}
