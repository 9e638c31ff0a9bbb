package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"plexshelf/internal/catalog"
)

const itemColumns = "id, title, author, series_hint, series_index_hint, year, duration_ms, size_bytes, file_path"

// ReplaceItems swaps the stored catalog snapshot for items, preserving their
// order. Matches are kept; a match whose item disappeared simply loses its
// joined title until the item returns.
func (s *Store) ReplaceItems(ctx context.Context, items []catalog.Item) error {
	scannedAt := now()
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM items`); err != nil {
			return fmt.Errorf("clear items: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO items (
            id, title, author, series_hint, series_index_hint, year,
            duration_ms, size_bytes, file_path, catalog_order, scanned_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare item insert: %w", err)
		}
		defer stmt.Close()
		for idx, item := range items {
			if _, err := stmt.ExecContext(ctx,
				item.ID,
				item.Title,
				nullableString(item.Author),
				nullableString(item.SeriesHint),
				nullableString(item.SeriesIndexHint),
				nullableInt(int64(item.Year)),
				nullableInt(item.Metadata.DurationMillis),
				nullableInt(item.Metadata.SizeBytes),
				nullableString(item.Metadata.FilePath),
				idx,
				scannedAt,
			); err != nil {
				return fmt.Errorf("insert item %s: %w", item.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace items: %w", err)
	}
	return nil
}

// ListItems returns the stored catalog snapshot in catalog order.
func (s *Store) ListItems(ctx context.Context) ([]catalog.Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+itemColumns+` FROM items ORDER BY catalog_order, id`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []catalog.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetItem fetches one item, returning nil when it is not in the snapshot.
func (s *Store) GetItem(ctx context.Context, id string) (*catalog.Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return &item, nil
}

func scanItem(scanner rowScanner) (catalog.Item, error) {
	var (
		item        catalog.Item
		author      sql.NullString
		seriesHint  sql.NullString
		seriesIndex sql.NullString
		year        sql.NullInt64
		duration    sql.NullInt64
		size        sql.NullInt64
		filePath    sql.NullString
	)
	if err := scanner.Scan(
		&item.ID,
		&item.Title,
		&author,
		&seriesHint,
		&seriesIndex,
		&year,
		&duration,
		&size,
		&filePath,
	); err != nil {
		return catalog.Item{}, err
	}
	item.Author = author.String
	item.SeriesHint = seriesHint.String
	item.SeriesIndexHint = seriesIndex.String
	item.Year = int(year.Int64)
	item.Metadata = catalog.Metadata{
		DurationMillis: duration.Int64,
		SizeBytes:      size.Int64,
		FilePath:       filePath.String,
	}
	return item, nil
}
