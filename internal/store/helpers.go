package store

import (
	"database/sql"
	"errors"
	"time"

	"plexshelf/internal/seriesmatch"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return formatTime(*value)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func parseNullTime(value sql.NullString) *time.Time {
	if !value.Valid {
		return nil
	}
	t, err := parseTimeString(value.String)
	if err != nil {
		return nil
	}
	return &t
}

func positionArgs(p seriesmatch.Position) (any, any) {
	var number any
	if p.Known {
		number = p.Number
	}
	return number, nullableString(p.Label)
}

func scanPosition(number sql.NullInt64, label sql.NullString) seriesmatch.Position {
	if number.Valid {
		return seriesmatch.Position{Number: int(number.Int64), Known: true, Label: label.String}
	}
	return seriesmatch.Position{Label: label.String}
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
