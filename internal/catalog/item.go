package catalog

import (
	"context"
	"strings"
)

// Item is one audiobook in the catalog snapshot. Items are immutable for the
// duration of a scan and replaced wholesale when the catalog is re-scanned.
type Item struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Author          string   `json:"author,omitempty"`
	SeriesHint      string   `json:"series_hint,omitempty"`
	SeriesIndexHint string   `json:"series_index_hint,omitempty"`
	Year            int      `json:"year,omitempty"`
	Metadata        Metadata `json:"metadata"`
}

// Metadata carries attributes the matcher never interprets.
type Metadata struct {
	DurationMillis int64  `json:"duration_ms,omitempty"`
	SizeBytes      int64  `json:"size_bytes,omitempty"`
	FilePath       string `json:"file_path,omitempty"`
}

// DisplayAuthor returns the author or a placeholder for tables.
func (i Item) DisplayAuthor() string {
	if a := strings.TrimSpace(i.Author); a != "" {
		return a
	}
	return "Unknown"
}

// Attribute keys understood by Ingest. Sources may include other keys; they
// are ignored.
const (
	FieldID          = "id"
	FieldTitle       = "title"
	FieldAuthor      = "author"
	FieldSeries      = "series"
	FieldSeriesIndex = "series_index"
	FieldYear        = "year"
	FieldDuration    = "duration_ms"
	FieldSize        = "size_bytes"
	FieldFilePath    = "file_path"
)

// RawItem is an untyped catalog record keyed by the Field* constants.
type RawItem map[string]string

// Get returns the trimmed value for key.
func (r RawItem) Get(key string) string {
	return strings.TrimSpace(r[key])
}

// Source lists the current catalog snapshot.
type Source interface {
	ListItems(ctx context.Context) ([]RawItem, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]RawItem, error)

// ListItems implements Source.
func (f SourceFunc) ListItems(ctx context.Context) ([]RawItem, error) {
	return f(ctx)
}
