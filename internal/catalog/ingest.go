package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"plexshelf/internal/services"
)

// Rejection records a raw record that failed validation.
type Rejection struct {
	ItemID string `json:"item_id,omitempty"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// IngestResult holds the validated items in source order plus rejections.
type IngestResult struct {
	Items    []Item
	Rejected []Rejection
	// Warnings lists optional attributes that were present but unparseable.
	Warnings []string
}

// Ingest validates raw records. A record without an id or with a blank title is
// rejected; duplicate ids keep the first occurrence. Malformed optional numbers
// are dropped with a warning rather than rejecting the record.
func Ingest(raw []RawItem) IngestResult {
	result := IngestResult{Items: make([]Item, 0, len(raw))}
	seen := make(map[string]struct{}, len(raw))
	for idx, record := range raw {
		item, warnings, err := ToItem(record)
		result.Warnings = append(result.Warnings, warnings...)
		if err != nil {
			id := record.Get(FieldID)
			if id == "" {
				id = fmt.Sprintf("#%d", idx)
			}
			result.Rejected = append(result.Rejected, Rejection{ItemID: id, Reason: err.Error(), Err: err})
			continue
		}
		if _, dup := seen[item.ID]; dup {
			err := services.Wrap(services.ErrValidation, "catalog", "ingest", "duplicate id "+item.ID, nil)
			result.Rejected = append(result.Rejected, Rejection{ItemID: item.ID, Reason: err.Error(), Err: err})
			continue
		}
		seen[item.ID] = struct{}{}
		result.Items = append(result.Items, item)
	}
	return result
}

// ToItem maps a single raw record to an Item.
func ToItem(record RawItem) (Item, []string, error) {
	id := record.Get(FieldID)
	if id == "" {
		return Item{}, nil, services.Wrap(services.ErrValidation, "catalog", "ingest", "missing id", nil)
	}
	title := record.Get(FieldTitle)
	if title == "" {
		return Item{}, nil, services.Wrap(services.ErrValidation, "catalog", "ingest", "item "+id+" has no title", nil)
	}

	item := Item{
		ID:              id,
		Title:           title,
		Author:          record.Get(FieldAuthor),
		SeriesHint:      record.Get(FieldSeries),
		SeriesIndexHint: record.Get(FieldSeriesIndex),
		Metadata: Metadata{
			FilePath: record.Get(FieldFilePath),
		},
	}

	var warnings []string
	if raw := record.Get(FieldYear); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil || year < 0 {
			warnings = append(warnings, fmt.Sprintf("item %s: ignoring year %q", id, raw))
		} else {
			item.Year = year
		}
	}
	if raw := record.Get(FieldDuration); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil && v >= 0 {
			item.Metadata.DurationMillis = v
		} else {
			warnings = append(warnings, fmt.Sprintf("item %s: ignoring duration %q", id, raw))
		}
	}
	if raw := record.Get(FieldSize); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil && v >= 0 {
			item.Metadata.SizeBytes = v
		} else {
			warnings = append(warnings, fmt.Sprintf("item %s: ignoring size %q", id, raw))
		}
	}
	if strings.EqualFold(item.Author, "unknown") {
		item.Author = ""
	}
	return item, warnings, nil
}
