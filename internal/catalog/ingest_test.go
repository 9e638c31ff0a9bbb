package catalog_test

import (
	"errors"
	"testing"

	"plexshelf/internal/catalog"
	"plexshelf/internal/services"
)

func TestIngestMapsKnownFields(t *testing.T) {
	res := catalog.Ingest([]catalog.RawItem{{
		catalog.FieldID:          " 101 ",
		catalog.FieldTitle:       "Leviathan Wakes",
		catalog.FieldAuthor:      "James S. A. Corey",
		catalog.FieldSeries:      "The Expanse",
		catalog.FieldSeriesIndex: "1",
		catalog.FieldYear:        "2011",
		catalog.FieldDuration:    "73800000",
		catalog.FieldFilePath:    "/audiobooks/corey/leviathan.m4b",
		"ignored":                "x",
	}})
	if len(res.Rejected) != 0 {
		t.Fatalf("unexpected rejections: %+v", res.Rejected)
	}
	if len(res.Items) != 1 {
		t.Fatalf("expected one item, got %d", len(res.Items))
	}
	item := res.Items[0]
	if item.ID != "101" || item.Title != "Leviathan Wakes" || item.Author != "James S. A. Corey" {
		t.Fatalf("unexpected item: %+v", item)
	}
	if item.SeriesHint != "The Expanse" || item.SeriesIndexHint != "1" {
		t.Fatalf("series hints not mapped: %+v", item)
	}
	if item.Year != 2011 || item.Metadata.DurationMillis != 73800000 {
		t.Fatalf("numbers not mapped: %+v", item)
	}
	if item.Metadata.FilePath == "" {
		t.Fatal("expected file path passthrough")
	}
}

func TestIngestRejectsInvalidRecords(t *testing.T) {
	res := catalog.Ingest([]catalog.RawItem{
		{catalog.FieldTitle: "No ID"},
		{catalog.FieldID: "2", catalog.FieldTitle: "   "},
		{catalog.FieldID: "3", catalog.FieldTitle: "Kept"},
		{catalog.FieldID: "3", catalog.FieldTitle: "Duplicate"},
	})
	if len(res.Items) != 1 || res.Items[0].Title != "Kept" {
		t.Fatalf("unexpected items: %+v", res.Items)
	}
	if len(res.Rejected) != 3 {
		t.Fatalf("expected 3 rejections, got %+v", res.Rejected)
	}
	for _, r := range res.Rejected {
		if !errors.Is(r.Err, services.ErrValidation) {
			t.Fatalf("rejection %q should be a validation error", r.Reason)
		}
	}
	if res.Rejected[0].ItemID != "#0" {
		t.Fatalf("expected positional id for record without id, got %q", res.Rejected[0].ItemID)
	}
}

func TestIngestDropsMalformedOptionalFields(t *testing.T) {
	res := catalog.Ingest([]catalog.RawItem{{
		catalog.FieldID:       "9",
		catalog.FieldTitle:    "Dune",
		catalog.FieldYear:     "nineteen65",
		catalog.FieldDuration: "-5",
		catalog.FieldAuthor:   "Unknown",
	}})
	if len(res.Items) != 1 {
		t.Fatalf("expected item kept, got %+v", res)
	}
	if res.Items[0].Year != 0 || res.Items[0].Metadata.DurationMillis != 0 {
		t.Fatalf("malformed values should be dropped: %+v", res.Items[0])
	}
	if res.Items[0].Author != "" {
		t.Fatalf("placeholder author should be cleared, got %q", res.Items[0].Author)
	}
	if len(res.Warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %v", res.Warnings)
	}
}
