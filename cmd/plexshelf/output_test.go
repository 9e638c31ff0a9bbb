package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jedib0t/go-pretty/v6/text"

	"plexshelf/internal/api"
)

func TestPrinterTintsStatusCells(t *testing.T) {
	matches := []api.Match{
		{ID: 1, ItemTitle: "Leviathan Wakes", SeriesName: "The Expanse", Confidence: 95, Origin: "explicit", Status: "approved", Applied: true},
		{ID: 2, ItemTitle: "Foundation", SeriesName: "Foundation", Confidence: 72, Origin: "fuzzy", Status: "pending"},
	}
	green := text.Colors{text.FgGreen}.EscapeSeq()
	yellow := text.Colors{text.FgYellow}.EscapeSeq()

	var plain bytes.Buffer
	printer{out: &plain}.table(matchColumns, matchRows(matches))
	if strings.Contains(plain.String(), "\x1b[") {
		t.Fatalf("uncoloured printer wrote escape codes:\n%q", plain.String())
	}
	if !strings.Contains(plain.String(), "approved (applied)") {
		t.Fatalf("expected applied status in table:\n%s", plain.String())
	}

	var colored bytes.Buffer
	printer{out: &colored, color: true}.table(matchColumns, matchRows(matches))
	out := colored.String()
	if !strings.Contains(out, green+"approved (applied)") {
		t.Fatalf("expected green applied status:\n%q", out)
	}
	if !strings.Contains(out, yellow+"pending") {
		t.Fatalf("expected yellow pending status:\n%q", out)
	}
	if strings.Contains(out, green+"Status") || strings.Contains(out, yellow+"Status") {
		t.Fatalf("header row should not be tinted:\n%q", out)
	}
}

func TestStatusColors(t *testing.T) {
	tests := []struct {
		cell string
		want text.Colors
	}{
		{cell: "approved", want: text.Colors{text.FgGreen}},
		{cell: "approved (applied)", want: text.Colors{text.FgGreen}},
		{cell: "rejected", want: text.Colors{text.FgRed}},
		{cell: "pending", want: text.Colors{text.FgYellow}},
		{cell: "unknown", want: nil},
	}
	for _, tt := range tests {
		if got := statusColors(tt.cell); got.EscapeSeq() != tt.want.EscapeSeq() {
			t.Fatalf("statusColors(%q) = %v, want %v", tt.cell, got, tt.want)
		}
	}
}

func TestEmitJSONWritesEmptyArrayForNilSlice(t *testing.T) {
	var buf bytes.Buffer
	var matches []api.Match
	if err := (printer{out: &buf, json: true}).emitJSON(matches); err != nil {
		t.Fatalf("emitJSON: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Fatalf("expected [], got %q", got)
	}

	buf.Reset()
	if err := (printer{out: &buf, json: true}).emitJSON(api.BulkResult{Changed: 2}); err != nil {
		t.Fatalf("emitJSON: %v", err)
	}
	if !strings.Contains(buf.String(), "\n  \"changed\": 2") {
		t.Fatalf("expected indented output, got %q", buf.String())
	}
}
