package seriesmatch

import "testing"

func TestParsePosition(t *testing.T) {
	tests := []struct {
		in    string
		known bool
		n     int
		label string
	}{
		{"3", true, 3, "3"},
		{"Three", true, 3, "Three"},
		{"third", true, 3, "third"},
		{"III", true, 3, "III"},
		{"iv", true, 4, "iv"},
		{"#4", true, 4, "4"},
		{"2.0", true, 2, "2.0"},
		{"0", true, 0, "0"},
		{"2.5", false, 0, "2.5"},
		{"dim", false, 0, "dim"},
		{"iiii", false, 0, "iiii"},
		{"", false, 0, ""},
	}
	for _, tt := range tests {
		got := ParsePosition(tt.in)
		if got.Known != tt.known || got.Number != tt.n || got.Label != tt.label {
			t.Errorf("ParsePosition(%q) = %+v, want known=%v n=%d label=%q", tt.in, got, tt.known, tt.n, tt.label)
		}
	}
}

func TestPositionString(t *testing.T) {
	if got := KnownPosition(7).String(); got != "7" {
		t.Fatalf("known = %q", got)
	}
	if got := ParsePosition("2.5").String(); got != "2.5?" {
		t.Fatalf("unparsed = %q", got)
	}
	if got := UnknownPosition().String(); got != "-" {
		t.Fatalf("unknown = %q", got)
	}
}
