package seriesmatch

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Leviathan Wakes (Unabridged)", "leviathan wakes"},
		{"   ", ""},
		{"", ""},
		{"Les Misérables", "les miserables"},
		{"Foundation & Empire [MP3]", "foundation and empire"},
		{"Dune (1965).m4b", "dune"},
		{"The Hobbit - 75th Anniversary Edition", "the hobbit"},
		{"Mistborn: The Final Empire (Audiobook)", "mistborn the final empire"},
		{"The Name of the Wind, Special Edition", "the name of the wind"},
		{"Unabridged", ""},
		{"MP3 mp3 Retail", ""},
		{"Leviathan Wakes (The Expanse, Book 1) {retail}", "leviathan wakes the expanse book 1"},
		{"  Ender's   Game  ", "ender s game"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"Leviathan Wakes (Unabridged)",
		"Les Misérables",
		"Foundation & Empire [MP3]",
		"The Hobbit - 75th Anniversary Edition",
		"Ｆｕｌｌｗｉｄｔｈ Ｔｉｔｌｅ",
		"İstanbul Hatırası",
		"Straße der Ölsardinen",
		"abridged unabridged edition audio book",
		"ﬁrst ﬂight",
		"The Long War - Book 2",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestPrepareKeepsMarkers(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Leviathan Wakes (The Expanse, Book 1) [Unabridged]", "Leviathan Wakes (The Expanse, Book 1)"},
		{"The Long War – Book 2 (Unabridged)", "The Long War - Book 2"},
		{"Discworld #12.mp3", "Discworld #12"},
		{"Dune - Unabridged", "Dune"},
	}
	for _, tt := range tests {
		if got := Prepare(tt.in); got != tt.want {
			t.Errorf("Prepare(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
