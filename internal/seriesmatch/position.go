package seriesmatch

import (
	"strconv"
	"strings"
)

// Position is a series index. Known is false when no index was found or the
// label could not be parsed as a whole number.
type Position struct {
	Number int    `json:"number"`
	Known  bool   `json:"known"`
	Label  string `json:"label,omitempty"`
}

// UnknownPosition returns a position without an index.
func UnknownPosition() Position { return Position{} }

// KnownPosition returns a parsed position.
func KnownPosition(n int) Position {
	return Position{Number: n, Known: true, Label: strconv.Itoa(n)}
}

// String renders the position for tables.
func (p Position) String() string {
	switch {
	case p.Known:
		return strconv.Itoa(p.Number)
	case p.Label != "":
		return p.Label + "?"
	default:
		return "-"
	}
}

var numberWords = map[string]int{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14, "fifteen": 15,
	"sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19, "twenty": 20,
	"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5,
	"sixth": 6, "seventh": 7, "eighth": 8, "ninth": 9, "tenth": 10,
	"eleventh": 11, "twelfth": 12,
}

// numberWordAlternation is the regexp alternation of numberWords keys, longest
// first so "seventeen" is preferred over "seven".
const numberWordAlternation = `seventeen|thirteen|fourteen|eighteen|nineteen|eleventh|fifteen|sixteen|seventh|twelfth|eleven|twelve|twenty|second|eighth|fourth|three|seven|eight|first|third|fifth|sixth|ninth|tenth|zero|four|five|nine|one|two|six|ten`

var romanValues = map[byte]int{'i': 1, 'v': 5, 'x': 10, 'l': 50, 'c': 100, 'd': 500, 'm': 1000}

// ParsePosition interprets a series index label: digits, English number words,
// or roman numerals. Anything else, including fractional indexes such as "2.5",
// yields an unknown position that keeps the label.
func ParsePosition(raw string) Position {
	label := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "#"))
	if label == "" {
		return UnknownPosition()
	}
	lower := strings.ToLower(label)
	if n, err := strconv.Atoi(lower); err == nil && n >= 0 {
		return Position{Number: n, Known: true, Label: label}
	}
	if f, err := strconv.ParseFloat(lower, 64); err == nil && f >= 0 && f == float64(int(f)) {
		return Position{Number: int(f), Known: true, Label: label}
	}
	if n, ok := numberWords[lower]; ok {
		return Position{Number: n, Known: true, Label: label}
	}
	if n, ok := parseRoman(lower); ok {
		return Position{Number: n, Known: true, Label: label}
	}
	return Position{Label: label}
}

// parseRoman accepts canonical roman numerals only, so "dim" and "iiii" are
// rejected.
func parseRoman(s string) (int, bool) {
	if s == "" || len(s) > 15 {
		return 0, false
	}
	total := 0
	for i := 0; i < len(s); i++ {
		v, ok := romanValues[s[i]]
		if !ok {
			return 0, false
		}
		if i+1 < len(s) && romanValues[s[i+1]] > v {
			total -= v
		} else {
			total += v
		}
	}
	if total <= 0 || toRoman(total) != s {
		return 0, false
	}
	return total, true
}

func toRoman(n int) string {
	values := []int{1000, 900, 500, 400, 100, 90, 50, 40, 10, 9, 5, 4, 1}
	symbols := []string{"m", "cm", "d", "cd", "c", "xc", "l", "xl", "x", "ix", "v", "iv", "i"}
	var b strings.Builder
	for i, v := range values {
		for n >= v {
			b.WriteString(symbols[i])
			n -= v
		}
	}
	return b.String()
}
