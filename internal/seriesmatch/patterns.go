package seriesmatch

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Pattern names recorded in candidate signals.
const (
	PatternMetadata      = "metadata"
	PatternParenthetical = "parenthetical"
	PatternBookOf        = "book-of"
	PatternBookMarker    = "book-marker"
	PatternHash          = "hash"
	PatternCommaNumber   = "comma-number"
	PatternDashNumber    = "dash-number"
)

const (
	markerWords = `(?:book|bk|volume|vol|part|pt)`
	// romanToken accepts canonical numerals from i to xxxix, so words spelled
	// with numeral letters ("mix", "mill", "dim") are not positions.
	romanToken    = `x{1,3}(?:ix|iv|v?i{0,3})|ix|iv|vi{0,3}|i{1,3}`
	positionToken = `(\d+(?:\.\d+)?|` + romanToken + `|` + numberWordAlternation + `)`
	separators    = `[\s,:;\-]*`
	// yearFloor rejects bare trailing numbers that are more likely a year than
	// a series index ("Title, 1999").
	yearFloor = 1000
)

// patternDef is one entry in the fixed extraction priority list.
type patternDef struct {
	name string
	re   *regexp.Regexp
	// nameGroup and positionGroup index the submatches.
	nameGroup     int
	positionGroup int
	// colonSplit keeps only the text after the last colon of the name, so
	// "Scorpia Rising: Alex Rider, Book 9" yields "Alex Rider".
	colonSplit bool
	// bareNumber marks patterns without a marker word; they require a digit
	// position below yearFloor.
	bareNumber bool
}

// patternDefs is ordered by priority; the first pattern producing a non-empty
// series name wins.
var patternDefs = []patternDef{
	{
		name:          PatternParenthetical,
		re:            regexp.MustCompile(`(?i)\(([^()]+?)` + separators + `(?:\b` + markerWords + `\b\.?\s*#?|#)\s*` + positionToken + `\s*\)`),
		nameGroup:     1,
		positionGroup: 2,
	},
	{
		name:          PatternBookOf,
		re:            regexp.MustCompile(`(?i)\b(?:book|volume|vol|part)\.?\s*` + positionToken + `\s+of\s+(.+?)\s*$`),
		nameGroup:     2,
		positionGroup: 1,
	},
	{
		name:          PatternBookMarker,
		re:            regexp.MustCompile(`(?i)^(.+?)` + separators + `\b` + markerWords + `\b\.?\s*#?\s*` + positionToken + `\b`),
		nameGroup:     1,
		positionGroup: 2,
		colonSplit:    true,
	},
	{
		name:          PatternHash,
		re:            regexp.MustCompile(`(?i)^(.+?)\s*#\s*(\d+(?:\.\d+)?)\b`),
		nameGroup:     1,
		positionGroup: 2,
		colonSplit:    true,
	},
	{
		name:          PatternCommaNumber,
		re:            regexp.MustCompile(`^(.+?),\s*(\d+)\s*$`),
		nameGroup:     1,
		positionGroup: 2,
		bareNumber:    true,
	},
	{
		name:          PatternDashNumber,
		re:            regexp.MustCompile(`^(.+?)\s+-\s+(\d+)\s*$`),
		nameGroup:     1,
		positionGroup: 2,
		bareNumber:    true,
	},
}

// Extraction is an explicit series marker found in a title.
type Extraction struct {
	Pattern     string
	SeriesName  string
	DisplayName string
	Position    Position
}

// Extract applies the fixed pattern list to a raw title. It reports false when
// no pattern yields a usable series name.
func Extract(title string) (Extraction, bool) {
	prepared := Prepare(title)
	if prepared == "" {
		return Extraction{}, false
	}
	for _, def := range patternDefs {
		m := def.re.FindStringSubmatch(prepared)
		if m == nil {
			continue
		}
		rawName := m[def.nameGroup]
		if def.colonSplit {
			if idx := strings.LastIndex(rawName, ":"); idx >= 0 && strings.TrimSpace(rawName[idx+1:]) != "" {
				rawName = rawName[idx+1:]
			}
		}
		display := cleanDisplayName(rawName)
		normalized := Normalize(display)
		if !hasLetter(normalized) || onlyStopWords(strings.Fields(normalized)) {
			continue
		}
		rawPosition := m[def.positionGroup]
		if def.bareNumber {
			n, err := strconv.Atoi(rawPosition)
			if err != nil || n >= yearFloor {
				continue
			}
		}
		return Extraction{
			Pattern:     def.name,
			SeriesName:  normalized,
			DisplayName: display,
			Position:    ParsePosition(rawPosition),
		}, true
	}
	return Extraction{}, false
}

// ExtractHint converts catalog-provided series fields into an extraction.
func ExtractHint(series, index string) (Extraction, bool) {
	display := cleanDisplayName(Prepare(series))
	normalized := Normalize(display)
	if !hasLetter(normalized) {
		return Extraction{}, false
	}
	return Extraction{
		Pattern:     PatternMetadata,
		SeriesName:  normalized,
		DisplayName: display,
		Position:    ParsePosition(index),
	}, true
}

func cleanDisplayName(raw string) string {
	name := repeatedSpace.ReplaceAllString(raw, " ")
	return strings.Trim(name, " ,:;-#(")
}

func hasLetter(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}
