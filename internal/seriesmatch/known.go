package seriesmatch

import (
	"strings"
	"unicode/utf8"

	"plexshelf/internal/textutil"
)

const (
	// knownAuthorBonus is added to the title similarity when the item and the
	// series share an author.
	knownAuthorBonus = 10
	// minKnownSeriesRunes keeps very short series names from matching inside
	// unrelated titles.
	minKnownSeriesRunes = 4
)

// KnownSeries is a stored series that unmatched items may be attached to.
type KnownSeries struct {
	// Name is the normalized series name.
	Name        string
	DisplayName string
	// Author is the normalized author, empty when unknown.
	Author string
}

type knownMatch struct {
	series        KnownSeries
	similarity    int
	authorMatched bool
	score         int
}

// bestKnownSeries compares a normalized title against stored series names by
// partial ratio. A shared author adds knownAuthorBonus; two known authors that
// differ rule the series out. The score must exceed opts.Threshold. Ties go to
// the lexically smallest series name.
func bestKnownSeries(title, author string, known []KnownSeries, opts FuzzyOptions) (knownMatch, bool) {
	var best knownMatch
	found := false
	for _, series := range known {
		if utf8.RuneCountInString(series.Name) < minKnownSeriesRunes || onlyStopWords(strings.Fields(series.Name)) {
			continue
		}
		authorMatched := false
		if author != "" && series.Author != "" {
			if textutil.Ratio(author, series.Author) < opts.AuthorThreshold {
				continue
			}
			authorMatched = true
		}
		similarity := textutil.PartialRatio(title, series.Name)
		score := similarity
		if authorMatched {
			score = min(100, score+knownAuthorBonus)
		}
		if score <= opts.Threshold {
			continue
		}
		if found && (score < best.score || (score == best.score && series.Name >= best.series.Name)) {
			continue
		}
		best = knownMatch{series: series, similarity: similarity, authorMatched: authorMatched, score: score}
		found = true
	}
	return best, found
}
