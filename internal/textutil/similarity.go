package textutil

import (
	"math"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

// Ratio returns the edit-distance similarity of a and b scaled to 0-100.
// Two empty strings are identical; one empty string scores 0.
func Ratio(a, b string) int {
	if a == b {
		return 100
	}
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 100
	}
	distance := edlib.LevenshteinDistance(a, b)
	return clampPercent(math.Round(100 * (1 - float64(distance)/float64(longest))))
}

// TokenSortRatio compares a and b after sorting their tokens, so word order is
// ignored.
func TokenSortRatio(a, b string) int {
	sa := Tokenize(a)
	sb := Tokenize(b)
	slices.Sort(sa)
	slices.Sort(sb)
	return Ratio(strings.Join(sa, " "), strings.Join(sb, " "))
}

// TokenSetRatio compares the token sets of a and b. The shared tokens are
// compared against each side's shared-plus-remaining tokens and the best of the
// three pairings wins, so a title whose tokens are a subset of another's scores
// 100. Inputs with no shared tokens fall back to TokenSortRatio.
func TokenSetRatio(a, b string) int {
	return NewTokenProfile(a).SetRatio(NewTokenProfile(b))
}

// TokenProfile holds the token forms of one string so repeated comparisons
// against many others do not re-tokenize it.
type TokenProfile struct {
	set    []string
	sorted string
}

// NewTokenProfile tokenizes text once.
func NewTokenProfile(text string) TokenProfile {
	tokens := Tokenize(text)
	slices.Sort(tokens)
	return TokenProfile{
		set:    slices.Compact(slices.Clone(tokens)),
		sorted: strings.Join(tokens, " "),
	}
}

// Empty reports whether the profile has no tokens.
func (p TokenProfile) Empty() bool {
	return len(p.set) == 0
}

// SetRatio is TokenSetRatio over two prepared profiles.
func (p TokenProfile) SetRatio(q TokenProfile) int {
	if p.Empty() || q.Empty() {
		if p.Empty() && q.Empty() {
			return 100
		}
		return 0
	}
	common, onlyA, onlyB := splitSets(p.set, q.set)
	if len(common) == 0 {
		return Ratio(p.sorted, q.sorted)
	}
	base := strings.Join(common, " ")
	withA := strings.TrimSpace(base + " " + strings.Join(onlyA, " "))
	withB := strings.TrimSpace(base + " " + strings.Join(onlyB, " "))
	return max(Ratio(base, withA), Ratio(base, withB), Ratio(withA, withB))
}

// PartialRatio scores the shorter string against its best-aligned window of
// the longer one, so "foundation" inside "foundations edge" scores 100.
func PartialRatio(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	if len(ra) == 0 {
		if len(rb) == 0 {
			return 100
		}
		return 0
	}
	short := string(ra)
	best := 0
	for i := 0; i+len(ra) <= len(rb); i++ {
		best = max(best, Ratio(short, string(rb[i:i+len(ra)])))
		if best == 100 {
			break
		}
	}
	return best
}

func clampPercent(v float64) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return int(v)
	}
}
