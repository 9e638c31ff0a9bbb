package seriesmatch

import (
	"cmp"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"plexshelf/internal/textutil"
)

var (
	stemDropWords = map[string]struct{}{
		"book": {}, "bk": {}, "volume": {}, "vol": {}, "part": {}, "pt": {},
	}
	stopWords = map[string]struct{}{
		"the": {}, "a": {}, "an": {}, "of": {}, "and": {}, "in": {}, "to": {},
	}
	digitsOnly    = regexp.MustCompile(`^\d+$`)
	titlePosition = regexp.MustCompile(`\b(?:book|volume|vol|part)\s+(\d+|` + numberWordAlternation + `)\b`)
	multiNumeral  = regexp.MustCompile(`^[ivx]{2,}$`)
)

// FuzzyOptions tunes clustering.
type FuzzyOptions struct {
	// Threshold is the pairwise similarity an item must exceed to join a
	// cluster.
	Threshold int
	// AuthorThreshold is the minimum author similarity for two items with
	// known authors to be compared at all.
	AuthorThreshold int
}

// fuzzyEntry is one item eligible for clustering.
type fuzzyEntry struct {
	index  int
	itemID string
	stem   string
	author string
}

// Cluster is a group of at least two items inferred to share a series.
type Cluster struct {
	SeriesName  string
	DisplayName string
	// Members are indexes into the slice passed to Group, in visit order.
	Members []int
	// AvgSimilarity is the rounded mean of all pairwise member similarities.
	AvgSimilarity int
	similaritySum int
	pairs         int
}

// Stem removes position markers (book/volume/part words, digits, number words,
// and multi-letter roman numerals) from a normalized title.
func Stem(normalizedTitle string) string {
	tokens := textutil.Tokenize(normalizedTitle)
	kept := tokens[:0]
	for _, tok := range tokens {
		if _, drop := stemDropWords[tok]; drop {
			continue
		}
		if _, number := numberWords[tok]; number {
			continue
		}
		if digitsOnly.MatchString(tok) || multiNumeral.MatchString(tok) {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

// onlyStopWords reports whether tokens holds nothing but stop words. An empty
// slice counts as stop words only.
func onlyStopWords(tokens []string) bool {
	for _, tok := range tokens {
		if _, stop := stopWords[tok]; !stop {
			return false
		}
	}
	return true
}

// positionFromTitle finds a "book N" style marker inside a normalized title.
func positionFromTitle(normalizedTitle string) Position {
	m := titlePosition.FindStringSubmatch(normalizedTitle)
	if m == nil {
		return UnknownPosition()
	}
	return ParsePosition(m[1])
}

type grouper struct {
	opts     FuzzyOptions
	entries  []fuzzyEntry
	profiles []textutil.TokenProfile
	// authorIDs interns entry authors; 0 means unknown.
	authorIDs   []int
	authorNames []string
	authorGate  map[[2]int]bool
}

func newGrouper(opts FuzzyOptions, entries []fuzzyEntry) *grouper {
	g := &grouper{
		opts:        opts,
		entries:     entries,
		profiles:    make([]textutil.TokenProfile, len(entries)),
		authorIDs:   make([]int, len(entries)),
		authorNames: []string{""},
		authorGate:  make(map[[2]int]bool),
	}
	interned := make(map[string]int)
	for i, e := range entries {
		g.profiles[i] = textutil.NewTokenProfile(e.stem)
		if e.author == "" {
			continue
		}
		id, ok := interned[e.author]
		if !ok {
			id = len(g.authorNames)
			interned[e.author] = id
			g.authorNames = append(g.authorNames, e.author)
		}
		g.authorIDs[i] = id
	}
	return g
}

// sameAuthor reports whether two entries may be compared. Unknown authors
// match anything; known authors must reach AuthorThreshold by edit ratio.
// Results are cached per distinct author pair.
func (g *grouper) sameAuthor(a, b int) bool {
	ia, ib := g.authorIDs[a], g.authorIDs[b]
	if ia == 0 || ib == 0 || ia == ib {
		return true
	}
	if ia > ib {
		ia, ib = ib, ia
	}
	key := [2]int{ia, ib}
	ok, seen := g.authorGate[key]
	if !seen {
		ok = textutil.Ratio(g.authorNames[ia], g.authorNames[ib]) >= g.opts.AuthorThreshold
		g.authorGate[key] = ok
	}
	return ok
}

// similarity is the token-set ratio of two stems, or 0 when both authors are
// known and differ.
func (g *grouper) similarity(a, b int) int {
	if !g.sameAuthor(a, b) {
		return 0
	}
	return g.profiles[a].SetRatio(g.profiles[b])
}

type workingCluster struct {
	members []int // positions in g.entries
	name    string
	// simSum and pairs accumulate pairwise member similarity as members join.
	simSum int
	pairs  int
}

// bestCluster picks the cluster entry idx should join: the highest member
// similarity above the threshold, then the most members, then the lexically
// smallest name. sum is idx's total similarity to the chosen cluster's
// members.
func (g *grouper) bestCluster(idx int, clusters []*workingCluster) (best *workingCluster, sum int) {
	bestSim := -1
	for _, c := range clusters {
		maxSim, total := -1, 0
		for _, m := range c.members {
			sim := g.similarity(idx, m)
			maxSim = max(maxSim, sim)
			total += sim
		}
		if maxSim <= g.opts.Threshold {
			continue
		}
		switch {
		case best == nil, maxSim > bestSim:
		case maxSim == bestSim && len(c.members) > len(best.members):
		case maxSim == bestSim && len(c.members) == len(best.members) && c.name < best.name:
		default:
			continue
		}
		best, bestSim, sum = c, maxSim, total
	}
	return best, sum
}

// group clusters entries deterministically. Entries are visited sorted by
// author, stem, then item id.
func (g *grouper) group() []Cluster {
	order := make([]int, len(g.entries))
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int {
		ea, eb := g.entries[a], g.entries[b]
		return cmp.Or(
			cmp.Compare(ea.author, eb.author),
			cmp.Compare(ea.stem, eb.stem),
			cmp.Compare(ea.itemID, eb.itemID),
		)
	})

	var clusters []*workingCluster
	for _, idx := range order {
		best, sum := g.bestCluster(idx, clusters)
		if best == nil {
			clusters = append(clusters, &workingCluster{members: []int{idx}, name: g.entries[idx].stem})
			continue
		}
		best.simSum += sum
		best.pairs += len(best.members)
		best.members = append(best.members, idx)
		best.name = g.clusterName(best.members)
	}

	out := make([]Cluster, 0, len(clusters))
	for _, c := range clusters {
		if len(c.members) < 2 {
			continue
		}
		cluster := Cluster{
			SeriesName:    c.name,
			DisplayName:   displayName(c.name),
			AvgSimilarity: roundDiv(c.simSum, c.pairs),
			similaritySum: c.simSum,
			pairs:         c.pairs,
		}
		for _, m := range c.members {
			cluster.Members = append(cluster.Members, g.entries[m].index)
		}
		out = append(out, cluster)
	}
	return out
}

// clusterName is the longest common token prefix of member stems, ignoring a
// prefix made only of stop words, else the most frequent stem.
func (g *grouper) clusterName(members []int) string {
	stems := make([]string, len(members))
	for i, m := range members {
		stems[i] = g.entries[m].stem
	}
	prefix := textutil.CommonPrefix(stems)
	if !onlyStopWords(prefix) {
		return strings.Join(prefix, " ")
	}
	counts := make(map[string]int, len(stems))
	for _, s := range stems {
		counts[s]++
	}
	best := ""
	bestCount := 0
	for s, n := range counts {
		if n > bestCount || (n == bestCount && s < best) {
			best, bestCount = s, n
		}
	}
	return best
}

func displayName(normalized string) string {
	return cases.Title(language.English).String(normalized)
}

// roundDiv returns num/den rounded half up for non-negative inputs.
func roundDiv(num, den int) int {
	if den <= 0 {
		return 0
	}
	return (2*num + den) / (2 * den)
}
