package textutil

import (
	"slices"
	"strings"
)

// Tokenize splits normalized text on whitespace.
func Tokenize(text string) []string {
	return strings.Fields(text)
}

// TokenSet returns the unique tokens of text in sorted order.
func TokenSet(text string) []string {
	tokens := Tokenize(text)
	slices.Sort(tokens)
	return slices.Compact(tokens)
}

// CommonPrefix returns the longest run of leading tokens shared by every input.
func CommonPrefix(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	prefix := Tokenize(values[0])
	for _, value := range values[1:] {
		tokens := Tokenize(value)
		n := 0
		for n < len(prefix) && n < len(tokens) && prefix[n] == tokens[n] {
			n++
		}
		prefix = prefix[:n]
		if n == 0 {
			break
		}
	}
	return prefix
}

// splitSets partitions two sorted, deduplicated token slices into shared and
// one-sided tokens, each in sorted order.
func splitSets(a, b []string) (common, onlyA, onlyB []string) {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			common = append(common, a[i])
			i++
			j++
		case a[i] < b[j]:
			onlyA = append(onlyA, a[i])
			i++
		default:
			onlyB = append(onlyB, b[j])
			j++
		}
	}
	onlyA = append(onlyA, a[i:]...)
	onlyB = append(onlyB, b[j:]...)
	return common, onlyA, onlyB
}
