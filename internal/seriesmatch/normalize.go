package seriesmatch

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// noiseDefs lists edition and format markers removed from normalized text.
// Patterns are written against the collapsed form (lower case, single spaces,
// no punctuation).
var noiseDefs = []string{
	`special edition`,
	`collector s edition`,
	`collectors edition`,
	`deluxe edition`,
	`expanded edition`,
	`revised edition`,
	`anniversary edition`,
	`\d+ ?(?:st|nd|rd|th)? anniversary(?: edition)?`,
	`(?:un)?abridged(?: edition)?`,
	`audio ?books?`,
	`audio edition`,
	`full cast(?: dramati[sz]ation| edition)?`,
	`dramati[sz]ed(?: adaptation)?`,
	`retail`,
	`mp3|m4b|m4a|aac|flac`,
}

// noiseWords is the raw-text counterpart of noiseDefs used by Prepare, which
// keeps punctuation intact.
var noiseWords = regexp.MustCompile(`(?i)\b(?:special|collector'?s|deluxe|expanded|revised)\s+edition\b|\b\d+\s*(?:st|nd|rd|th)?\s+anniversary(?:\s+edition)?\b|\b(?:un)?abridged(?:\s+edition)?\b|\baudio\s?books?\b|\bfull[\s-]cast(?:\s+dramati[sz]ation)?\b|\bdramati[sz]ed(?:\s+adaptation)?\b|\bretail\b`)

var (
	noisePattern    *regexp.Regexp
	extSuffix       = regexp.MustCompile(`(?i)\.(?:mp3|m4b|m4a|aac|flac|ogg|opus|wav|wma)\s*$`)
	bracketBlock    = regexp.MustCompile(`\[[^\]]*\]|\{[^}]*\}`)
	parenBlock      = regexp.MustCompile(`\(([^()]*)\)`)
	yearOnly        = regexp.MustCompile(`^\d{4}$`)
	nonWord         = regexp.MustCompile(`[^\p{L}\p{N}]+`)
	repeatedSpace   = regexp.MustCompile(`\s+`)
	dashReplacer    = strings.NewReplacer("–", "-", "—", "-", "‒", "-", "_", " ")
	ampersandFolder = strings.NewReplacer("&", " and ")
)

func init() {
	noisePattern = regexp.MustCompile(`(?:^| )(?:` + strings.Join(noiseDefs, "|") + `)(?: |$)`)
}

// Normalize folds a raw title or author into the comparison form used by every
// matching stage: diacritics removed, lower case, file extensions and bracketed
// annotations dropped, punctuation collapsed to single spaces, and edition or
// format markers removed. Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	s = strings.ToLower(foldDiacritics(s))
	s = stripAnnotations(s)
	s = ampersandFolder.Replace(s)
	s = nonWord.ReplaceAllString(s, " ")
	return removeNoise(s)
}

// Prepare applies the annotation and noise cleanup of Normalize but keeps case
// and punctuation so series markers such as "#3" or ", Book 3" stay visible.
func Prepare(s string) string {
	s = stripAnnotations(s)
	s = dashReplacer.Replace(s)
	s = noiseWords.ReplaceAllString(s, " ")
	s = repeatedSpace.ReplaceAllString(s, " ")
	return strings.Trim(s, " -,:;")
}

func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func stripAnnotations(s string) string {
	s = strings.TrimSpace(s)
	s = extSuffix.ReplaceAllString(s, "")
	s = bracketBlock.ReplaceAllString(s, " ")
	return parenBlock.ReplaceAllStringFunc(s, func(block string) string {
		inner := removeNoise(nonWord.ReplaceAllString(strings.ToLower(block[1:len(block)-1]), " "))
		if inner == "" || yearOnly.MatchString(inner) {
			return " "
		}
		return block
	})
}

// removeNoise strips noise markers until none remain so the result is a fixed
// point, then collapses whitespace.
func removeNoise(s string) string {
	s = " " + strings.Join(strings.Fields(s), " ") + " "
	for {
		next := noisePattern.ReplaceAllString(s, " ")
		if next == s {
			break
		}
		s = next
	}
	return strings.Join(strings.Fields(s), " ")
}
