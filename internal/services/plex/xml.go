package plex

import (
	"strings"

	"plexshelf/internal/catalog"
)

type mediaContainer struct {
	Directories []directory `xml:"Directory"`
}

func (m mediaContainer) albums() []directory {
	var out []directory
	for _, dir := range m.Directories {
		if dir.Type == "album" {
			out = append(out, dir)
		}
	}
	return out
}

type directory struct {
	Key           string `xml:"key,attr"`
	RatingKey     string `xml:"ratingKey,attr"`
	Type          string `xml:"type,attr"`
	Title         string `xml:"title,attr"`
	ParentTitle   string `xml:"parentTitle,attr"`
	OriginalTitle string `xml:"originalTitle,attr"`
	Year          string `xml:"year,attr"`
	Duration      string `xml:"duration,attr"`
	Collections   []struct {
		Tag string `xml:"tag,attr"`
	} `xml:"Collection"`
	Parts []struct {
		File string `xml:"file,attr"`
		Size string `xml:"size,attr"`
	} `xml:"Media>Part"`
}

// raw maps album attributes onto catalog fields. The first collection tag that
// mentions "series" becomes the series hint, minus the " Series" suffix this
// application appends when it creates collections.
func (d directory) raw() catalog.RawItem {
	item := catalog.RawItem{
		catalog.FieldID:       d.RatingKey,
		catalog.FieldTitle:    d.Title,
		catalog.FieldAuthor:   firstNonEmpty(d.ParentTitle, d.OriginalTitle),
		catalog.FieldYear:     d.Year,
		catalog.FieldDuration: d.Duration,
	}
	for _, c := range d.Collections {
		if hint, ok := seriesHint(c.Tag); ok {
			item[catalog.FieldSeries] = hint
			break
		}
	}
	if len(d.Parts) > 0 {
		item[catalog.FieldFilePath] = d.Parts[0].File
		item[catalog.FieldSize] = d.Parts[0].Size
	}
	return item
}

func seriesHint(tag string) (string, bool) {
	tag = strings.TrimSpace(tag)
	lower := strings.ToLower(tag)
	if !strings.Contains(lower, "series") {
		return "", false
	}
	if strings.HasSuffix(lower, " series") {
		tag = strings.TrimSpace(tag[:len(tag)-len(" series")])
	}
	return tag, tag != ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
