package testsupport

import (
	"context"
	"errors"
	"sync"

	"plexshelf/internal/catalog"
	"plexshelf/internal/seriesmatch"
)

// StaticSource serves a fixed set of raw catalog records.
func StaticSource(records ...catalog.RawItem) catalog.Source {
	return catalog.SourceFunc(func(context.Context) ([]catalog.RawItem, error) {
		out := make([]catalog.RawItem, len(records))
		copy(out, records)
		return out, nil
	})
}

// Raw builds a raw catalog record with id, title, and author.
func Raw(id, title, author string) catalog.RawItem {
	return catalog.RawItem{catalog.FieldID: id, catalog.FieldTitle: title, catalog.FieldAuthor: author}
}

// RecordingSink captures collection and sort title writes. Collections listed
// in FailCollections fail with an error.
type RecordingSink struct {
	FailCollections map[string]bool

	mu          sync.Mutex
	collections map[string][]string
	sortTitles  map[string]string
}

// NewRecordingSink returns an empty sink.
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{
		FailCollections: make(map[string]bool),
		collections:     make(map[string][]string),
		sortTitles:      make(map[string]string),
	}
}

// AddToCollection records ids under collection.
func (s *RecordingSink) AddToCollection(_ context.Context, collection string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCollections[collection] {
		return errors.New("plex unreachable")
	}
	s.collections[collection] = append(s.collections[collection], ids...)
	return nil
}

// SetSortTitle records the sort title for id.
func (s *RecordingSink) SetSortTitle(_ context.Context, id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sortTitles[id] = title
	return nil
}

// Collection returns the ids written to collection.
func (s *RecordingSink) Collection(name string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.collections[name]...)
}

// SortTitle returns the last sort title written for id.
func (s *RecordingSink) SortTitle(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortTitles[id]
}

// FakeLookup answers from a map keyed by normalized title and counts calls.
// Titles not in the map are Unknown.
type FakeLookup struct {
	Results map[string]seriesmatch.LookupResult

	mu    sync.Mutex
	calls int
}

// Lookup implements seriesmatch.Lookup.
func (f *FakeLookup) Lookup(_ context.Context, req seriesmatch.LookupRequest) seriesmatch.LookupResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if res, ok := f.Results[req.Title]; ok {
		return res
	}
	return seriesmatch.NotFound()
}

// Calls reports how many lookups were made.
func (f *FakeLookup) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
