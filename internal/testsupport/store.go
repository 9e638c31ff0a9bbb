package testsupport

import (
	"context"
	"testing"

	"plexshelf/internal/catalog"
	"plexshelf/internal/config"
	"plexshelf/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// SeedItems replaces the stored catalog snapshot with items.
func SeedItems(t testing.TB, st *store.Store, items ...catalog.Item) {
	t.Helper()

	if err := st.ReplaceItems(context.Background(), items); err != nil {
		t.Fatalf("store.ReplaceItems: %v", err)
	}
}

// Item builds a catalog item with the given id, title, and author.
func Item(id, title, author string) catalog.Item {
	return catalog.Item{ID: id, Title: title, Author: author}
}
