// Package catalog defines the audiobook item model and the ingestion step that
// turns loosely typed catalog records into validated items.
//
// Catalog sources (the Plex client in production, fakes in tests) return
// RawItem attribute bags. Ingest maps the known attributes into Item, enforces
// the required fields, and reports per-record validation failures without
// aborting the batch.
package catalog
