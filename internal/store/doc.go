// Package store persists the catalog snapshot, series, series matches,
// collections, and matching runs in SQLite.
//
// The Store owns connection setup, schema creation, and busy retries. Writes
// produced by a matching run go through Commit so the whole changeset lands in
// one transaction; readers see either the pre-run or the post-run state.
// Status changes use conditional updates keyed on the expected current status
// so a stale caller gets ErrStaleMatch instead of silently overwriting a newer
// decision.
//
// Series rows are never deleted. Schema changes bump schemaVersion in
// schema.go; users delete the database to adopt the new schema.
package store
