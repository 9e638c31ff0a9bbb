// Package seriesmatch turns audiobook titles into scored series-membership
// candidates.
//
// A run flows through fixed stages: every item is normalized, explicit series
// markers are extracted ("Series, Book 3", "Series #3", "(Series, Book 3)"),
// the remaining items are clustered by title similarity, weakly supported items
// are optionally sent to an external Lookup, and finally each candidate gets an
// integer confidence between 0 and 100.
//
// The package is pure with respect to storage: Engine.Run takes a snapshot of
// items and returns candidates, skips, and diagnostics. Reconciling candidates
// with persisted state is the job of the lifecycle package.
package seriesmatch
