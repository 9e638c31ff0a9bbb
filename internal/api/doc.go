// Package api is the control surface shared by the CLI and the HTTP server.
//
// Service wires the store, the lifecycle manager, the catalog source, the
// collection sink, and the enrichment lookup together, and exposes the
// operations a reviewer needs: scan the catalog, run matching, review
// matches one at a time or in bulk, list series, and apply approved series as
// Plex collections.
//
// Results are returned as transport DTOs (types.go) with camelCase JSON tags
// and RFC3339 timestamps with milliseconds, so the CLI --json output and the
// HTTP responses are identical.
//
// Errors keep their services markers; callers classify them with errors.Is
// or services.FailureKind.
package api
