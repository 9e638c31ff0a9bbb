// Package services defines shared utilities consumed by the matching engine
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, item IDs, stage names, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures with errors.Is and report a stable failure kind.
//
// Integrations with Plex and the chat-completions API live in subpackages.
package services
