// Package config loads, normalizes, and validates PlexShelf configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// PLEX_TOKEN and OPENROUTER_API_KEY. The Config type centralizes every knob the
// CLI and HTTP server need: where the database lives, how to reach Plex, the
// matching thresholds, and which enrichment provider to consult.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
