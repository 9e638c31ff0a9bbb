// Package main hosts the plexshelf CLI entrypoint and command graph.
//
// The Cobra command tree scans the Plex audiobook library, runs series
// matching, walks the review queue, and applies approved series back to Plex
// as collections with ordered sort titles. Commands resolve configuration
// once, open the SQLite store lazily, and hand the work to api.Service so
// the HTTP server and the terminal share the same behaviour.
package main
