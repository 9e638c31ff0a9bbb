// Package plex talks to a Plex Media Server hosting an audiobook library.
//
// The client is both the catalog source for scans (ListItems) and the sink
// for approved series (AddToCollection, SetSortTitle). Audiobooks are music
// albums in Plex terms: the library is listed with type=9, falling back to
// walking artists (type=8) for servers that do not return albums directly.
//
// Requests authenticate with the X-Plex-Token header. A 401 is reported as a
// configuration error; every other failure is an external error.
package plex
