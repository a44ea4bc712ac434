// Package models defines the domain values of the music agent and the interfaces its stores implement.
//
// Values:
//   - [Song] : one catalog track, copied by value into playlists
//   - [SongList] : ordered song container with title-based lookup and removal
//   - [Playlist] : a named [SongList]
//   - [User] : the persisted document owning a user's playlists
//
// Persistence is expressed through [DocumentStore], which loads and overwrites
// whole documents by key, and [SongFinder], which answers [SongFilter] queries
// against the read-only catalog.
package models
