// Package tasks runs the long batch jobs behind the catalog and playlist CLI commands, with real-time progress reporting.
//
// # Operations
//
//  1. [Engine.ImportCatalog] : load a JSON Lines song dump into the catalog
//     - One song object per line: title, artist, album, year, genre
//     - Year may be a number or a string; genre a string or a list
//     - Malformed lines are skipped and reported, never fatal
//     - Songs are stored in batches, each batch in one transaction; songs
//     already in the catalog (same title and artist) count as duplicates
//
//  2. [Engine.BulkExport] : write a user's playlists to files
//     - A worker pool renders playlists concurrently through the formatter package
//     - A manifest summarising every result is written next to the files
//
// # Progress Reporting
//
// # All operations use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data.
// Updates use select with default to prevent blocking; a nil channel disables reporting.
package tasks
