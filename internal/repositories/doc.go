// Package repositories implements SQLite persistence for the agent.
//
// Key Implementations:
//   - [UserRepository] : whole-document user storage keyed by username; satisfies [models.DocumentStore]
//   - [SongRepository] : the read-mostly song catalog; satisfies [models.SongFinder]
//   - [SongCacheAdapter] : batched, de-duplicating catalog inserts used by import jobs
//
// Catalog rows carry a sequence number so query results come back in import order.
// The [NextSequence] function increments per-table counters stored in dedicated sequence tables.
package repositories
