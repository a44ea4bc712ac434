package models

import (
	"context"
)

// Document is a value persisted as a whole under a single key.
type Document interface {
	Key() string     // Key returns the identifier the document is stored under
	Validate() error // Validate checks the document's invariants before it is written
}

// DocumentStore loads and overwrites whole documents. There is no partial update.
type DocumentStore[T Document] interface {
	Find(ctx context.Context, key string) (T, error) // Find returns the stored document or an error wrapping shared.ErrNotFound
	Upsert(ctx context.Context, doc T) error          // Upsert replaces the stored document, creating it when absent
}

// SongFilter narrows a catalog query. Zero-valued fields are ignored and all
// string comparisons are case-insensitive.
type SongFilter struct {
	Title          string // exact title
	TitleContains  string // substring of the title
	Artist         string // exact artist
	ArtistContains string // substring of the artist
	Genre          string // song carries this genre
	Limit          int    // maximum results, 0 for the finder's default
}

// SongFinder answers catalog queries in catalog order.
type SongFinder interface {
	FindSongs(ctx context.Context, filter SongFilter) ([]Song, error)
}
