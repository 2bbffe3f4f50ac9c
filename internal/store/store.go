// Package store provides full-collection persistence for the till's record
// collections (products, promotions, sales, users). A Store holds one named
// collection and supports nothing beyond reading and rewriting it whole;
// callers filter in memory. Drivers: flat JSON files, Postgres, and an
// in-memory store for tests.
package store

import "context"

// Store persists one record collection. SaveAll overwrites the entire
// collection; there is no row-level update. Implementations report failures
// as *model.PersistenceError.
type Store[T any] interface {
	// LoadAll reads every record in the collection. A collection that has
	// never been written loads as empty, not as an error.
	LoadAll(ctx context.Context) ([]T, error)

	// SaveAll replaces the collection with the given records.
	SaveAll(ctx context.Context, records []T) error
}
