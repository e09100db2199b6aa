package etl

import "context"

// ── Destination ────────────────────────────────────────────
// A Destination writes a dataset into a target system with replace
// semantics: prior contents under the same name are fully overwritten.
// Implementations live in etl/destinations/.

// Destination names accepted in job requests.
const (
	DestinationDatabase = "database"
	DestinationCSV      = "csv"
)

// Destination writes a dataset to a target system.
type Destination interface {
	// Target names the table, collection or file written to.
	Target() string

	// Write replaces the target contents with d and returns the rows written.
	Write(ctx context.Context, d *Dataset) (int, error)
}

// DestinationResolver selects the Destination for a destination/dbname pair.
// It fails with an UnsupportedDestinationError for unknown pairs.
type DestinationResolver interface {
	Resolve(destination, dbname string) (Destination, error)
}

// DestinationResolverFunc adapts a plain function to DestinationResolver.
type DestinationResolverFunc func(destination, dbname string) (Destination, error)

func (f DestinationResolverFunc) Resolve(destination, dbname string) (Destination, error) {
	return f(destination, dbname)
}
