// Package destinations holds the loaders the pipeline can write into: a CSV
// file (local or object store) and the configured databases.
package destinations

import (
	"sort"

	"etlapi/internal/dbclient"
	"etlapi/internal/domain"
	"etlapi/internal/etl"
	"etlapi/internal/objectstore"
)

// ConnectFunc opens a connector for a database target.
type ConnectFunc func(target *domain.DatabaseTarget) (dbclient.Connector, error)

// Router resolves destination/dbname pairs against the configured targets.
type Router struct {
	CSVPath   string
	Store     objectstore.Store
	Databases map[domain.DatabaseDriver]domain.DatabaseTarget
	Connect   ConnectFunc // defaults to dbclient.NewConnector
}

// Resolve implements etl.DestinationResolver. "csv" ignores dbname; "database"
// requires dbname to name a configured target.
func (r *Router) Resolve(destination, dbname string) (etl.Destination, error) {
	switch destination {
	case etl.DestinationCSV:
		return &CSVFile{Path: r.CSVPath, Store: r.Store}, nil
	case etl.DestinationDatabase:
		target, ok := r.Databases[domain.DatabaseDriver(dbname)]
		if !ok {
			return nil, domain.ErrUnsupportedDestination(destination, dbname)
		}
		connect := r.Connect
		if connect == nil {
			connect = dbclient.NewConnector
		}
		return &Database{DB: target, Connect: connect}, nil
	default:
		return nil, domain.ErrUnsupportedDestination(destination, dbname)
	}
}

// DatabaseNames returns the configured dbname values, sorted.
func (r *Router) DatabaseNames() []string {
	names := make([]string, 0, len(r.Databases))
	for d := range r.Databases {
		names = append(names, string(d))
	}
	sort.Strings(names)
	return names
}
