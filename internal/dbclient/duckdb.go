package dbclient

import (
	"fmt"

	"etlapi/internal/domain"

	_ "github.com/duckdb/duckdb-go/v2"
)

// newDuckDBConnector opens (or creates) a DuckDB database file.
func newDuckDBConnector(t *domain.DatabaseTarget) (*sqlConnector, error) {
	path := t.DSN
	if path == "" {
		path = t.Host
	}
	if path == "" {
		return nil, fmt.Errorf("duckdb path is required")
	}
	c, err := newSQLConnector("duckdb", path, duckdbDialect)
	if err != nil {
		return nil, err
	}
	c.db.SetMaxOpenConns(1)
	return c, nil
}
