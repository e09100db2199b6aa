package dbclient

import (
	"context"
	"fmt"

	"etlapi/internal/domain"
)

// ColumnInfo describes a column/field.
type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"` // "integer" | "float" | "boolean" | "text"
}

// Table is a row-major table to be written. Each row holds one value per
// column: nil, int64, float64, bool or string.
type Table struct {
	Name    string
	Columns []ColumnInfo
	Rows    [][]any
}

// Connector abstracts writing to an external database.
type Connector interface {
	// TestConnection verifies connectivity.
	TestConnection(ctx context.Context) error

	// ReplaceTable drops any table (or collection) named t.Name, recreates it
	// from t.Columns and inserts t.Rows. It returns the rows written.
	ReplaceTable(ctx context.Context, t *Table) (int, error)

	// Close closes the connection.
	Close() error
}

// NewConnector creates a Connector for the given load target.
func NewConnector(target *domain.DatabaseTarget) (Connector, error) {
	switch target.Driver {
	case domain.DatabaseDriverSQLite:
		return newSQLiteConnector(target)
	case domain.DatabaseDriverMySQL:
		return newSQLConnector("mysql", buildMySQLDSN(target), mysqlDialect)
	case domain.DatabaseDriverPostgres:
		return newSQLConnector("postgres", buildPostgresDSN(target), postgresDialect)
	case domain.DatabaseDriverDuckDB:
		return newDuckDBConnector(target)
	case domain.DatabaseDriverMongoDB:
		return newMongoConnector(target)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", target.Driver)
	}
}
