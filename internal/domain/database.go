package domain

// DatabaseDriver names a store the loader can write a dataset into.
// The values double as the public "dbname" selector of a job request.
type DatabaseDriver string

const (
	DatabaseDriverSQLite   DatabaseDriver = "sqlite"
	DatabaseDriverPostgres DatabaseDriver = "postgresql"
	DatabaseDriverMySQL    DatabaseDriver = "mysql"
	DatabaseDriverMongoDB  DatabaseDriver = "mongodb"
	DatabaseDriverDuckDB   DatabaseDriver = "duckdb"
)

// DatabaseTarget holds the metadata for connecting to a load target.
// When DSN is set it is used verbatim and the individual parts are ignored.
type DatabaseTarget struct {
	Driver   DatabaseDriver `json:"driver"`
	DSN      string         `json:"-"`
	Host     string         `json:"host"`     // hostname or file path (sqlite, duckdb)
	Port     int            `json:"port"`     // 0 for file-backed drivers
	Database string         `json:"database"` // db name, empty for file-backed drivers
	Username string         `json:"username"`
	Password string         `json:"-"`
	SSLMode  string         `json:"sslMode"`
	Table    string         `json:"table"` // table, or collection for mongodb
}

// JobRequest is the job description accepted by every entry point.
type JobRequest struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	DBName      string `json:"dbname,omitempty"`
}
