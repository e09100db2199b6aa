package dbclient

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"etlapi/internal/domain"

	_ "modernc.org/sqlite"
)

// buildSQLiteDSN appends the connection pragmas to a database file path.
func buildSQLiteDSN(path string) string {
	q := url.Values{}
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	return path + "?" + q.Encode()
}

// newSQLiteConnector opens (or creates) a SQLite file. SQLite has a single
// writer, so the pool is limited to one connection.
func newSQLiteConnector(t *domain.DatabaseTarget) (*sqlConnector, error) {
	path := t.DSN
	if path == "" {
		path = t.Host
	}
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	c, err := newSQLConnector("sqlite", buildSQLiteDSN(path), sqliteDialect)
	if err != nil {
		return nil, err
	}
	c.db.SetMaxOpenConns(1)
	return c, nil
}
