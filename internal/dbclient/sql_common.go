package dbclient

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// dialect captures the SQL differences between the supported engines.
type dialect struct {
	name        string
	quote       func(string) string
	placeholder func(n int) string
	types       map[string]string // column type -> SQL type
}

func (d dialect) columnType(t string) string {
	if s, ok := d.types[t]; ok {
		return s
	}
	return d.types["text"]
}

func questionMark(int) string { return "?" }

var (
	postgresDialect = dialect{
		name:        "postgres",
		quote:       QuoteIdentifier,
		placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
		types:       map[string]string{"integer": "BIGINT", "float": "DOUBLE PRECISION", "boolean": "BOOLEAN", "text": "TEXT"},
	}
	sqliteDialect = dialect{
		name:        "sqlite",
		quote:       QuoteIdentifier,
		placeholder: questionMark,
		types:       map[string]string{"integer": "INTEGER", "float": "REAL", "boolean": "BOOLEAN", "text": "TEXT"},
	}
	mysqlDialect = dialect{
		name:        "mysql",
		quote:       QuoteMySQLIdentifier,
		placeholder: questionMark,
		types:       map[string]string{"integer": "BIGINT", "float": "DOUBLE", "boolean": "BOOLEAN", "text": "TEXT"},
	}
	duckdbDialect = dialect{
		name:        "duckdb",
		quote:       QuoteIdentifier,
		placeholder: questionMark,
		types:       map[string]string{"integer": "BIGINT", "float": "DOUBLE", "boolean": "BOOLEAN", "text": "VARCHAR"},
	}
)

// QuoteIdentifier quotes a SQL identifier with double quotes, doubling any
// embedded double quotes.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteMySQLIdentifier quotes a MySQL identifier with backticks, doubling any
// embedded backticks.
func QuoteMySQLIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// sqlConnector is the shared implementation for Postgres, MySQL, SQLite and DuckDB.
type sqlConnector struct {
	driverName string
	dialect    dialect
	db         *sql.DB
}

// newSQLConnector creates a generic SQL connector.
func newSQLConnector(driverName, dsn string, d dialect) (*sqlConnector, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverName, err)
	}
	// One load per connector: a small pool is plenty.
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(10 * time.Minute)

	return &sqlConnector{driverName: driverName, dialect: d, db: db}, nil
}

func (c *sqlConnector) TestConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return c.db.PingContext(ctx)
}

// ReplaceTable runs DROP, CREATE and the inserts in one transaction. Engines
// with transactional DDL (Postgres, SQLite, DuckDB) keep the previous table
// when any step fails; MySQL commits DDL implicitly.
func (c *sqlConnector) ReplaceTable(ctx context.Context, t *Table) (int, error) {
	if t.Name == "" {
		return 0, fmt.Errorf("table name is required")
	}
	if len(t.Columns) == 0 {
		return 0, fmt.Errorf("table %s has no columns", t.Name)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	table := c.dialect.quote(t.Name)
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
		return 0, fmt.Errorf("drop table %s: %w", t.Name, err)
	}
	if _, err := tx.ExecContext(ctx, c.createTableSQL(t)); err != nil {
		return 0, fmt.Errorf("create table %s: %w", t.Name, err)
	}

	written := 0
	if len(t.Rows) > 0 {
		stmt, err := tx.PrepareContext(ctx, c.insertSQL(t))
		if err != nil {
			return 0, fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		for i, row := range t.Rows {
			if len(row) != len(t.Columns) {
				return 0, fmt.Errorf("row %d has %d values, expected %d", i, len(row), len(t.Columns))
			}
			if _, err := stmt.ExecContext(ctx, row...); err != nil {
				return 0, fmt.Errorf("insert row %d: %w", i, err)
			}
			written++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return written, nil
}

func (c *sqlConnector) createTableSQL(t *Table) string {
	defs := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		defs[i] = c.dialect.quote(col.Name) + " " + c.dialect.columnType(col.Type)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", c.dialect.quote(t.Name), strings.Join(defs, ", "))
}

func (c *sqlConnector) insertSQL(t *Table) string {
	cols := make([]string, len(t.Columns))
	params := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		cols[i] = c.dialect.quote(col.Name)
		params[i] = c.dialect.placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		c.dialect.quote(t.Name), strings.Join(cols, ", "), strings.Join(params, ", "))
}

func (c *sqlConnector) Close() error {
	return c.db.Close()
}
