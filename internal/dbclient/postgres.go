package dbclient

import (
	"fmt"

	"etlapi/internal/domain"

	_ "github.com/lib/pq"
)

// buildPostgresDSN constructs a Postgres connection string from a DatabaseTarget.
func buildPostgresDSN(t *domain.DatabaseTarget) string {
	if t.DSN != "" {
		return t.DSN
	}
	host := t.Host
	if host == "" {
		host = "localhost"
	}
	port := t.Port
	if port == 0 {
		port = 5432
	}
	sslMode := t.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, port, quoteDSNValue(t.Username), quoteDSNValue(t.Password), quoteDSNValue(t.Database), sslMode,
	)
}

// quoteDSNValue single-quotes a keyword/value DSN value when it is empty or
// contains spaces, quotes or backslashes.
func quoteDSNValue(v string) string {
	needs := v == ""
	for _, r := range v {
		if r == ' ' || r == '\'' || r == '\\' {
			needs = true
			break
		}
	}
	if !needs {
		return v
	}
	out := []rune{'\''}
	for _, r := range v {
		if r == '\'' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(append(out, '\''))
}
