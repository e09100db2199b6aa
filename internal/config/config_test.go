package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etlapi/internal/domain"
	"etlapi/internal/etl"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"LISTEN_ADDR", "LOG_LEVEL", "LOG_FORMAT", "CORS_ALLOWED_ORIGINS",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "RUN_TIMEOUT",
		"API_SOURCE_URL", "API_SOURCE_TIMEOUT", "API_SOURCE_DATA_PATH",
		"CSV_SOURCE_PATH", "CSV_DEST_PATH", "DEFAULT_DBNAME",
		"SQLITE_PATH", "SQLITE_TABLE",
		"POSTGRES_DSN", "POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_USER",
		"POSTGRES_PASSWORD", "POSTGRES_DB", "POSTGRES_SSLMODE", "POSTGRES_TABLE",
		"MYSQL_DSN", "MYSQL_HOST", "MONGO_URI", "DUCKDB_PATH",
		"S3_KEY_ID", "S3_SECRET", "AZURE_ACCOUNT_NAME", "AZURE_ACCOUNT_KEY", "AZURE_ENDPOINT",
		"ETL_JOBS_FILE",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.ListenAddr)
	assert.Equal(t, []string{"http://localhost:3001"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "https://api.example.com/data", cfg.APISourceURL)
	assert.Equal(t, 30*time.Second, cfg.APISourceTimeout)
	assert.Equal(t, 5*time.Minute, cfg.RunTimeout)
	assert.Equal(t, "data.csv", cfg.CSVSourcePath)
	assert.Equal(t, "transformed_data.csv", cfg.CSVDestPath)
	assert.Equal(t, "postgresql", cfg.DefaultDBName)
	assert.Equal(t, "example.db", cfg.SQLitePath)
	assert.Equal(t, "table_name", cfg.SQLiteTable)
	assert.Equal(t, "localhost", cfg.Postgres.Host)
	assert.Equal(t, 5432, cfg.Postgres.Port)
	assert.Equal(t, "transformed_table", cfg.Postgres.Table)
	assert.Nil(t, cfg.MySQL)
	assert.Nil(t, cfg.Mongo)
	assert.Nil(t, cfg.DuckDB)
	assert.NotEmpty(t, cfg.Warnings)

	targets := cfg.DatabaseTargets()
	assert.Len(t, targets, 2)
	assert.Equal(t, "table_name", targets[domain.DatabaseDriverSQLite].Table)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LISTEN_ADDR", ":8080")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("POSTGRES_DSN", "postgres://u:p@db/x")
	t.Setenv("DEFAULT_DBNAME", "sqlite")
	t.Setenv("DUCKDB_PATH", "warehouse.duckdb")
	t.Setenv("MONGO_URI", "mongodb://mongo:27017/etl")
	t.Setenv("RATE_LIMIT_RPS", "0")
	t.Setenv("AZURE_ACCOUNT_NAME", "devstoreaccount1")
	t.Setenv("AZURE_ACCOUNT_KEY", "a2V5")
	t.Setenv("AZURE_ENDPOINT", "http://127.0.0.1:10000/devstoreaccount1")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "http://127.0.0.1:10000/devstoreaccount1", cfg.AzureEndpoint)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "postgres://u:p@db/x", cfg.Postgres.DSN)
	assert.Equal(t, "sqlite", cfg.DefaultDBName)
	assert.Equal(t, 0.0, cfg.RateLimitRPS)

	targets := cfg.DatabaseTargets()
	assert.Len(t, targets, 4)
	assert.Equal(t, "warehouse.duckdb", targets[domain.DatabaseDriverDuckDB].Host)
	assert.Equal(t, "transformed_table", targets[domain.DatabaseDriverMongoDB].Table)
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"bad rps":             {"RATE_LIMIT_RPS": "fast"},
		"bad timeout":         {"RUN_TIMEOUT": "soon"},
		"negative timeout":    {"API_SOURCE_TIMEOUT": "-1s"},
		"bad port":            {"POSTGRES_PORT": "x"},
		"unknown default db":  {"DEFAULT_DBNAME": "mysql"},
		"half azure":          {"AZURE_ACCOUNT_NAME": "acct"},
		"half s3 credentials": {"S3_KEY_ID": "key"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := LoadFromEnv()
			require.Error(t, err)
		})
	}
}

func TestSlogLevel(t *testing.T) {
	for in, want := range map[string]string{"debug": "DEBUG", "WARN": "WARN", "error": "ERROR", "": "INFO"} {
		cfg := &Config{LogLevel: in}
		assert.Equal(t, want, cfg.SlogLevel().String(), in)
	}
}

func TestLoadDotEnv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"# comment\nDOTENV_A=\"quoted value\"\nexport DOTENV_B='single'\nDOTENV_C=from-file\nnot a pair\n",
	), 0o644))
	t.Setenv("DOTENV_C", "from-env")
	t.Setenv("DOTENV_A", "")
	t.Setenv("DOTENV_B", "")
	require.NoError(t, os.Unsetenv("DOTENV_A"))
	require.NoError(t, os.Unsetenv("DOTENV_B"))

	require.NoError(t, LoadDotEnv(envFile))

	assert.Equal(t, "quoted value", os.Getenv("DOTENV_A"))
	assert.Equal(t, "single", os.Getenv("DOTENV_B"))
	assert.Equal(t, "from-env", os.Getenv("DOTENV_C"), "environment wins over .env")
}

func TestLoadDotEnv_FileNotFound(t *testing.T) {
	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")))
}

// ─────────────────────────────────────────────────────────────
// Jobs file
// ─────────────────────────────────────────────────────────────

func TestParseJobs(t *testing.T) {
	jobs, err := ParseJobs([]byte(`
jobs:
  - name: nightly-api
    source: api
    destination: database
    dbname: sqlite
    trigger: {type: schedule, config: "0 2 * * *"}
  - name: on-upload
    source: csv
    destination: csv
    trigger:
      type: file_watch
      config: ./data.csv
`))
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.Equal(t, &etl.Job{
		ID:            "nightly-api",
		Name:          "nightly-api",
		Source:        "api",
		Destination:   "database",
		DBName:        "sqlite",
		TriggerType:   etl.TriggerSchedule,
		TriggerConfig: "0 2 * * *",
	}, jobs[0])
	assert.Equal(t, etl.TriggerFileWatch, jobs[1].TriggerType)
}

func TestParseJobs_Empty(t *testing.T) {
	jobs, err := ParseJobs(nil)
	require.NoError(t, err)
	assert.Empty(t, jobs)

	jobs, err = LoadJobs("")
	require.NoError(t, err)
	assert.Nil(t, jobs)
}

func TestParseJobs_Invalid(t *testing.T) {
	tests := map[string]string{
		"missing name":    `jobs: [{source: csv, destination: csv, trigger: {type: schedule, config: "@hourly"}}]`,
		"duplicate":       `jobs: [{name: a, source: csv, destination: csv, trigger: {type: schedule, config: "@hourly"}}, {name: a, source: csv, destination: csv, trigger: {type: schedule, config: "@hourly"}}]`,
		"bad cron":        `jobs: [{name: a, source: csv, destination: csv, trigger: {type: schedule, config: "every day"}}]`,
		"unknown trigger": `jobs: [{name: a, source: csv, destination: csv, trigger: {type: webhook, config: "/x"}}]`,
		"no destination":  `jobs: [{name: a, source: csv, trigger: {type: file_watch, config: "data.csv"}}]`,
		"bad destination": `jobs: [{name: a, source: csv, destination: parquet, trigger: {type: file_watch, config: "data.csv"}}]`,
		"unknown field":   `jobs: [{name: a, source: csv, destination: csv, mode: append, trigger: {type: file_watch, config: "data.csv"}}]`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseJobs([]byte(doc))
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
		})
	}
}

func TestLoadJobs_MissingFile(t *testing.T) {
	_, err := LoadJobs(filepath.Join(t.TempDir(), "jobs.yaml"))
	require.Error(t, err)
}
