// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"etlapi/internal/domain"
)

// S3Config holds optional S3 (or S3-compatible) credentials.
type S3Config struct {
	KeyID        string
	Secret       string
	Region       string
	Endpoint     string // custom endpoint for MinIO, R2, ...
	UsePathStyle bool
}

// Configured returns true when static credentials are present.
func (s S3Config) Configured() bool { return s.KeyID != "" && s.Secret != "" }

// Config holds the configuration for the HTTP API, the pipeline and its
// load targets.
type Config struct {
	ListenAddr string // HTTP listen address (default ":5000")
	LogLevel   string // debug, info, warn, error (default "info")
	LogFormat  string // json (default) or text

	// HTTP
	CORSAllowedOrigins []string      // default ["http://localhost:3001"]
	RateLimitRPS       float64       // sustained requests per second per client, 0 disables
	RateLimitBurst     int           // burst capacity
	RunTimeout         time.Duration // upper bound of a single pipeline run (default 5m)

	// Sources
	APISourceURL      string
	APISourceTimeout  time.Duration
	APISourceDataPath string
	CSVSourcePath     string

	// Destinations
	CSVDestPath   string
	DefaultDBName string // dbname used when a request omits it (default "postgresql")

	SQLitePath  string
	SQLiteTable string

	Postgres domain.DatabaseTarget
	MySQL    *domain.DatabaseTarget // nil when not configured
	Mongo    *domain.DatabaseTarget // nil when not configured
	DuckDB   *domain.DatabaseTarget // nil when not configured

	// Object stores
	S3            S3Config
	GCSKeyFile    string
	AzureAccount  string
	AzureKey      string
	AzureEndpoint string // blob service URL; empty uses the public cloud

	// JobsFile is an optional YAML file of scheduled jobs.
	JobsFile string

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the process logger from LogLevel and LogFormat.
func (c *Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if strings.EqualFold(c.LogFormat, "text") {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

// DatabaseTargets returns every configured load target keyed by its dbname.
// sqlite and postgresql are always present.
func (c *Config) DatabaseTargets() map[domain.DatabaseDriver]domain.DatabaseTarget {
	targets := map[domain.DatabaseDriver]domain.DatabaseTarget{
		domain.DatabaseDriverSQLite: {
			Driver: domain.DatabaseDriverSQLite,
			Host:   c.SQLitePath,
			Table:  c.SQLiteTable,
		},
		domain.DatabaseDriverPostgres: c.Postgres,
	}
	for _, t := range []*domain.DatabaseTarget{c.MySQL, c.Mongo, c.DuckDB} {
		if t != nil {
			targets[t.Driver] = *t
		}
	}
	return targets
}

// LoadFromEnv loads configuration from environment variables.
// Only sqlite, postgresql, the csv paths and the api URL have defaults; the
// remaining targets and object stores are enabled by setting their variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		ListenAddr:        os.Getenv("LISTEN_ADDR"),
		LogLevel:          os.Getenv("LOG_LEVEL"),
		LogFormat:         os.Getenv("LOG_FORMAT"),
		APISourceURL:      os.Getenv("API_SOURCE_URL"),
		APISourceDataPath: os.Getenv("API_SOURCE_DATA_PATH"),
		CSVSourcePath:     os.Getenv("CSV_SOURCE_PATH"),
		CSVDestPath:       os.Getenv("CSV_DEST_PATH"),
		DefaultDBName:     os.Getenv("DEFAULT_DBNAME"),
		SQLitePath:        os.Getenv("SQLITE_PATH"),
		SQLiteTable:       os.Getenv("SQLITE_TABLE"),
		GCSKeyFile:        os.Getenv("GCS_KEY_FILE"),
		AzureAccount:      os.Getenv("AZURE_ACCOUNT_NAME"),
		AzureKey:          os.Getenv("AZURE_ACCOUNT_KEY"),
		AzureEndpoint:     os.Getenv("AZURE_ENDPOINT"),
		JobsFile:          os.Getenv("ETL_JOBS_FILE"),
		RateLimitRPS:      100,
		RateLimitBurst:    200,
	}

	// Rate limiting
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("RATE_LIMIT_RPS: %w", err)
		}
		cfg.RateLimitRPS = f
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("RATE_LIMIT_BURST: %w", err)
		}
		cfg.RateLimitBurst = n
	}

	var err error
	if cfg.RunTimeout, err = durationEnv("RUN_TIMEOUT", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.APISourceTimeout, err = durationEnv("API_SOURCE_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}

	// CORS
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORSAllowedOrigins = splitList(v)
	}

	// Postgres
	cfg.Postgres = domain.DatabaseTarget{
		Driver:   domain.DatabaseDriverPostgres,
		DSN:      os.Getenv("POSTGRES_DSN"),
		Host:     os.Getenv("POSTGRES_HOST"),
		Username: os.Getenv("POSTGRES_USER"),
		Password: os.Getenv("POSTGRES_PASSWORD"),
		Database: os.Getenv("POSTGRES_DB"),
		SSLMode:  os.Getenv("POSTGRES_SSLMODE"),
		Table:    os.Getenv("POSTGRES_TABLE"),
	}
	if cfg.Postgres.Port, err = intEnv("POSTGRES_PORT", 5432); err != nil {
		return nil, err
	}

	// Optional targets
	if dsn, host := os.Getenv("MYSQL_DSN"), os.Getenv("MYSQL_HOST"); dsn != "" || host != "" {
		port, err := intEnv("MYSQL_PORT", 3306)
		if err != nil {
			return nil, err
		}
		cfg.MySQL = &domain.DatabaseTarget{
			Driver:   domain.DatabaseDriverMySQL,
			DSN:      dsn,
			Host:     host,
			Port:     port,
			Username: os.Getenv("MYSQL_USER"),
			Password: os.Getenv("MYSQL_PASSWORD"),
			Database: os.Getenv("MYSQL_DB"),
			Table:    envDefault("MYSQL_TABLE", "transformed_table"),
		}
	}
	if uri := os.Getenv("MONGO_URI"); uri != "" {
		cfg.Mongo = &domain.DatabaseTarget{
			Driver:   domain.DatabaseDriverMongoDB,
			DSN:      uri,
			Password: os.Getenv("MONGO_PASSWORD"),
			Database: os.Getenv("MONGO_DB"),
			Table:    envDefault("MONGO_COLLECTION", "transformed_table"),
		}
	}
	if path := os.Getenv("DUCKDB_PATH"); path != "" {
		cfg.DuckDB = &domain.DatabaseTarget{
			Driver: domain.DatabaseDriverDuckDB,
			Host:   path,
			Table:  envDefault("DUCKDB_TABLE", "transformed_table"),
		}
	}

	// Object stores
	cfg.S3 = S3Config{
		KeyID:        os.Getenv("S3_KEY_ID"),
		Secret:       os.Getenv("S3_SECRET"),
		Region:       os.Getenv("S3_REGION"),
		Endpoint:     os.Getenv("S3_ENDPOINT"),
		UsePathStyle: parseBoolEnvDefault("S3_USE_PATH_STYLE", false),
	}
	if (cfg.AzureAccount == "") != (cfg.AzureKey == "") {
		return nil, fmt.Errorf("both AZURE_ACCOUNT_NAME and AZURE_ACCOUNT_KEY must be set together")
	}
	if (cfg.S3.KeyID == "") != (cfg.S3.Secret == "") {
		return nil, fmt.Errorf("both S3_KEY_ID and S3_SECRET must be set together")
	}

	// Defaults
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":5000"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "json"
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"http://localhost:3001"}
	}
	if cfg.APISourceURL == "" {
		cfg.APISourceURL = "https://api.example.com/data"
	}
	if cfg.CSVSourcePath == "" {
		cfg.CSVSourcePath = "data.csv"
	}
	if cfg.CSVDestPath == "" {
		cfg.CSVDestPath = "transformed_data.csv"
	}
	if cfg.DefaultDBName == "" {
		cfg.DefaultDBName = string(domain.DatabaseDriverPostgres)
	}
	if cfg.SQLitePath == "" {
		cfg.SQLitePath = "example.db"
	}
	if cfg.SQLiteTable == "" {
		cfg.SQLiteTable = "table_name"
	}
	if cfg.Postgres.Table == "" {
		cfg.Postgres.Table = "transformed_table"
	}
	if cfg.Postgres.DSN == "" {
		if cfg.Postgres.Host == "" {
			cfg.Postgres.Host = "localhost"
		}
		if cfg.Postgres.Username == "" {
			cfg.Postgres.Username = "postgres"
		}
		if cfg.Postgres.Database == "" {
			cfg.Postgres.Database = "postgres"
		}
		if cfg.Postgres.Password == "" {
			cfg.Warnings = append(cfg.Warnings, "POSTGRES_PASSWORD not set, connecting to postgresql without a password")
		}
	}

	if _, ok := cfg.DatabaseTargets()[domain.DatabaseDriver(cfg.DefaultDBName)]; !ok {
		return nil, fmt.Errorf("DEFAULT_DBNAME %q does not name a configured database", cfg.DefaultDBName)
	}
	if cfg.RateLimitRPS <= 0 {
		cfg.Warnings = append(cfg.Warnings, "rate limiting disabled (RATE_LIMIT_RPS <= 0)")
	}

	return cfg, nil
}

func envDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func intEnv(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func durationEnv(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, v)
	}
	return d, nil
}

func parseBoolEnvDefault(key string, defaultVal bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return defaultVal
	}
	if v == "0" || v == "false" || v == "no" || v == "off" {
		return false
	}
	if v == "1" || v == "true" || v == "yes" || v == "on" {
		return true
	}
	return defaultVal
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = stripQuotes(strings.TrimSpace(value))
		if _, set := os.LookupEnv(key); !set {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes matching surrounding double or single quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
