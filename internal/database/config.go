package database

import (
	"fmt"

	"spendlens/internal/config"
)

// Drivers supported by Manager.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds database configuration
type Config struct {
	Driver string
	// DSN is the gorm connection string: a file path or URI for sqlite, a
	// keyword/value string for postgres.
	DSN string
	// MigrateURL is the postgres:// URL handed to golang-migrate.
	MigrateURL string
	// MigrationsDir holds the numbered *.up.sql / *.down.sql files.
	MigrationsDir string
}

// NewConfig derives the database configuration from the application config.
// It fails for store backends that are not SQL databases.
func NewConfig(cfg *config.Config) (*Config, error) {
	switch cfg.StoreBackend {
	case config.StoreSQLite:
		return &Config{Driver: DriverSQLite, DSN: cfg.SQLitePath}, nil
	case config.StorePostgres:
		return &Config{
			Driver:        DriverPostgres,
			DSN:           cfg.PostgresDSN(),
			MigrateURL:    cfg.PostgresURL(),
			MigrationsDir: "migrations",
		}, nil
	default:
		return nil, fmt.Errorf("store backend %q is not a SQL database", cfg.StoreBackend)
	}
}
