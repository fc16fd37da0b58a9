package database

import (
	"path/filepath"
	"testing"

	"spendlens/internal/config"
	"spendlens/internal/models"
)

func TestNewConfig(t *testing.T) {
	t.Run("sqlite", func(t *testing.T) {
		cfg, err := NewConfig(&config.Config{StoreBackend: config.StoreSQLite, SQLitePath: "x.db"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Driver != DriverSQLite || cfg.DSN != "x.db" {
			t.Errorf("config = %+v", cfg)
		}
	})

	t.Run("postgres", func(t *testing.T) {
		app := &config.Config{
			StoreBackend: config.StorePostgres,
			DBHost:       "db", DBPort: "5432", DBUser: "u", DBPassword: "p", DBName: "n", DBSSLMode: "disable",
		}
		cfg, err := NewConfig(app)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Driver != DriverPostgres || cfg.MigrateURL != "postgres://u:p@db:5432/n?sslmode=disable" {
			t.Errorf("config = %+v", cfg)
		}
		if cfg.MigrationsDir != "migrations" {
			t.Errorf("MigrationsDir = %q", cfg.MigrationsDir)
		}
	})

	t.Run("document stores are rejected", func(t *testing.T) {
		for _, backend := range []string{config.StoreFirebase, config.StoreMongo} {
			if _, err := NewConfig(&config.Config{StoreBackend: backend}); err == nil {
				t.Errorf("expected error for %s", backend)
			}
		}
	})
}

func TestManager_SQLite(t *testing.T) {
	m, err := NewManager(&Config{Driver: DriverSQLite, DSN: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	defer m.Close()

	if err := m.RunMigrations(); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	for _, model := range []interface{}{&models.Expense{}, &models.AuditLog{}} {
		if !m.DB().Migrator().HasTable(model) {
			t.Errorf("table for %T missing after migration", model)
		}
	}

	// Re-running is a no-op.
	if err := m.RunMigrations(); err != nil {
		t.Fatalf("second RunMigrations: %v", err)
	}
}

func TestNewManager_UnknownDriver(t *testing.T) {
	if _, err := NewManager(&Config{Driver: "oracle"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewMigrate_RequiresPostgres(t *testing.T) {
	if _, err := NewMigrate(&Config{Driver: DriverSQLite}); err == nil {
		t.Fatal("expected error")
	}
}
