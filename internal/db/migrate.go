package db

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate brings the schema to the latest embedded version. Safe to call on
// every start.
func (d *DB) Migrate(log *slog.Logger) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return Classify(err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(sqlDB, &sqlite.Config{})
	if err != nil {
		return Classify(fmt.Errorf("migration driver: %w", err))
	}

	// m.Close would close sqlDB as well, so only the source is released.
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		_ = src.Close()
		return Classify(fmt.Errorf("init migrations: %w", err))
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		_ = src.Close()
		return Classify(fmt.Errorf("apply migrations: %w", err))
	}

	version, dirty, _ := m.Version()
	if log != nil {
		log.Debug("local schema ready", "version", version, "dirty", dirty, "path", d.path)
	}
	return src.Close()
}
