// Package db owns the per-device SQLite store. Repositories under
// internal/db/repositories receive a *DB and never open their own handle.
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/MyelinBots/wellness-sync/internal/apperr"
	"github.com/ncruces/go-sqlite3"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/ncruces/go-sqlite3/gormlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB wraps the process-wide gorm handle.
type DB struct {
	DB   *gorm.DB
	path string
}

// Open opens (creating if needed) the SQLite file at path and applies all
// pending migrations.
func Open(ctx context.Context, path string, log *slog.Logger) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, apperr.Local(fmt.Errorf("create database directory: %w", err))
		}
	}

	dsn := "file:" + path +
		"?_pragma=busy_timeout(5000)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=foreign_keys(1)"

	gdb, err := gorm.Open(gormlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, Classify(fmt.Errorf("open database: %w", err))
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, apperr.Local(err)
	}
	sqlDB.SetMaxOpenConns(4)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, Classify(fmt.Errorf("ping database: %w", err))
	}

	d := &DB{DB: gdb, path: path}
	if err := d.Migrate(log); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}

func (d *DB) Path() string { return d.path }

// Close checkpoints the WAL and releases the handle.
func (d *DB) Close() error {
	if d == nil || d.DB == nil {
		return nil
	}
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	_, _ = sqlDB.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	d.DB = nil
	return nil
}

// Transaction runs fn in a single local transaction.
func (d *DB) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return d.DB.WithContext(ctx).Transaction(fn)
}

// Classify maps driver errors onto apperr kinds. Corruption is kept distinct
// so callers can reset the store instead of retrying.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if apperr.IsKinded(err) {
		return err
	}
	if errors.Is(err, sqlite3.CORRUPT) || errors.Is(err, sqlite3.NOTADB) {
		return apperr.Corrupt(err)
	}
	return apperr.Local(err)
}
