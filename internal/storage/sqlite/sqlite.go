// Package sqlite persists deconfliction check runs and their conflicts.
// The core engine defines no persisted layout; this package owns the
// schema and is strictly a consumer of engine output.
package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/Megha-ldce/uav-deconfliction/internal/timeutil"
)

// clock is swapped for a MockClock in tests to keep retry backoff fast.
var clock timeutil.Clock = timeutil.RealClock{}

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB wraps the sql handle so stores can share one connection.
type DB struct {
	*sql.DB
}

// Open opens (or creates) the database at path, applies the connection
// pragmas, and migrates the schema to the latest version.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	wrapped := &DB{db}
	if err := wrapped.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return wrapped, nil
}

// migrateUp applies all pending embedded migrations. Returns nil when the
// schema is already at the latest version.
func (db *DB) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load embedded migrations: %w", err)
	}
	drv, err := migratesqlite.WithInstance(db.DB, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to prepare migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", drv)
	if err != nil {
		return fmt.Errorf("failed to build migrator: %w", err)
	}
	// Note: m is not closed because that would close the underlying DB
	// connection shared with the stores.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// retryOnBusy retries a write a few times when SQLite reports the database
// as locked, which can happen under WAL with concurrent readers.
func retryOnBusy(fn func() error) error {
	const attempts = 5
	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil || !isBusy(err) {
			return err
		}
		clock.Sleep(time.Duration(i+1) * 10 * time.Millisecond)
	}
	return err
}

func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}
