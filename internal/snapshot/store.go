// Package snapshot persists serialized graphs as named, GUID-tagged
// record sets in SQLite. It is an optional collaborator of the core:
// callers that bring their own persistence never touch it.
package snapshot

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/loomkit/loom/internal/log"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Store owns the snapshot database connection.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if necessary) the snapshot database at path and
// applies any pending schema migrations. Use ":memory:" for an ephemeral
// store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot store %s: %w", path, err)
	}
	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating snapshot store %s: %w", path, err)
	}

	log.Debug(log.CatSnapshot, "snapshot store opened", "path", path)
	return &Store{db: db, path: path}, nil
}

// DB exposes the underlying connection for the repository layer.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database file path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// runMigrations applies the embedded up migrations to an open connection.
func runMigrations(db *sql.DB) error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("loading embedded migrations: %w", err)
	}
	driver, err := newMigrationDriver(db)
	if err != nil {
		return fmt.Errorf("preparing migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("preparing migrations: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
