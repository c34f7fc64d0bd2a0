package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrations embed.FS

// Migrate applies every pending schema migration for the repository's driver.
func (r *SQLRepository) Migrate() error {
	src, err := iofs.New(migrations, "migrations/"+r.driver)
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}

	var drv migratedb.Driver
	switch r.driver {
	case DriverPostgres:
		drv, err = migratepg.WithInstance(r.conn, &migratepg.Config{})
	case DriverSQLite:
		drv, err = migratesqlite.WithInstance(r.conn, &migratesqlite.Config{})
	default:
		err = fmt.Errorf("unsupported database driver %q", r.driver)
	}
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	// the migrate instance is not closed: that would close r.conn with it
	m, err := migrate.NewWithInstance("iofs", src, r.driver, drv)
	if err != nil {
		return fmt.Errorf("new migrate: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}

	return nil
}
