package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"

	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // pgx migrate driver
	_ "github.com/golang-migrate/migrate/v4/source/file"     // file source
)

// RunMigrations applies all pending up migrations from sourceURL
// (e.g. "file://database/migrations") against the given Postgres DSN.
// An already up-to-date schema is not an error.
func RunMigrations(sourceURL, dsn string) error {
	m, err := migrate.New(sourceURL, toMigrateDSN(dsn))
	if err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

// toMigrateDSN rewrites a postgres:// DSN to the pgx5:// scheme the
// migrate driver registers under.
func toMigrateDSN(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") {
		return "pgx5://" + strings.TrimPrefix(dsn, "postgres://")
	}
	return dsn
}
