package migration

import (
	"errors"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	ierr "github.com/sourcingbee/challan/internal/errors"
	"github.com/sourcingbee/challan/internal/postgres"
)

// Run applies all pending schema migrations against the configured
// postgres database. It is a no-op when no database is wired, so local
// file-backend deployments start without any schema step.
func Run(db *postgres.DB) error {
	if db == nil {
		return nil
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to open embedded migrations").
			Mark(ierr.ErrSystem)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create migration source").
			Mark(ierr.ErrSystem)
	}

	driver, err := pgmigrate.WithInstance(db.DB.DB, &pgmigrate.Config{})
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create migration driver").
			Mark(ierr.ErrDatabase)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create migrator").
			Mark(ierr.ErrDatabase)
	}

	// Close would also close the shared *sql.DB, so skip it.
	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return ierr.WithError(err).
			WithHint("Failed to apply migrations").
			Mark(ierr.ErrDatabase)
	}

	return nil
}
