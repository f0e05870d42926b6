package accounts

import (
	"context"
	"io/fs"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

// RunMigrations applies the embedded SQL migrations against the given db.
// It is safe to call on every boot.
func RunMigrations(ctx context.Context, db *bun.DB) error {
	sub, err := fs.Sub(GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "resolve migrations directory")
	}

	migrations := migrate.NewMigrations()
	if err := migrations.Discover(sub); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "discover migrations")
	}

	migrator := migrate.NewMigrator(db, migrations)
	if err := migrator.Init(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "initialize migrations table")
	}

	if _, err := migrator.Migrate(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "apply migrations")
	}

	return nil
}
