package accounts_test

import (
	"context"
	"database/sql"
	"testing"

	accounts "github.com/forgehq/go-accounts"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)

	// A single connection keeps every query on the same in-memory database.
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		db.Close()
	})

	require.NoError(t, accounts.RunMigrations(context.Background(), db))

	return db
}

func newTestRepo(t *testing.T) accounts.RepositoryManager {
	t.Helper()
	return accounts.NewRepositoryManager(newTestDB(t))
}
