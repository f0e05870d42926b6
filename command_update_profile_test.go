package accounts_test

import (
	"context"
	"testing"

	accounts "github.com/forgehq/go-accounts"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestUpdateProfileNameOnly(t *testing.T) {
	repo := newTestRepo(t)
	seeded := seedUser(t, repo.Users(), "user@example.com")

	var updated *accounts.User
	err := accounts.NewUpdateProfileHandler(repo).Execute(context.Background(), accounts.UpdateProfileMessage{
		UserID: seeded.ID,
		Name:   strPtr("Renamed"),
		OnResponse: func(u *accounts.User) {
			updated = u
		},
	})
	require.NoError(t, err)
	require.NotNil(t, updated)

	assert.Equal(t, "Renamed", updated.Name)
	// Absent fields are left untouched.
	assert.Equal(t, "user@example.com", updated.Email)
}

func TestUpdateProfileEmailChange(t *testing.T) {
	repo := newTestRepo(t)
	seeded := seedUser(t, repo.Users(), "user@example.com")

	var updated *accounts.User
	err := accounts.NewUpdateProfileHandler(repo).Execute(context.Background(), accounts.UpdateProfileMessage{
		UserID: seeded.ID,
		Email:  strPtr("Next@Example.COM"),
		OnResponse: func(u *accounts.User) {
			updated = u
		},
	})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "next@example.com", updated.Email)
	assert.Equal(t, "Seeded User", updated.Name)
}

func TestUpdateProfileOwnEmailIsNotAConflict(t *testing.T) {
	repo := newTestRepo(t)
	seeded := seedUser(t, repo.Users(), "user@example.com")

	err := accounts.NewUpdateProfileHandler(repo).Execute(context.Background(), accounts.UpdateProfileMessage{
		UserID: seeded.ID,
		Email:  strPtr("user@example.com"),
	})
	assert.NoError(t, err, "resubmitting an unchanged email should not conflict")
}

func TestUpdateProfileEmailTaken(t *testing.T) {
	repo := newTestRepo(t)
	seeded := seedUser(t, repo.Users(), "user@example.com")
	seedUser(t, repo.Users(), "other@example.com")

	err := accounts.NewUpdateProfileHandler(repo).Execute(context.Background(), accounts.UpdateProfileMessage{
		UserID: seeded.ID,
		Email:  strPtr("OTHER@example.com"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, accounts.ErrEmailTaken)
}

func TestUpdateProfileStoreFaultIsNotAConflict(t *testing.T) {
	db := newTestDB(t)
	repo := accounts.NewRepositoryManager(db)
	seeded := seedUser(t, repo.Users(), "user@example.com")

	// Refuse every write so the update fails for a reason unrelated to the
	// unique email index.
	_, err := db.ExecContext(context.Background(),
		`CREATE TRIGGER users_block_update BEFORE UPDATE ON users
		 BEGIN SELECT RAISE(ABORT, 'storage offline'); END`)
	require.NoError(t, err)

	err = accounts.NewUpdateProfileHandler(repo).Execute(context.Background(), accounts.UpdateProfileMessage{
		UserID: seeded.ID,
		Name:   strPtr("Renamed"),
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, accounts.ErrEmailTaken)

	var richErr *goerrors.Error
	require.ErrorAs(t, err, &richErr)
	assert.Equal(t, goerrors.CategoryInternal, richErr.Category)
}

func TestUpdateProfileUnknownUser(t *testing.T) {
	repo := newTestRepo(t)

	err := accounts.NewUpdateProfileHandler(repo).Execute(context.Background(), accounts.UpdateProfileMessage{
		UserID: uuid.New(),
		Name:   strPtr("Ghost"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, accounts.ErrUserNotFound)
}

func TestUpdateProfileWithoutUserID(t *testing.T) {
	repo := newTestRepo(t)

	err := accounts.NewUpdateProfileHandler(repo).Execute(context.Background(), accounts.UpdateProfileMessage{
		Name: strPtr("Anonymous"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, accounts.ErrNotAuthenticated)
}
