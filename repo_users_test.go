package accounts_test

import (
	"context"
	"testing"

	accounts "github.com/forgehq/go-accounts"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, users accounts.Users, email string) *accounts.User {
	t.Helper()

	record, err := users.Register(context.Background(), &accounts.User{
		Email:        email,
		Name:         "Seeded User",
		PasswordHash: "x",
	})
	require.NoError(t, err)
	return record
}

func TestRegisterAssignsIDAndNormalizesEmail(t *testing.T) {
	repo := newTestRepo(t)

	user, err := repo.Users().Register(context.Background(), &accounts.User{
		Email:        "  New.User@Example.COM ",
		PasswordHash: "x",
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "new.user@example.com", user.Email)
}

func TestRegisterKeepsProvidedID(t *testing.T) {
	repo := newTestRepo(t)
	id := uuid.New()

	user, err := repo.Users().Register(context.Background(), &accounts.User{
		ID:           id,
		Email:        "user@example.com",
		PasswordHash: "x",
	})
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
}

func TestRegisterDuplicateEmailFails(t *testing.T) {
	repo := newTestRepo(t)
	seedUser(t, repo.Users(), "user@example.com")

	_, err := repo.Users().Register(context.Background(), &accounts.User{
		Email:        "USER@example.com",
		PasswordHash: "x",
	})
	require.Error(t, err, "unique index on email should reject the duplicate")
	assert.True(t, accounts.IsUniqueConstraintError(err))
}

func TestGetByEmailNormalizes(t *testing.T) {
	repo := newTestRepo(t)
	seeded := seedUser(t, repo.Users(), "user@example.com")

	found, err := repo.Users().GetByEmail(context.Background(), " User@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, found.ID)
}

func TestGetByEmailNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Users().GetByEmail(context.Background(), "nobody@example.com")
	require.Error(t, err)
	assert.True(t, repository.IsRecordNotFound(err))
}

func TestGetByIdentifier(t *testing.T) {
	repo := newTestRepo(t)
	seeded := seedUser(t, repo.Users(), "user@example.com")

	tests := []struct {
		name       string
		identifier string
	}{
		{"By id", seeded.ID.String()},
		{"By email", "user@example.com"},
		{"By email mixed case", "USER@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := repo.Users().GetByIdentifier(context.Background(), tt.identifier)
			require.NoError(t, err)
			assert.Equal(t, seeded.ID, found.ID)
		})
	}
}

func TestGetByIdentifierNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Users().GetByIdentifier(context.Background(), uuid.NewString())
	require.Error(t, err)
	assert.True(t, repository.IsRecordNotFound(err))
}

func TestEmailTaken(t *testing.T) {
	repo := newTestRepo(t)
	seeded := seedUser(t, repo.Users(), "user@example.com")

	taken, err := repo.Users().EmailTaken(context.Background(), "USER@example.com", uuid.Nil)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.Users().EmailTaken(context.Background(), "other@example.com", uuid.Nil)
	require.NoError(t, err)
	assert.False(t, taken)

	// An account's own email is not "taken" from its own point of view.
	taken, err = repo.Users().EmailTaken(context.Background(), "user@example.com", seeded.ID)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestTrackAttemptedLogin(t *testing.T) {
	repo := newTestRepo(t)
	seeded := seedUser(t, repo.Users(), "user@example.com")

	require.NoError(t, repo.Users().TrackAttemptedLogin(context.Background(), seeded))

	found, err := repo.Users().GetByIdentifier(context.Background(), seeded.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 1, found.LoginAttempts)
	assert.NotNil(t, found.LoginAttemptAt)
}

func TestTrackSucccessfulLoginResetsCounters(t *testing.T) {
	repo := newTestRepo(t)
	seeded := seedUser(t, repo.Users(), "user@example.com")

	require.NoError(t, repo.Users().TrackAttemptedLogin(context.Background(), seeded))
	require.NoError(t, repo.Users().TrackSucccessfulLogin(context.Background(), seeded))

	found, err := repo.Users().GetByIdentifier(context.Background(), seeded.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 0, found.LoginAttempts)
	assert.Nil(t, found.LoginAttemptAt)
	assert.NotNil(t, found.LoggedInAt)
}

func TestRepositoryManagerValidate(t *testing.T) {
	repo := newTestRepo(t)
	assert.NoError(t, repo.Validate())
}
