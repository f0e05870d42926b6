package accounts_test

import (
	"testing"
	"time"

	accounts "github.com/forgehq/go-accounts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionObjectGetters(t *testing.T) {
	id := uuid.New()
	issued := time.Now().Add(-time.Minute)
	expires := time.Now().Add(time.Hour)

	session := &accounts.SessionObject{
		UserID:         id.String(),
		Email:          "user@example.com",
		Issuer:         "accounts-test",
		IssuedAt:       &issued,
		ExpirationDate: &expires,
	}

	assert.Equal(t, id.String(), session.GetUserID())
	assert.Equal(t, "user@example.com", session.GetEmail())
	assert.Equal(t, "accounts-test", session.GetIssuer())
	assert.Equal(t, &issued, session.GetIssuedAt())
	assert.Equal(t, &expires, session.GetExpiration())

	parsed, err := session.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestSessionObjectGetUserUUIDInvalid(t *testing.T) {
	session := &accounts.SessionObject{UserID: "not-a-uuid"}

	_, err := session.GetUserUUID()
	assert.Error(t, err)
	assert.False(t, accounts.HasUserUUID(session))
}

func TestHasUserUUID(t *testing.T) {
	assert.False(t, accounts.HasUserUUID(nil))

	session := &accounts.SessionObject{UserID: uuid.NewString()}
	assert.True(t, accounts.HasUserUUID(session))
}

func TestSessionFromTokenRoundTrip(t *testing.T) {
	user := newTestUser()
	cfg := newTestConfig()

	provider := new(MockIdentityProvider)
	auther := accounts.NewAuthenticator(provider, cfg)

	token, err := auther.TokenService().Generate(user)
	require.NoError(t, err)

	session, err := auther.SessionFromToken(token)
	require.NoError(t, err)

	assert.Equal(t, user.ID.String(), session.GetUserID())
	assert.Equal(t, user.Email, session.GetEmail())
	assert.Equal(t, cfg.GetIssuer(), session.GetIssuer())
	assert.True(t, accounts.HasUserUUID(session))

	require.NotNil(t, session.GetExpiration())
	assert.True(t, session.GetExpiration().After(time.Now()))
}
