package accounts_test

import (
	"testing"

	accounts "github.com/forgehq/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiTokenValidatorFallsThroughMalformed(t *testing.T) {
	user := newTestUser()
	svc := accounts.NewTokenService([]byte("secret"), 24, "accounts-test", nil, nil)

	token, err := svc.Generate(user)
	require.NoError(t, err)

	// The first validator uses a different key so it rejects the token as
	// malformed; the multi validator should fall through to the second.
	wrongKey := accounts.NewTokenService([]byte("other-key"), 24, "accounts-test", nil, nil)
	multi := accounts.NewMultiTokenValidator(wrongKey, svc)

	claims, err := multi.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID())
}

func TestMultiTokenValidatorStopsOnExpired(t *testing.T) {
	called := false
	expired := accounts.TokenValidatorFunc(func(string) (accounts.AuthClaims, error) {
		return nil, accounts.ErrTokenExpired
	})
	next := accounts.TokenValidatorFunc(func(string) (accounts.AuthClaims, error) {
		called = true
		return nil, nil
	})

	multi := accounts.NewMultiTokenValidator(expired, next)

	_, err := multi.Validate("whatever")
	require.Error(t, err)
	assert.ErrorIs(t, err, accounts.ErrTokenExpired)
	assert.False(t, called, "expired tokens should not fall through")
}

func TestMultiTokenValidatorAllMalformed(t *testing.T) {
	reject := accounts.TokenValidatorFunc(func(string) (accounts.AuthClaims, error) {
		return nil, accounts.ErrTokenMalformed
	})

	multi := accounts.NewMultiTokenValidator(reject, reject)

	_, err := multi.Validate("whatever")
	require.Error(t, err)
	assert.True(t, accounts.IsMalformedError(err))
}

func TestMultiTokenValidatorEmpty(t *testing.T) {
	multi := accounts.NewMultiTokenValidator()

	_, err := multi.Validate("whatever")
	require.Error(t, err)
	assert.True(t, accounts.IsMalformedError(err))
}

func TestMultiTokenValidatorSkipsNil(t *testing.T) {
	user := newTestUser()
	svc := accounts.NewTokenService([]byte("secret"), 24, "accounts-test", nil, nil)

	token, err := svc.Generate(user)
	require.NoError(t, err)

	multi := accounts.NewMultiTokenValidator(nil, svc)

	claims, err := multi.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, user.Email, claims.Email())
}
