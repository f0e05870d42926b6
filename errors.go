package accounts

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidCredentials = "auth_invalid_credentials"
	TextCodeEmailTaken         = "auth_email_taken"
	TextCodeNotAuthenticated   = "auth_not_authenticated"
	TextCodeUserNotFound       = "auth_user_not_found"
	TextCodeTokenExpired       = "auth_token_expired"
	TextCodeTokenMalformed     = "auth_token_malformed"
	TextCodeTooManyAttempts    = "auth_too_many_attempts"
)

// ErrInvalidCredentials is returned for an unknown email or a wrong password.
// The message is deliberately identical for both so callers cannot enumerate
// registered addresses.
var ErrInvalidCredentials = errors.New("invalid email or password", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrEmailTaken is returned when an account with the email already exists.
var ErrEmailTaken = errors.New("email already in use", errors.CategoryValidation).
	WithTextCode(TextCodeEmailTaken).
	WithCode(errors.CodeBadRequest)

// ErrNotAuthenticated is returned when a protected operation has no valid session.
var ErrNotAuthenticated = errors.New("not authenticated", errors.CategoryAuth).
	WithTextCode(TextCodeNotAuthenticated).
	WithCode(errors.CodeUnauthorized)

// ErrUserNotFound is returned when the account vanished between session
// resolution and the write.
var ErrUserNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeNotFound)

// ErrTokenExpired is returned for tokens past their expiry instant.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens that fail to decode or verify.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrTooManyLoginAttempts is returned when the cooldown window is exhausted.
var ErrTooManyLoginAttempts = errors.New("too many login attempts", errors.CategoryAuth).
	WithTextCode(TextCodeTooManyAttempts).
	WithCode(errors.CodeUnauthorized)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound)

// ErrMismatchedHashAndPassword password hash comparison failed
var ErrMismatchedHashAndPassword = errors.New("mismatched hash and password", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString bcrypt input must not be empty
var ErrNoEmptyString = errors.New("value must not be an empty string", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest)

// ErrUnableToFindSession is the error when our request has no cookie
var ErrUnableToFindSession = errors.New("unable to find session", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// ErrUnableToDecodeSession unable to decode JWT from session cookie
var ErrUnableToDecodeSession = errors.New("unable to decode session", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// ErrUnableToParseData parse error
var ErrUnableToParseData = errors.New("unable to parse data", errors.CategoryBadInput).
	WithCode(errors.CodeBadRequest)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsUniqueConstraintError reports whether err is a unique index violation
// surfaced by the store. Matches the sqlite and postgres driver signatures.
func IsUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
