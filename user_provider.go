package accounts

import (
	"context"
	"sync"

	"github.com/goliatone/go-errors"
)

// unknownIdentityHash keeps the unknown-email path doing the same bcrypt work
// as a real comparison so response timing does not reveal whether an address
// is registered.
var unknownIdentityHash = sync.OnceValue(RandomPasswordHash)

// UserTracker is a store we can use to retrieve users
type UserTracker interface {
	GetByIdentifier(ctx context.Context, identifier string) (*User, error)
	TrackAttemptedLogin(ctx context.Context, user *User) error
	TrackSucccessfulLogin(ctx context.Context, user *User) error
}

// NewUserTracker adapts the Users repository to the UserTracker interface.
func NewUserTracker(users Users) UserTracker {
	return userTrackerAdapter{users: users}
}

type userTrackerAdapter struct {
	users Users
}

func (a userTrackerAdapter) GetByIdentifier(ctx context.Context, identifier string) (*User, error) {
	return a.users.GetByIdentifier(ctx, identifier)
}

func (a userTrackerAdapter) TrackAttemptedLogin(ctx context.Context, user *User) error {
	return a.users.TrackAttemptedLogin(ctx, user)
}

func (a userTrackerAdapter) TrackSucccessfulLogin(ctx context.Context, user *User) error {
	return a.users.TrackSucccessfulLogin(ctx, user)
}

// UserProvider handles credential verification against the user store
type UserProvider struct {
	store  UserTracker
	logger Logger
}

// MaxLoginAttempts is the maximum number of attempts a user gets
// in a period
var MaxLoginAttempts = 5

// CoolDownPeriod is the period in which we enforce a cool down
var CoolDownPeriod = "24h"

// NewUserProvider will create a new UserProvider
func NewUserProvider(store UserTracker) *UserProvider {
	return &UserProvider{
		store:  store,
		logger: defLogger{},
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	if l != nil {
		u.logger = l
	}
	return u
}

// VerifyIdentity will find the user by normalized email and compare the
// password. Unknown email and wrong password fail the same way so callers
// cannot tell registered addresses apart.
func (u UserProvider) VerifyIdentity(ctx context.Context, email, password string) (*User, error) {
	user, err := u.store.GetByIdentifier(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.IsNotFound(err) {
			_ = ComparePasswordAndHash(password, unknownIdentityHash())
			return nil, ErrMismatchedHashAndPassword
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if user == nil {
		_ = ComparePasswordAndHash(password, unknownIdentityHash())
		return nil, ErrMismatchedHashAndPassword
	}

	if user.LoginAttemptAt != nil {
		expired, err := IsOutsideThresholdPeriod(*user.LoginAttemptAt, CoolDownPeriod)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to calculate login attempt cooldown")
		}

		if expired {
			user.LoginAttempts = 0
		}
	}

	// if we have too many attempts in the given window, cool off!
	if user.LoginAttempts > MaxLoginAttempts {
		return nil, ErrTooManyLoginAttempts
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		// We have to increment the login_attempts counter and login_attempt_at
		if err2 := u.store.TrackAttemptedLogin(ctx, user); err2 != nil {
			return nil, errors.Wrap(err2, errors.CategoryInternal, "failed to track login attempt")
		}

		return nil, ErrMismatchedHashAndPassword
	}

	// reset the login_attempts counter and login_attempt_at
	if err := u.store.TrackSucccessfulLogin(ctx, user); err != nil {
		u.logger.Error("failed to track successful login: %s", err)
	}

	return user, nil
}

// FindIdentityByID resolves a user record from a session's user id.
func (u UserProvider) FindIdentityByID(ctx context.Context, id string) (*User, error) {
	user, err := u.store.GetByIdentifier(ctx, id)
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, ErrIdentityNotFound
	}

	return user, nil
}
