package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type SignupUserMessage struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Name      string `json:"name"`
	UseHashid bool   `json:"-"`

	OnResponse func(user *User) `json:"-"`
}

func (e SignupUserMessage) Type() string { return "user.signup" }

type SignupUserHandler struct {
	repo RepositoryManager
}

func NewSignupUserHandler(repo RepositoryManager) *SignupUserHandler {
	return &SignupUserHandler{repo: repo}
}

func (h *SignupUserHandler) Execute(ctx context.Context, event SignupUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during signup",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SignupUserHandler) execute(ctx context.Context, event SignupUserMessage) error {
	email := NormalizeEmail(event.Email)

	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// Fast-fail duplicate check for a friendlier error. The unique index
		// on users.email is the actual guarantee under concurrent signups.
		taken, err := h.repo.Users().EmailTakenTx(ctx, tx, email, uuid.Nil)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email availability")
		}
		if taken {
			return ErrEmailTaken
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.PasswordHash = hash
		user.Email = email
		user.Name = event.Name
		if event.UseHashid {
			if id, err := hashid.NewUUID(email); err == nil {
				user.ID = id
			}
		}

		if user, err = h.repo.Users().RegisterTx(ctx, tx, user); err != nil {
			if IsUniqueConstraintError(err) {
				// The unique index fired on a concurrent signup with this email.
				clone := ErrEmailTaken.Clone()
				clone.Source = err
				return clone
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "signup transaction failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(user)
	}

	return nil
}
