package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UpdateProfileMessage is a partial update: nil fields are left untouched,
// not nulled.
type UpdateProfileMessage struct {
	UserID uuid.UUID `json:"user_id"`
	Name   *string   `json:"name,omitempty"`
	Email  *string   `json:"email,omitempty"`

	OnResponse func(user *User) `json:"-"`
}

func (e UpdateProfileMessage) Type() string { return "user.update_profile" }

type UpdateProfileHandler struct {
	repo RepositoryManager
}

func NewUpdateProfileHandler(repo RepositoryManager) *UpdateProfileHandler {
	return &UpdateProfileHandler{repo: repo}
}

func (h *UpdateProfileHandler) Execute(ctx context.Context, event UpdateProfileMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during profile update",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *UpdateProfileHandler) execute(ctx context.Context, event UpdateProfileMessage) error {
	if event.UserID == uuid.Nil {
		return ErrNotAuthenticated
	}

	var updated *User
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if event.Email != nil {
			// Uniqueness excludes the acting user's own id so re-submitting an
			// unchanged email is not a conflict.
			taken, err := h.repo.Users().EmailTakenTx(ctx, tx, *event.Email, event.UserID)
			if err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email availability")
			}
			if taken {
				return ErrEmailTaken
			}
		}

		user, err := h.repo.Users().GetByIdentifierTx(ctx, tx, event.UserID.String())
		if err != nil {
			if repository.IsRecordNotFound(err) {
				// The record vanished between session resolution and the write.
				return ErrUserNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user for update")
		}

		if event.Name != nil {
			user.Name = *event.Name
		}
		if event.Email != nil {
			user.Email = NormalizeEmail(*event.Email)
		}
		now := time.Now()
		user.UpdatedAt = &now

		if updated, err = h.repo.Users().UpdateTx(ctx, tx, user, repository.UpdateByID(user.ID.String())); err != nil {
			if IsUniqueConstraintError(err) {
				// Lost the race to another account claiming this email.
				clone := ErrEmailTaken.Clone()
				clone.Source = err
				return clone
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist profile update")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "profile update transaction failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(updated)
	}

	return nil
}
