package accounts

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
)

type Auther struct {
	provider       IdentityProvider
	signingKey     []byte
	logger         Logger
	tokenService   TokenService
	tokenValidator TokenValidator
	activitySink   ActivitySink
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	return &Auther{
		provider:     provider,
		signingKey:   []byte(opts.GetSigningKey()),
		logger:       defLogger{},
		tokenService: tokenService,
		activitySink: noopActivitySink{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// WithTokenValidator sets a custom token validator for externally issued tokens.
func (s *Auther) WithTokenValidator(validator TokenValidator) *Auther {
	s.tokenValidator = validator
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies the credentials and mints a session token. Unknown email and
// wrong password both come back as ErrInvalidCredentials.
func (s *Auther) Login(ctx context.Context, email, password string) (string, error) {
	identity, err := s.provider.VerifyIdentity(ctx, email, password)
	if err != nil {
		s.logger.Debug("Login verify identity error: %s", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"email": NormalizeEmail(email),
			"error": err.Error(),
		})

		if errors.Is(err, ErrMismatchedHashAndPassword) || errors.IsNotFound(err) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if identity == nil {
		s.logger.Error("Login identity is nil")
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"email": NormalizeEmail(email),
			"error": ErrIdentityNotFound.Error(),
		})
		return "", ErrInvalidCredentials
	}

	token, err := s.tokenService.Generate(identity)
	if err != nil {
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, actorFromUser(identity), identity.ID.String(), map[string]any{
			"email": identity.Email,
			"error": err.Error(),
		})
		return "", err
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, actorFromUser(identity), identity.ID.String(), map[string]any{
		"email": identity.Email,
	})

	return token, nil
}

// IdentityFromSession resolves the live user record behind a session.
func (s *Auther) IdentityFromSession(ctx context.Context, session Session) (*User, error) {
	identity, err := s.provider.FindIdentityByID(ctx, session.GetUserID())
	if err != nil {
		s.logger.Debug("IdentityFromSession find identity by id: %s", err)
		return nil, err
	}

	return identity, nil
}

func (s Auther) SessionFromToken(raw string) (Session, error) {
	validator := s.tokenValidator
	if validator == nil {
		validator = s.tokenService
	}

	claims, err := validator.Validate(raw)
	if err != nil {
		s.logger.Debug("SessionFromToken validation failed: %s", err)
		return nil, err
	}

	session, err := sessionFromAuthClaims(claims)
	if err != nil {
		s.logger.Error("SessionFromToken failed to create session from claims: %s", err)
		return nil, err
	}

	return session, nil
}

// CurrentUser resolves a raw session token to a live user record. It never
// returns an error: a missing, malformed, expired, or orphaned token all
// collapse to nil so an invalid session degrades to "logged out" instead of
// failing the request. The rejection is still logged and emitted to the
// activity sink so it stays distinguishable from real faults.
func (s *Auther) CurrentUser(ctx context.Context, token string) *User {
	if token == "" {
		s.logger.Debug("CurrentUser: %s", ErrUnableToFindSession)
		return nil
	}

	session, err := s.SessionFromToken(token)
	if err != nil {
		s.emitAuthEvent(ctx, ActivityEventSessionRejected, ActorRef{Type: "unknown"}, "", map[string]any{
			"error": err.Error(),
		})
		return nil
	}

	user, err := s.IdentityFromSession(ctx, session)
	if err != nil {
		s.emitAuthEvent(ctx, ActivityEventSessionRejected, ActorRef{Type: "unknown"}, session.GetUserID(), map[string]any{
			"error": err.Error(),
		})
		return nil
	}

	return user
}

func (s *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, userID string, metadata map[string]any) {
	sink := normalizeActivitySink(s.activitySink)
	event := ActivityEvent{
		EventType: eventType,
		Actor:     actor,
		UserID:    userID,
		Metadata:  metadata,
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}

func actorFromUser(user *User) ActorRef {
	if user == nil {
		return ActorRef{Type: "unknown"}
	}

	return ActorRef{
		ID:   user.ID.String(),
		Type: "user",
	}
}

var _ Authenticator = (*Auther)(nil)
