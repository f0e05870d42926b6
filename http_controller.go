package accounts

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
)

// AuthControllerRoutes holds the paths the controller mounts.
type AuthControllerRoutes struct {
	Session       string
	Signup        string
	Login         string
	Logout        string
	UpdateProfile string
}

// AuthController exposes the session auth flow as a JSON API.
type AuthController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Auth         Authenticator
	Auther       *CookieAuthenticator
	Tokens       TokenService
	Routes       *AuthControllerRoutes
	ActivitySink ActivitySink

	// UseHashid derives deterministic user ids from the signup email.
	UseHashid bool
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Session:       "/auth/session",
			Signup:        "/auth/signup",
			Login:         "/auth/login",
			Logout:        "/auth/logout",
			UpdateProfile: "/auth/update-profile",
		},
		ActivitySink: noopActivitySink{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auth == nil || c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	if c.Tokens == nil {
		panic("Missing TokenService in auth controller...")
	}

	return c
}

func WithControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithControllerAuth(auth Authenticator, auther *CookieAuthenticator, tokens TokenService) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auth = auth
		c.Auther = auther
		c.Tokens = tokens
		return c
	}
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerActivitySink(sink ActivitySink) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.ActivitySink = normalizeActivitySink(sink)
		return c
	}
}

// RegisterAuthRoutes mounts the auth flow on the app.
func RegisterAuthRoutes(app *fiber.App, opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(opts...)

	app.Get(controller.Routes.Session, controller.Session)
	app.Post(controller.Routes.Signup, controller.Signup)
	app.Post(controller.Routes.Login, controller.Login)
	app.Post(controller.Routes.Logout, controller.Logout)
	app.Put(controller.Routes.UpdateProfile, controller.UpdateProfile)

	return controller
}

// Session reports the current identity. It never fails: any resolution
// problem collapses to an anonymous {user: null} with a 200.
func (a *AuthController) Session(c *fiber.Ctx) error {
	user := a.Auther.CurrentUser(c)
	if user == nil {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"user": nil})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"user": user.Public()})
}

// SignupRequest payload
type SignupRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
	Name     string `form:"name" json:"name"`
}

// Validate will run validation rules
func (r SignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, emailRules(true)...),
		validation.Field(&r.Password, passwordRules()...),
		validation.Field(&r.Name, validation.Length(0, 200)),
	)
}

func (a *AuthController) Signup(c *fiber.Ctx) error {
	payload := new(SignupRequest)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Debug("signup parse payload: %s", err)
		return failJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Debug("signup validate payload: %s", err)
		return failJSON(c, fiber.StatusBadRequest, validationMessage(err))
	}

	var user *User
	msg := SignupUserMessage{
		Email:     payload.Email,
		Password:  payload.Password,
		Name:      payload.Name,
		UseHashid: a.UseHashid,
		OnResponse: func(u *User) {
			user = u
		},
	}

	signup := NewSignupUserHandler(a.Repo)
	if err := signup.Execute(c.UserContext(), msg); err != nil {
		a.Logger.Info("signup rejected: %s", err)
		return a.errorJSON(c, err)
	}

	token, err := a.Tokens.Generate(user)
	if err != nil {
		a.Logger.Error("signup token generation: %s", err)
		return failJSON(c, fiber.StatusInternalServerError, "Failed to create account")
	}

	a.Auther.SetSessionToken(c, token)
	a.emitEvent(c, ActivityEventSignup, user)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"user":    user.Public(),
	})
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) Login(c *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Debug("login parse payload: %s", err)
		return failJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if err := payload.Validate(); err != nil {
		// Missing fields get the same uninformative answer as bad
		// credentials; the field list is not worth an enumeration oracle.
		return failJSON(c, fiber.StatusUnauthorized, ErrInvalidCredentials.Message)
	}

	if err := a.Auther.Login(c, payload.Email, payload.Password); err != nil {
		return a.errorJSON(c, err)
	}

	user, err := a.Repo.Users().GetByEmail(c.UserContext(), payload.Email)
	if err != nil {
		a.Logger.Error("login user lookup after verify: %s", err)
		return failJSON(c, fiber.StatusInternalServerError, "Login failed")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"user":    user.Public(),
	})
}

// Logout clears the session cookie. It succeeds even without a session so
// the client can always transition to anonymous.
func (a *AuthController) Logout(c *fiber.Ctx) error {
	user := a.Auther.CurrentUser(c)
	a.Auther.Logout(c)
	a.emitEvent(c, ActivityEventLogout, user)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}

// UpdateProfileRequest payload. Pointer fields distinguish "absent" from
// "present but empty": absent fields are left untouched.
type UpdateProfileRequest struct {
	Name  *string `form:"name" json:"name"`
	Email *string `form:"email" json:"email"`
}

// Validate will run validation rules
func (r UpdateProfileRequest) Validate() error {
	if r.Email != nil && !IsValidEmail(*r.Email) {
		return validation.Errors{
			"email": errors.New("invalid email format", errors.CategoryValidation),
		}
	}
	return nil
}

func (a *AuthController) UpdateProfile(c *fiber.Ctx) error {
	token := a.Auther.SessionToken(c)
	if token == "" {
		return failJSON(c, fiber.StatusUnauthorized, ErrNotAuthenticated.Message)
	}

	session, err := a.Auth.SessionFromToken(token)
	if err != nil {
		return failJSON(c, fiber.StatusUnauthorized, ErrNotAuthenticated.Message)
	}

	uid, err := session.GetUserUUID()
	if err != nil {
		return failJSON(c, fiber.StatusUnauthorized, ErrNotAuthenticated.Message)
	}

	payload := new(UpdateProfileRequest)
	if err := c.BodyParser(payload); err != nil {
		a.Logger.Debug("update profile parse payload: %s", err)
		return failJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if err := payload.Validate(); err != nil {
		return failJSON(c, fiber.StatusBadRequest, "Invalid email format")
	}

	var user *User
	msg := UpdateProfileMessage{
		UserID: uid,
		Name:   payload.Name,
		Email:  payload.Email,
		OnResponse: func(u *User) {
			user = u
		},
	}

	update := NewUpdateProfileHandler(a.Repo)
	if err := update.Execute(c.UserContext(), msg); err != nil {
		a.Logger.Info("update profile rejected for user %s: %s", uid.String(), err)
		return a.errorJSON(c, err)
	}

	a.emitEvent(c, ActivityEventProfileUpdated, user)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"user":    user.Public(),
	})
}

func (a *AuthController) emitEvent(c *fiber.Ctx, eventType ActivityEventType, user *User) {
	sink := normalizeActivitySink(a.ActivitySink)
	event := ActivityEvent{
		EventType:  eventType,
		Actor:      actorFromUser(user),
		OccurredAt: time.Now(),
	}
	if user != nil {
		event.UserID = user.ID.String()
	}

	if err := sink.Record(c.UserContext(), event); err != nil {
		a.Logger.Warn("activity sink record error: %v", err)
	}
}

/// errorJSON converts a rich error to the {success:false, error} body with
// its mapped status. Internal faults and unknown errors become opaque 500s.
func (a *AuthController) errorJSON(c *fiber.Ctx, err error) error {
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		status := richErr.Code
		if status == 0 {
			status = fiber.StatusInternalServerError
		}
		if richErr.Category == errors.CategoryValidation && status >= fiber.StatusInternalServerError {
			status = fiber.StatusBadRequest
		}
		if status >= fiber.StatusInternalServerError {
			a.Logger.Error("internal controller error: %s", richErr)
			return failJSON(c, status, "An unexpected error occurred")
		}
		return failJSON(c, status, richErr.Message)
	}

	a.Logger.Error("unexpected controller error: %s", err)
	return failJSON(c, fiber.StatusInternalServerError, "An unexpected error occurred")
}

func failJSON(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

// validationMessage flattens an ozzo validation error into the single
// message string the clients display.
func validationMessage(err error) string {
	if err == nil {
		return ""
	}

	if verrs, ok := err.(validation.Errors); ok {
		if emailErr, ok := verrs["email"]; ok && emailErr != nil {
			return "Invalid email format"
		}
		if pwdErr, ok := verrs["password"]; ok && pwdErr != nil {
			return "Password must be at least 6 characters"
		}
	}

	return err.Error()
}
