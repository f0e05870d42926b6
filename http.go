package accounts

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// DefaultCookieName is the transport-level credential slot holding the
// session token.
const DefaultCookieName = "auth-token"

// CookieAuthenticator binds the Authenticator to the HTTP transport: it
// issues the session cookie on login/signup and clears it on logout. The
// token travels only in the HTTP-only cookie, never in a response body.
type CookieAuthenticator struct {
	auth           Authenticator
	cfg            Config
	cookieName     string
	cookieDuration time.Duration
	Logger         Logger
}

func NewCookieAuthenticator(auther Authenticator, cfg Config) (*CookieAuthenticator, error) {
	cookieDuration := 24 * time.Hour
	if cfg.GetTokenExpiration() > 0 {
		cookieDuration = time.Duration(cfg.GetTokenExpiration()) * time.Hour
	}

	cookieName := cfg.GetCookieName()
	if cookieName == "" {
		cookieName = DefaultCookieName
	}

	a := &CookieAuthenticator{
		cfg:            cfg,
		auth:           auther,
		cookieName:     cookieName,
		cookieDuration: cookieDuration,
		Logger:         defLogger{},
	}

	return a, nil
}

func (a CookieAuthenticator) GetCookieName() string {
	return a.cookieName
}

func (a CookieAuthenticator) GetCookieDuration() time.Duration {
	return a.cookieDuration
}

// Login verifies credentials and, on success, sets the session cookie.
func (a *CookieAuthenticator) Login(c *fiber.Ctx, email, password string) error {
	token, err := a.auth.Login(c.UserContext(), email, password)
	if err != nil {
		a.Logger.Debug("Login error: %s", err)
		return err
	}

	a.SetSessionToken(c, token)
	return nil
}

// SetSessionToken stores an already minted token in the session cookie.
func (a *CookieAuthenticator) SetSessionToken(c *fiber.Ctx, token string) {
	a.setCookieToken(c, token, a.cookieDuration)
}

// Logout clears the session cookie. It always succeeds locally.
func (a *CookieAuthenticator) Logout(c *fiber.Ctx) {
	a.cookieDel(c, a.cookieName)
}

// SessionToken extracts the raw token from the request cookie, "" if absent.
func (a *CookieAuthenticator) SessionToken(c *fiber.Ctx) string {
	return c.Cookies(a.cookieName)
}

// CurrentUser resolves the request's session cookie to a live user record,
// nil for anonymous requests or any resolution failure.
func (a *CookieAuthenticator) CurrentUser(c *fiber.Ctx) *User {
	return a.auth.CurrentUser(c.UserContext(), a.SessionToken(c))
}

func (a *CookieAuthenticator) setCookieToken(c *fiber.Ctx, val string, duration time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     a.cookieName,
		Value:    val,
		Expires:  time.Now().Add(duration),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
		Path:     "/",
	})
}

func (a *CookieAuthenticator) cookieDel(c *fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
		Path:     "/",
	})
}
