package accounts

import (
	"os"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
)

// EnvConfig is an environment backed Config implementation.
type EnvConfig struct {
	SigningKey      string   `env:"AUTH_SIGNING_KEY"`
	SigningMethod   string   `env:"AUTH_SIGNING_METHOD" envDefault:"HS256"`
	ContextKey      string   `env:"AUTH_CONTEXT_KEY" envDefault:"user"`
	CookieName      string   `env:"AUTH_COOKIE_NAME" envDefault:"auth-token"`
	TokenExpiration int      `env:"AUTH_TOKEN_EXPIRATION" envDefault:"24"`
	Issuer          string   `env:"AUTH_ISSUER" envDefault:"accounts"`
	Audience        []string `env:"AUTH_AUDIENCE" envSeparator:","`

	DatabaseDSN string `env:"DATABASE_DSN" envDefault:"file::memory:?cache=shared"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":3000"`
	Debug       bool   `env:"DEBUG" envDefault:"false"`
}

// LoadConfig reads an optional .env file and the process environment.
func LoadConfig() (*EnvConfig, error) {
	if err := godotenv.Load(); err != nil {
		if _, ok := err.(*os.PathError); !ok {
			return nil, errors.Wrap(err, errors.CategoryOperation, "load .env file")
		}
	}

	cfg := &EnvConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "parse environment config")
	}

	return cfg, nil
}

// Validate will run validation rules
func (c EnvConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.SigningKey, validation.Required),
		validation.Field(&c.SigningMethod, validation.In("HS256")),
		validation.Field(&c.TokenExpiration, validation.Min(1)),
	)
}

func (c *EnvConfig) GetSigningKey() string    { return c.SigningKey }
func (c *EnvConfig) GetSigningMethod() string { return c.SigningMethod }
func (c *EnvConfig) GetContextKey() string    { return c.ContextKey }
func (c *EnvConfig) GetCookieName() string    { return c.CookieName }
func (c *EnvConfig) GetTokenExpiration() int  { return c.TokenExpiration }
func (c *EnvConfig) GetIssuer() string        { return c.Issuer }
func (c *EnvConfig) GetAudience() []string    { return c.Audience }

var _ Config = (*EnvConfig)(nil)
