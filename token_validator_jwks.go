package accounts

import (
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// JWKSValidatorConfig configures a validator for externally issued tokens,
// e.g. an upstream SSO gateway that signs sessions with rotating RSA keys.
type JWKSValidatorConfig struct {
	JWKSetURLs []string
	Issuer     string
	Audience   []string
	Logger     Logger
}

// JWKSTokenValidator validates tokens against one or more JWK sets. Keys are
// fetched and refreshed in the background; validation itself stays a pure
// function of the token and the cached key material.
type JWKSTokenValidator struct {
	keyFunc  jwt.Keyfunc
	issuer   string
	audience []string
	logger   Logger
}

// NewJWKSTokenValidator builds a TokenValidator backed by remote JWK sets.
func NewJWKSTokenValidator(cfg JWKSValidatorConfig) (*JWKSTokenValidator, error) {
	if len(cfg.JWKSetURLs) == 0 {
		return nil, errors.New("at least one JWK set URL is required", errors.CategoryBadInput)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = defLogger{}
	}

	opts := keyfunc.Options{
		RefreshErrorHandler: func(err error) {
			logger.Warn("failed to do a background refresh of JWK set: %s", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	}

	m := make(map[string]keyfunc.Options, len(cfg.JWKSetURLs))
	for _, url := range cfg.JWKSetURLs {
		m[url] = opts
	}

	multi, err := keyfunc.GetMultiple(m, keyfunc.MultipleOptions{
		KeySelector: keyfunc.KeySelectorFirst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get JWK set URLs: %w", err)
	}

	return &JWKSTokenValidator{
		keyFunc:  multi.Keyfunc,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		logger:   logger,
	}, nil
}

// Validate implements TokenValidator.
func (v *JWKSTokenValidator) Validate(tokenString string) (AuthClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if v.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(v.issuer))
	}
	if len(v.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(v.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, v.keyFunc, parserOptions...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).WithTextCode(ErrTokenMalformed.TextCode)
	}

	if claims, ok := token.Claims.(*SessionClaims); ok && token.Valid {
		return claims, nil
	}

	v.logger.Error("JWKS validator could not decode or validate claims")
	return nil, ErrUnableToDecodeSession
}
