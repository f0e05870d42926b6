package accounts

// TokenValidator checks a raw session token and yields its claims. The
// locally minting TokenService satisfies it; JWKS-backed validators cover
// externally issued tokens.
type TokenValidator interface {
	Validate(raw string) (AuthClaims, error)
}

// TokenValidatorFunc adapts a plain function into a TokenValidator.
type TokenValidatorFunc func(raw string) (AuthClaims, error)

// Validate satisfies the TokenValidator interface.
func (f TokenValidatorFunc) Validate(raw string) (AuthClaims, error) {
	if f == nil {
		return nil, ErrUnableToDecodeSession
	}
	return f(raw)
}

// MultiTokenValidator accepts a token when any validator in its chain does.
// A malformed verdict means "not one of mine" and moves on to the next
// validator; any other failure, expired included, is final.
type MultiTokenValidator struct {
	chain []TokenValidator
}

// NewMultiTokenValidator drops nil entries and composes the rest in order.
func NewMultiTokenValidator(validators ...TokenValidator) *MultiTokenValidator {
	chain := make([]TokenValidator, 0, len(validators))
	for _, v := range validators {
		if v == nil {
			continue
		}
		chain = append(chain, v)
	}
	return &MultiTokenValidator{chain: chain}
}

// Validate satisfies the TokenValidator interface.
func (m *MultiTokenValidator) Validate(raw string) (AuthClaims, error) {
	var malformed error
	for _, v := range m.chain {
		claims, err := v.Validate(raw)
		if err == nil {
			return claims, nil
		}
		if !IsMalformedError(err) {
			return nil, err
		}
		malformed = err
	}

	if malformed == nil {
		malformed = ErrTokenMalformed
	}
	return nil, malformed
}
