package accounts

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 6

// emailPattern is the address pattern the legacy clients were validated
// against. It is intentionally kept as-is for compatibility: it rejects some
// RFC-valid addresses (long TLDs behave oddly) and accepts some invalid ones.
// Do not "fix" it.
var emailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)

// IsValidEmail reports whether the address matches the legacy pattern.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func emailRules(required bool) []validation.Rule {
	rules := []validation.Rule{
		validation.Match(emailPattern).Error("invalid email format"),
	}
	if required {
		rules = append([]validation.Rule{validation.Required}, rules...)
	}
	return rules
}

func passwordRules() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.Length(MinPasswordLength, 100),
	}
}
