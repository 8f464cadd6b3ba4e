package validation

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const (
	minPasswordLen    = 8
	maxDisplayNameLen = 120
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Display names double as organisation names for charities and vendors.
var displayNameRe = regexp.MustCompile(`^[\p{L}\p{N}\s\-'&.,]+$`)

func IsValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// IsValidPassword wants at least minPasswordLen characters mixing a letter, a digit
// and a punctuation or symbol rune.
func IsValidPassword(password string) bool {
	if len(password) < minPasswordLen {
		return false
	}
	var letter, digit, special bool
	for _, r := range password {
		letter = letter || unicode.IsLetter(r)
		digit = digit || unicode.IsDigit(r)
		special = special || unicode.IsPunct(r) || unicode.IsSymbol(r)
	}
	return letter && digit && special
}

func IsValidDisplayName(name string) bool {
	name = strings.TrimSpace(name)
	return name != "" && len(name) <= maxDisplayNameLen && displayNameRe.MatchString(name)
}

// registerRules exposes the account rules as `password` and `display_name` tags.
func registerRules(v *validator.Validate) {
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return IsValidPassword(fl.Field().String())
	})
	_ = v.RegisterValidation("display_name", func(fl validator.FieldLevel) bool {
		return IsValidDisplayName(fl.Field().String())
	})
}
