package validators

import (
	"errors"
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"
)

const (
	// MinPasswordLength is the shortest password accepted at registration.
	MinPasswordLength = 8
	// MaxPasswordBytes is the longest password bcrypt accepts.
	MaxPasswordBytes = 72
	// MaxNameLength bounds display names, counted in runes after trimming.
	MaxNameLength = 100
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var (
	instance *validator.Validate
	initOnce sync.Once
)

// Get returns the shared validator with the account tags registered:
// account_email, password_length and password_policy.
func Get() *validator.Validate {
	initOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("account_email", func(fl validator.FieldLevel) bool {
			return IsEmail(fl.Field().String())
		})
		_ = v.RegisterValidation("password_length", func(fl validator.FieldLevel) bool {
			return len(fl.Field().String()) <= MaxPasswordBytes
		})
		_ = v.RegisterValidation("password_policy", func(fl validator.FieldLevel) bool {
			return IsStrongPassword(fl.Field().String())
		})
		instance = v
	})
	return instance
}

// Struct validates s and returns validator.ValidationErrors on failure.
func Struct(s interface{}) error {
	return Get().Struct(s)
}

// FirstFailure returns the field and tag of the first failed rule in err.
func FirstFailure(err error) (field, tag string, ok bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "", "", false
	}
	return verrs[0].Field(), verrs[0].Tag(), true
}

// IsEmail applies the lenient local@domain.tld shape check.
func IsEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// IsStrongPassword requires MinPasswordLength characters, at most
// MaxPasswordBytes bytes, including a lower-case letter, an upper-case letter,
// a digit and a character that is none of those. Only ASCII letters and digits
// count as alphanumeric.
func IsStrongPassword(s string) bool {
	if len([]rune(s)) < MinPasswordLength || len(s) > MaxPasswordBytes {
		return false
	}
	var lower, upper, digit, symbol bool
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			symbol = true
		}
	}
	return lower && upper && digit && symbol
}
