package field

import (
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"unicode/utf8"
)

// Validator checks a string value.
//
// It returns nil when the value is acceptable, or *ValidationError otherwise.
type Validator interface {
	Validate(value string) error
}

type ValidatorFunc func(value string) error

func (f ValidatorFunc) Validate(value string) error {
	return f(value)
}

type regexpValidator struct {
	pattern *regexp.Regexp
	key     string
	message string
}

// NewRegexpValidator creates a Validator accepting values matching the pattern.
func NewRegexpValidator(pattern *regexp.Regexp, key string, message string) Validator {
	return regexpValidator{pattern: pattern, key: key, message: message}
}

func (rv regexpValidator) Validate(value string) error {
	if rv.pattern.MatchString(value) {
		return nil
	}
	return NewValidationError(rv.key, rv.message)
}

// SlugValidator accepts latin letters, digits, dashes and underscores.
var SlugValidator = NewRegexpValidator(
	regexp.MustCompile(`^[A-Za-z0-9_-]+$`),
	"validation.slug",
	"Only latin letters, digits, dashes and underscores are allowed.",
)

// LoginValidator accepts user logins.
var LoginValidator = NewRegexpValidator(
	regexp.MustCompile(`^[A-Za-z0-9@.+_-]+$`),
	"validation.login",
	"Only latin letters, digits and @/./+/-/_ are allowed.",
)

// EmailValidator accepts a bare e-mail address.
var EmailValidator Validator = ValidatorFunc(func(value string) error {
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		return NewValidationError("validation.email", "Enter a valid e-mail address.")
	}
	return nil
})

// URLValidator accepts absolute http(s) URLs.
var URLValidator Validator = ValidatorFunc(func(value string) error {
	u, err := url.Parse(value)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return NewValidationError("validation.url", "Enter a valid URL.")
	}
	return nil
})

// LengthValidator accepts values whose length (in runes) is in [min, max].
//
// max <= 0 means unlimited.
func LengthValidator(min int, max int) Validator {
	return ValidatorFunc(func(value string) error {
		l := utf8.RuneCountInString(value)
		if l < min {
			return NewValidationError(
				"validation.min_length",
				fmt.Sprintf("Ensure this value has at least %d characters.", min),
			)
		}
		if 0 < max && max < l {
			return NewValidationError(
				"validation.max_length",
				fmt.Sprintf("Ensure this value has at most %d characters.", max),
			)
		}
		return nil
	})
}
