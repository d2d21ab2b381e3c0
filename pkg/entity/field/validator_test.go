package field_test

import (
	"errors"
	"regexp"
	"testing"

	"github.com/opst/sciportal/pkg/entity/field"
)

func TestSlugValidator(t *testing.T) {
	theory := func(value string, ok bool) func(*testing.T) {
		return func(t *testing.T) {
			err := field.SlugValidator.Validate(value)
			if ok {
				if err != nil {
					t.Errorf("unexpected error: %+v", err)
				}
				return
			}
			ve, isVe := field.AsValidationError(err)
			if !isVe {
				t.Fatalf("error is not ValidationError: %+v", err)
			}
			if ve.Message == "" {
				t.Errorf("message is empty")
			}
			if !errors.Is(err, field.ErrValidation) {
				t.Errorf("error is not ErrValidation")
			}
		}
	}

	t.Run("it accepts letters, digits, dashes and underscores", theory("abc-123_X", true))
	t.Run("it rejects spaces and punctuations", theory("abc 123!", false))
	t.Run("it rejects empty", theory("", false))
	t.Run("it rejects non-latin letters", theory("проект", false))
}

func TestLengthValidator(t *testing.T) {
	testee := field.LengthValidator(2, 4)

	for name, testcase := range map[string]struct {
		value string
		ok    bool
	}{
		"too short":             {value: "a", ok: false},
		"shortest":              {value: "ab", ok: true},
		"longest":               {value: "abcd", ok: true},
		"too long":              {value: "abcde", ok: false},
		"counted in characters": {value: "ёжик", ok: true},
	} {
		t.Run(name, func(t *testing.T) {
			err := testee.Validate(testcase.value)
			if (err == nil) != testcase.ok {
				t.Errorf("unexpected result for %q: %v", testcase.value, err)
			}
		})
	}
}

func TestEmailAndURLValidator(t *testing.T) {
	if err := field.EmailValidator.Validate("someone@example.com"); err != nil {
		t.Errorf("valid address is rejected: %v", err)
	}
	if err := field.EmailValidator.Validate("Someone <someone@example.com>"); err == nil {
		t.Errorf("address with display name is accepted")
	}
	if err := field.URLValidator.Validate("https://example.com/a.tif"); err != nil {
		t.Errorf("valid url is rejected: %v", err)
	}
	if err := field.URLValidator.Validate("/relative/path"); err == nil {
		t.Errorf("relative url is accepted")
	}
}

func TestValidationError(t *testing.T) {
	base := field.NewRegexpValidator(regexp.MustCompile("^x$"), "validation.x", "only x")

	err := base.Validate("y")
	ve, ok := field.AsValidationError(err)
	if !ok {
		t.Fatalf("not a validation error: %v", err)
	}

	bound := ve.WithField("name")
	if bound.Field != "name" || ve.Field != "" {
		t.Errorf("WithField should not modify the original: %+v, %+v", ve, bound)
	}

	translated := bound.Translate(func(key string, fallback string) string {
		if key == "validation.x" {
			return "nur x"
		}
		return fallback
	})
	if translated != "nur x" {
		t.Errorf("unexpected translation: %s", translated)
	}
	if bound.Translate(nil) != "only x" {
		t.Errorf("nil translator should give the message as is")
	}
}
