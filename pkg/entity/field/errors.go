package field

import (
	"errors"
	"fmt"
)

// ErrValidation is the error which every *ValidationError is.
var ErrValidation = errors.New("validation failed")

// ValidationError tells a value is not acceptable for a field.
//
// Message is human readable English text.
// Key identifies the message for translation.
type ValidationError struct {
	// name of the field. Empty when the error is not bound to a field yet.
	Field string

	Key     string
	Message string
}

func NewValidationError(key string, message string) *ValidationError {
	return &ValidationError{Key: key, Message: message}
}

func (ve *ValidationError) Error() string {
	if ve.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation, ve.Message)
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation, ve.Field, ve.Message)
}

func (ve *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// WithField returns a copy of the error bound to the field.
func (ve *ValidationError) WithField(name string) *ValidationError {
	c := *ve
	c.Field = name
	return &c
}

// Translate returns the message in terms of translator.
//
// When translator does not know the key, it should return fallback.
func (ve *ValidationError) Translate(translator func(key string, fallback string) string) string {
	if translator == nil || ve.Key == "" {
		return ve.Message
	}
	return translator(ve.Key, ve.Message)
}

// AsValidationError extracts *ValidationError from err, if any.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
