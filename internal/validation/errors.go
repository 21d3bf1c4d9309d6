package validation

import (
	"errors"
	"fmt"
)

// Error categories. Concrete errors wrap one of these so callers can
// branch with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrBusinessRule = errors.New("business rule violated")
	ErrNotFound     = errors.New("record not found")
	ErrDuplicate    = errors.New("duplicate record")
)

// ValidationError reports the first rejected field of an input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NotFound builds an ErrNotFound for a missing entity
func NotFound(entity string, key interface{}) error {
	return fmt.Errorf("%s %v: %w", entity, key, ErrNotFound)
}

// IsValidation reports whether err carries a validation failure
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
