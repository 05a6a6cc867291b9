package entity

import (
	"errors"
	"fmt"
)

// ErrInvalidInput matches every *ValidationError via errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// ValidationError reports the first field of an Article or Source that
// failed validation. Invalid articles are dropped before storage; invalid
// sources abort registry loading.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}
