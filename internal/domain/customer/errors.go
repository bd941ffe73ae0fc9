package customer

import (
	"errors"
	"fmt"
)

// ErrInvalidRecord marks input rejected before it reaches the model.
var ErrInvalidRecord = errors.New("invalid customer record")

// FieldError names the offending column.
type FieldError struct {
	Field  string
	Reason string
}

func newFieldError(field, reason string) *FieldError {
	return &FieldError{Field: field, Reason: reason}
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is(err, ErrInvalidRecord) match.
func (e *FieldError) Unwrap() error { return ErrInvalidRecord }
