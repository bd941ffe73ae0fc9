package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrInvalidModel = errors.New("invalid model")
	ErrUnavailable  = errors.New("model not loaded")
	ErrInternal     = errors.New("internal error")
	ErrRateLimited  = errors.New("rate limit exceeded")
)

// KindError tags an error with the operation and API kind that produced it.
type KindError struct {
	Op   string
	Kind error
	Err  error
}

func (e *KindError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *KindError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// WrapKind attaches kind to err for operation op.
func WrapKind(op string, kind, err error) error {
	return &KindError{Op: op, Kind: kind, Err: err}
}

// NewKind returns a bare kind error for operation op.
func NewKind(op string, kind error) error {
	return &KindError{Op: op, Kind: kind}
}
