package encoding

import "errors"

// Sentinel kinds for encoding errors.
var (
	ErrUnknownColumn   = errors.New("unknown feature column")
	ErrUnknownCategory = errors.New("category not in encoding table")
)
