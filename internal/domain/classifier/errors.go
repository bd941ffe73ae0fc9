package classifier

import "errors"

// Sentinel kinds for classifier errors.
var (
	ErrLoadModel    = errors.New("load model failed")
	ErrInvalidModel = errors.New("invalid model artifact")
	ErrFeatureWidth = errors.New("feature row width mismatch")
)
