package prediction

import "errors"

// Sentinel kinds for prediction errors.
var (
	// ErrInvalidModel is returned when the classifier's output is not one
	// row with exactly two class probabilities.
	ErrInvalidModel  = errors.New("invalid model")
	ErrNotConfigured = errors.New("predictor not configured")
	ErrEncoding      = errors.New("encode record")
)

// InvalidModelMessage is shown to the user instead of a verdict.
const InvalidModelMessage = "Error: Invalid model, please check the model file."
