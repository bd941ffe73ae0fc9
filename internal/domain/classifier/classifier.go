// Package classifier loads the pre-trained churn model artifact and exposes
// its probability operation.
package classifier

import "context"

// Classifier predicts class probabilities for encoded feature rows.
type Classifier interface {
	// PredictProba returns one probability row per input row, with one
	// column per class in Classes order.
	PredictProba(ctx context.Context, rows [][]float64) ([][]float64, error)

	// Classes lists the class labels in output column order.
	Classes() []string
}

// Info describes a loaded artifact.
type Info struct {
	Name     string   `json:"name"`
	Version  string   `json:"version"`
	Classes  []string `json:"classes"`
	Features []string `json:"features"`
	Trees    int      `json:"trees"`
}
