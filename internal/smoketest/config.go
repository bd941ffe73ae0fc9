package smoketest

import "time"

// Config holds configuration for a smoke run.
type Config struct {
	BaseURL     string        // Base URL of the service
	Records     int           // Number of records to generate and score
	Workers     int           // Number of concurrent submitters
	Timeout     time.Duration // HTTP request timeout
	Seed        uint64        // Seed for the record generator
	Determinism int           // Number of records re-scored to check determinism
	OutputFile  string        // Optional JSON file for the scored records
	Verbose     bool          // Log every prediction
}

// PredictResponse mirrors the API's prediction body.
type PredictResponse struct {
	PredictionID       string  `json:"prediction_id"`
	ChurnProbability   float64 `json:"churn_probability"`
	Verdict            string  `json:"verdict"`
	DisplayProbability float64 `json:"display_probability"`
	Percent            string  `json:"percent"`
	Message            string  `json:"message"`
	ModelVersion       string  `json:"model_version"`
}

// ErrorResponse mirrors the API's error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Stats holds run statistics.
type Stats struct {
	RunID           string
	Generated       int
	Submitted       int
	Successful      int
	Failed          int
	Likely          int
	Unlikely        int
	Inconsistent    int
	RejectionsOK    int
	DeterminismRuns int
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}
