package smoketest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/churnrisk/internal/domain/customer"
	"github.com/okian/churnrisk/pkg/logger"
)

// scored pairs a generated record with the service's answer.
type scored struct {
	Record   customer.Record `json:"record"`
	Response PredictResponse `json:"response"`
}

// Run executes the complete smoke test against a running service.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	stats := &Stats{
		RunID:     uuid.NewString(),
		StartTime: time.Now(),
	}
	log := logger.Get()

	log.Info(ctx, "starting churn smoke test",
		logger.String("runID", stats.RunID),
		logger.String("baseURL", config.BaseURL),
		logger.Int("records", config.Records),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout),
	)

	client := newHTTPClient(config.BaseURL, config.Timeout)

	// Step 1: Check service health and schema
	if err := checkServiceHealth(ctx, client); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate records
	records, err := generateRecords(ctx, config.Records, config.Seed)
	if err != nil {
		return stats, fmt.Errorf("record generation failed: %w", err)
	}
	stats.Generated = len(records)

	// Step 3: Score records concurrently
	responses, err := submitRecords(ctx, client, config, records, stats)
	if err != nil {
		return stats, fmt.Errorf("record submission failed: %w", err)
	}

	// Step 4: Re-score a prefix to check determinism
	n := min(config.Determinism, len(records))
	if err := verifyDeterminism(ctx, client, records[:n], responses[:n]); err != nil {
		return stats, err
	}
	stats.DeterminismRuns = n

	// Step 5: Probe input validation
	if len(records) > 0 {
		stats.RejectionsOK, err = verifyRejections(ctx, client, records[0])
		if err != nil {
			return stats, err
		}
	}

	// Step 6: Cross-check service counters
	if err := verifyStats(ctx, client, stats); err != nil {
		return stats, err
	}

	// Step 7: Save scored records
	if config.OutputFile != "" {
		if err := saveScored(ctx, config.OutputFile, records, responses); err != nil {
			log.Warn(ctx, "failed to save scored records", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if stats.Failed > 0 || stats.Inconsistent > 0 {
		return stats, fmt.Errorf("%w: %d failed, %d inconsistent", ErrVerification, stats.Failed, stats.Inconsistent)
	}
	log.Info(ctx, "smoke test completed successfully")
	return stats, nil
}

// checkServiceHealth verifies the service is up with a model and serves
// the full schema.
func checkServiceHealth(ctx context.Context, client *HTTPClient) error {
	logger.Get().Info(ctx, "checking service health")

	var health struct {
		Status      string `json:"status"`
		ModelLoaded bool   `json:"model_loaded"`
	}
	if _, err := client.get(ctx, "/healthz", &health); err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if !health.ModelLoaded {
		return fmt.Errorf("%w: model not loaded", ErrVerification)
	}

	var schema struct {
		Fields []customer.Field `json:"fields"`
	}
	if _, err := client.get(ctx, "/api/v1/schema", &schema); err != nil {
		return fmt.Errorf("failed to fetch schema: %w", err)
	}
	if want := len(customer.Columns()); len(schema.Fields) != want {
		return fmt.Errorf("%w: schema has %d fields, want %d", ErrVerification, len(schema.Fields), want)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// submitRecords scores records with at most config.Workers requests in
// flight. Responses are returned in record order.
func submitRecords(ctx context.Context, client *HTTPClient, config *Config, records []customer.Record, stats *Stats) ([]PredictResponse, error) {
	log := logger.Get()
	log.Info(ctx, "submitting records", logger.Int("records", len(records)), logger.Int("workers", config.Workers))

	responses := make([]PredictResponse, len(records))
	var submitted, successful, failed, likely, unlikely, inconsistent atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(config.Workers, 1))
	for i, rec := range records {
		g.Go(func() error {
			submitted.Add(1)
			var res PredictResponse
			if _, err := client.postJSON(gctx, "/api/v1/predict", rec, &res); err != nil {
				failed.Add(1)
				log.Warn(gctx, "prediction failed", logger.Int("record", i), logger.Error(err))
				return nil
			}
			successful.Add(1)
			if err := verifyPrediction(res); err != nil {
				inconsistent.Add(1)
				log.Warn(gctx, "inconsistent prediction", logger.Int("record", i), logger.Error(err))
			}
			if res.Verdict == "likely" {
				likely.Add(1)
			} else {
				unlikely.Add(1)
			}
			if config.Verbose {
				log.Info(gctx, "scored", logger.Int("record", i), logger.String("message", res.Message))
			}
			responses[i] = res
			return gctx.Err()
		})
	}
	err := g.Wait()

	stats.Submitted = int(submitted.Load())
	stats.Successful = int(successful.Load())
	stats.Failed = int(failed.Load())
	stats.Likely = int(likely.Load())
	stats.Unlikely = int(unlikely.Load())
	stats.Inconsistent = int(inconsistent.Load())

	log.Info(ctx, "record submission completed",
		logger.Int("successful", stats.Successful),
		logger.Int("failed", stats.Failed),
		logger.Int("inconsistent", stats.Inconsistent),
	)
	return responses, err
}

// saveScored writes records and responses to a JSON file.
func saveScored(ctx context.Context, filename string, records []customer.Record, responses []PredictResponse) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	out := make([]scored, len(records))
	for i := range records {
		out[i] = scored{Record: records[i], Response: responses[i]}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	logger.Get().Info(ctx, "scored records saved", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.String("runID", stats.RunID),
		logger.Int("generated", stats.Generated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("successful", stats.Successful),
		logger.Int("failed", stats.Failed),
		logger.Int("likely", stats.Likely),
		logger.Int("unlikely", stats.Unlikely),
		logger.Int("inconsistent", stats.Inconsistent),
		logger.Int("rejectionProbes", stats.RejectionsOK),
		logger.Int("determinismChecks", stats.DeterminismRuns),
		logger.Duration("duration", stats.Duration),
		logger.Float64("requestsPerSecond", perSecond),
	)
}
