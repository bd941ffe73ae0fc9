package smoketest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/okian/churnrisk/internal/domain/customer"
	"github.com/okian/churnrisk/internal/domain/prediction"
	"github.com/okian/churnrisk/pkg/logger"
)

// ErrVerification marks a response that breaks the service contract.
var ErrVerification = errors.New("verification failed")

// verifyPrediction checks that a response is internally consistent: the
// verdict follows the threshold and the message renders the shown
// probability.
func verifyPrediction(res PredictResponse) error {
	if _, err := uuid.Parse(res.PredictionID); err != nil {
		return fmt.Errorf("%w: prediction_id %q: %v", ErrVerification, res.PredictionID, err)
	}
	p := res.ChurnProbability
	if math.IsNaN(p) || p < 0 || p > 1 {
		return fmt.Errorf("%w: churn_probability %v out of range", ErrVerification, p)
	}

	wantVerdict, wantDisplay := string(prediction.VerdictUnlikely), 1-p
	if p >= prediction.Threshold {
		wantVerdict, wantDisplay = string(prediction.VerdictLikely), p
	}
	if res.Verdict != wantVerdict {
		return fmt.Errorf("%w: verdict %q for probability %v", ErrVerification, res.Verdict, p)
	}
	if math.Abs(res.DisplayProbability-wantDisplay) > probabilityEpsilon {
		return fmt.Errorf("%w: display_probability %v, want %v", ErrVerification, res.DisplayProbability, wantDisplay)
	}
	if want := prediction.FormatPercent(wantDisplay); res.Percent != want {
		return fmt.Errorf("%w: percent %q, want %q", ErrVerification, res.Percent, want)
	}
	want := fmt.Sprintf("The customer is %s to churn with a probability of %s.", wantVerdict, res.Percent)
	if res.Message != want {
		return fmt.Errorf("%w: message %q, want %q", ErrVerification, res.Message, want)
	}
	return nil
}

// rejectionCase mutates a valid record into one the service must refuse.
type rejectionCase struct {
	field  string
	mutate func(*customer.Record)
}

var rejectionCases = []rejectionCase{ //nolint:gochecknoglobals // fixed table of probes
	{customer.ColTenure, func(r *customer.Record) { r.Tenure = 0 }},
	{customer.ColTenure, func(r *customer.Record) { r.Tenure = 101 }},
	{customer.ColMonthlyCharges, func(r *customer.Record) { r.MonthlyCharges = 0 }},
	{customer.ColTotalCharges, func(r *customer.Record) { r.TotalCharges = 100001 }},
	{customer.ColSeniorCitizen, func(r *customer.Record) { r.SeniorCitizen = 2 }},
	{customer.ColContract, func(r *customer.Record) { r.Contract = "Weekly" }},
}

// verifyRejections checks that out-of-domain input is refused with 400 and
// the offending field named.
func verifyRejections(ctx context.Context, client *HTTPClient, base customer.Record) (int, error) {
	passed := 0
	for _, c := range rejectionCases {
		rec := base
		c.mutate(&rec)
		status, err := client.postJSON(ctx, "/api/v1/predict", rec, nil)
		var apiErr *APIError
		if !errors.As(err, &apiErr) || status != StatusBadRequest {
			return passed, fmt.Errorf("%w: %s probe returned status %d", ErrVerification, c.field, status)
		}
		if apiErr.Body.Code != "bad_request" || !strings.Contains(apiErr.Body.Message, c.field) {
			return passed, fmt.Errorf("%w: %s probe returned %s", ErrVerification, c.field, apiErr.Error())
		}
		passed++
	}
	logger.Get().Info(ctx, "out-of-range input rejected", logger.Int("probes", passed))
	return passed, nil
}

// verifyDeterminism re-scores records and compares probabilities.
func verifyDeterminism(ctx context.Context, client *HTTPClient, records []customer.Record, first []PredictResponse) error {
	for i, rec := range records {
		if first[i].PredictionID == "" {
			continue
		}
		var again PredictResponse
		if _, err := client.postJSON(ctx, "/api/v1/predict", rec, &again); err != nil {
			return fmt.Errorf("re-score %d: %w", i, err)
		}
		if again.ChurnProbability != first[i].ChurnProbability || again.Message != first[i].Message {
			return fmt.Errorf("%w: record %d scored %v then %v", ErrVerification, i,
				first[i].ChurnProbability, again.ChurnProbability)
		}
	}
	logger.Get().Info(ctx, "predictions are deterministic", logger.Int("records", len(records)))
	return nil
}

// verifyStats checks that the service counted at least our predictions.
func verifyStats(ctx context.Context, client *HTTPClient, stats *Stats) error {
	var remote map[string]any
	if _, err := client.get(ctx, "/stats", &remote); err != nil {
		return fmt.Errorf("fetch stats: %w", err)
	}
	count, ok := remote["predictions"].(float64)
	if !ok {
		return fmt.Errorf("%w: stats has no predictions counter", ErrVerification)
	}
	if int(count) < stats.Successful {
		return fmt.Errorf("%w: service counted %d predictions, run made %d", ErrVerification, int(count), stats.Successful)
	}
	return nil
}
