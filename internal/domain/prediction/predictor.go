// Package prediction turns a customer record into a churn verdict using a
// classifier and an encoder fixed at construction.
package prediction

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/okian/churnrisk/internal/domain/classifier"
	"github.com/okian/churnrisk/internal/domain/customer"
	"github.com/okian/churnrisk/internal/domain/encoding"
)

// Threshold is the churn probability at or above which a customer is
// considered likely to churn.
const Threshold = 0.5

// churnColumn is the probability column of the positive class.
const churnColumn = 1

// Verdict is the binary outcome shown to the user.
type Verdict string

const (
	VerdictLikely   Verdict = "likely"
	VerdictUnlikely Verdict = "unlikely"
)

// Result is the outcome of one prediction.
type Result struct {
	// ChurnProbability is the raw positive-class probability.
	ChurnProbability float64
	Verdict          Verdict
	// DisplayProbability is the probability of the displayed outcome:
	// ChurnProbability for likely, its complement for unlikely.
	DisplayProbability float64
	// Percent is DisplayProbability rendered for display, e.g. "87.34%".
	Percent string
	Message string
}

// Predictor is safe for concurrent use; it holds no per-request state.
type Predictor struct {
	model   classifier.Classifier
	encoder encoding.Encoder
}

// New binds a classifier and the encoder matching its feature order.
func New(model classifier.Classifier, encoder encoding.Encoder) (*Predictor, error) {
	if model == nil || encoder == nil {
		return nil, ErrNotConfigured
	}
	return &Predictor{model: model, encoder: encoder}, nil
}

// EncodingMode reports the encoder strategy in use.
func (p *Predictor) EncodingMode() string { return p.encoder.Mode() }

// Predict validates rec, encodes it, scores it and applies the threshold.
func (p *Predictor) Predict(ctx context.Context, rec customer.Record) (Result, error) {
	if err := rec.Validate(); err != nil {
		return Result{}, err
	}
	row, err := p.encoder.Encode(rec)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	out, err := p.model.PredictProba(ctx, [][]float64{row})
	if err != nil {
		if errors.Is(err, classifier.ErrFeatureWidth) {
			return Result{}, fmt.Errorf("%w: %w", ErrInvalidModel, err)
		}
		return Result{}, err
	}
	prob, err := churnProbability(out)
	if err != nil {
		return Result{}, err
	}
	return Decide(prob), nil
}

func churnProbability(out [][]float64) (float64, error) {
	if len(out) != 1 {
		return 0, fmt.Errorf("%w: got %d output rows", ErrInvalidModel, len(out))
	}
	if len(out[0]) != 2 {
		return 0, fmt.Errorf("%w: got %d classes, want 2", ErrInvalidModel, len(out[0]))
	}
	prob := out[0][churnColumn]
	if math.IsNaN(prob) || prob < 0 || prob > 1 {
		return 0, fmt.Errorf("%w: probability %v out of range", ErrInvalidModel, prob)
	}
	return prob, nil
}

// Decide applies Threshold to a churn probability and builds the message.
func Decide(prob float64) Result {
	res := Result{ChurnProbability: prob}
	if prob >= Threshold {
		res.Verdict = VerdictLikely
		res.DisplayProbability = prob
	} else {
		res.Verdict = VerdictUnlikely
		res.DisplayProbability = 1 - prob
	}
	res.Percent = FormatPercent(res.DisplayProbability)
	res.Message = fmt.Sprintf("The customer is %s to churn with a probability of %s.", res.Verdict, res.Percent)
	return res
}

// FormatPercent renders a probability as a percentage rounded to two
// decimals with trailing zeros trimmed, keeping at least one decimal:
// 0.8734 is "87.34%", 0.5 is "50.0%". Rounding applies to the exact binary
// value of prob*100, so 0.00015 shown as unlikely is "99.98%".
func FormatPercent(prob float64) string {
	s := decimal.RequireFromString(strconv.FormatFloat(prob*100, 'f', 2, 64)).String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s + "%"
}
