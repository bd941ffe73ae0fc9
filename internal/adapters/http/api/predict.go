package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	service "github.com/okian/churnrisk/internal/app"
	"github.com/okian/churnrisk/internal/domain/customer"
	"github.com/okian/churnrisk/internal/domain/prediction"
)

const maxPredictBody = 64 << 10

// PredictDependencies is what HandlePredict needs.
type PredictDependencies interface {
	Predict(ctx context.Context, rec customer.Record) (service.Prediction, error)
}

// PredictHandler handles prediction requests.
type PredictHandler struct {
	deps PredictDependencies
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps PredictDependencies) *PredictHandler {
	return &PredictHandler{deps: deps}
}

// predictResponse mirrors the OpenAPI schema for POST /api/v1/predict.
type predictResponse struct {
	PredictionID       string  `json:"prediction_id"`
	ChurnProbability   float64 `json:"churn_probability"`
	Verdict            string  `json:"verdict"`
	DisplayProbability float64 `json:"display_probability"`
	Percent            string  `json:"percent"`
	Message            string  `json:"message"`
	ModelVersion       string  `json:"model_version"`
}

// HandlePredict handles POST /api/v1/predict requests.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	var rec customer.Record
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPredictBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, fmt.Errorf("decode body: %w", err)))
		return
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("trailing data after JSON body")))
		return
	}

	res, err := h.deps.Predict(r.Context(), rec)
	if err != nil {
		writePredictError(w, op, err)
		return
	}

	writeJSON(w, http.StatusOK, predictResponse{
		PredictionID:       res.ID,
		ChurnProbability:   res.ChurnProbability,
		Verdict:            string(res.Verdict),
		DisplayProbability: res.DisplayProbability,
		Percent:            res.Percent,
		Message:            res.Message,
		ModelVersion:       res.ModelVersion,
	})
}

func writePredictError(w http.ResponseWriter, op string, err error) {
	var fe *customer.FieldError
	switch {
	case errors.As(err, &fe):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, fe))
	case errors.Is(err, prediction.ErrInvalidModel):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Code:    "invalid_model",
			Message: prediction.InvalidModelMessage,
		})
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", NewKind(op, ErrUnavailable))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", NewKind(op, ErrInternal))
	}
}
