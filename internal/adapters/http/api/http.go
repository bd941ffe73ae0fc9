// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/okian/churnrisk/internal/app"
	"github.com/okian/churnrisk/internal/domain/customer"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	StatsProvider

	// Predict scores one customer record.
	Predict(ctx context.Context, rec customer.Record) (service.Prediction, error)

	// Schema describes the form inputs.
	Schema() []customer.Field

	// ModelInfo describes the loaded artifact.
	ModelInfo() (service.ModelInfo, error)

	// Ready reports whether a model is loaded.
	Ready() bool
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	predictHandler *PredictHandler
	schemaHandler  *SchemaHandler
	modelHandler   *ModelHandler
	metricsHandler http.Handler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(deps),
		statsHandler:   NewStatsHandler(deps),
		predictHandler: NewPredictHandler(deps),
		schemaHandler:  NewSchemaHandler(deps),
		modelHandler:   NewModelHandler(deps),
		metricsHandler: NewMetricsHandler(),
	}
}

// Register attaches all HTTP routes to mux. Prediction routes pass through
// limiter when it is non-nil.
func (s *Server) Register(mux *http.ServeMux, limiter *RateLimiter) {
	predict := http.Handler(http.HandlerFunc(s.predictHandler.HandlePredict))
	if limiter != nil {
		predict = limiter.Middleware(predict)
	}

	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", s.metricsHandler)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/v1/predict", MetricsMiddleware(predict.ServeHTTP, "predict"))
	mux.HandleFunc("/api/v1/schema", MetricsMiddleware(s.schemaHandler.HandleSchema, "schema"))
	mux.HandleFunc("/api/v1/model", MetricsMiddleware(s.modelHandler.HandleModel, "model"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
