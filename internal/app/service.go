// Package service owns the loaded churn model and provides the operations
// required by the HTTP adapters.
package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/churnrisk/internal/config"
	"github.com/okian/churnrisk/internal/domain/classifier"
	"github.com/okian/churnrisk/internal/domain/customer"
	"github.com/okian/churnrisk/internal/domain/encoding"
	"github.com/okian/churnrisk/internal/domain/prediction"
	"github.com/okian/churnrisk/pkg/logger"
	"github.com/okian/churnrisk/pkg/metrics"
)

// Prediction is a scored request as returned to the adapters.
type Prediction struct {
	ID           string
	ModelVersion string
	prediction.Result
}

// ModelInfo describes the artifact in use.
type ModelInfo struct {
	classifier.Info
	EncodingMode string    `json:"encoding_mode"`
	LoadedAt     time.Time `json:"loaded_at"`
}

// Service loads the model once and serves predictions from it.
type Service struct {
	mu sync.RWMutex

	// Configuration
	modelPath    string
	encodingMode string

	// Injected classifier, used instead of loading modelPath.
	model classifier.Classifier

	// State
	predictor *prediction.Predictor
	info      ModelInfo
	started   bool

	// Counters for /stats
	predictions  atomic.Int64
	likely       atomic.Int64
	unlikely     atomic.Int64
	rejected     atomic.Int64
	invalidModel atomic.Int64
	encodeErrors atomic.Int64

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithModelPath sets the artifact location read by Start.
func WithModelPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.modelPath = path
		}
	}
}

// WithEncodingMode selects the categorical encoder.
func WithEncodingMode(mode string) Option {
	return func(s *Service) {
		if mode != "" {
			s.encodingMode = mode
		}
	}
}

// WithClassifier skips loading from disk and uses model instead. If model
// has an Info method its feature order and metadata are used.
func WithClassifier(model classifier.Classifier) Option {
	return func(s *Service) {
		s.model = model
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	defaults := config.New()
	s := &Service{
		modelPath:    defaults.ModelPath,
		encodingMode: defaults.EncodingMode,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start loads the artifact and builds the predictor. A model that cannot be
// loaded is a startup error.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting churn service...",
		logger.String("modelPath", s.modelPath),
		logger.String("encoding", s.encodingMode),
	)

	began := time.Now()
	model, info, categories, err := s.loadModel()
	if err != nil {
		return err
	}
	loadMs := float64(time.Since(began).Microseconds()) / 1000

	enc, err := s.buildEncoder(ctx, info.Features, categories)
	if err != nil {
		return err
	}

	p, err := prediction.New(model, enc)
	if err != nil {
		return err
	}

	s.predictor = p
	s.info = ModelInfo{Info: info, EncodingMode: enc.Mode(), LoadedAt: time.Now().UTC()}
	s.started = true

	metrics.SetModelLoadDuration(loadMs)
	metrics.SetModelInfo(info.Name, info.Version, enc.Mode(), info.Trees)

	s.logger.Info(ctx, "churn service started",
		logger.String("model", info.Name),
		logger.String("version", info.Version),
		logger.Int("trees", info.Trees),
		logger.Int("features", len(info.Features)),
		logger.Float64("loadMs", loadMs),
	)

	if len(info.Classes) != 2 {
		s.logger.Warn(ctx, "model does not have two classes; predictions will fail",
			logger.Int("classes", len(info.Classes)),
		)
	}

	return nil
}

func (s *Service) loadModel() (classifier.Classifier, classifier.Info, encoding.Table, error) {
	if s.model != nil {
		info := classifier.Info{Name: "injected", Classes: s.model.Classes(), Features: customer.Columns()}
		if described, ok := s.model.(interface{ Info() classifier.Info }); ok {
			info = described.Info()
		}
		var categories encoding.Table
		if forest, ok := s.model.(*classifier.Forest); ok {
			categories = forest.Categories
		}
		return s.model, info, categories, nil
	}

	forest, err := classifier.LoadForest(s.modelPath)
	if err != nil {
		return nil, classifier.Info{}, nil, fmt.Errorf("load %s: %w", s.modelPath, err)
	}
	return forest, forest.Info(), forest.Categories, nil
}

func (s *Service) buildEncoder(ctx context.Context, features []string, categories encoding.Table) (encoding.Encoder, error) {
	switch s.encodingMode {
	case config.EncodingLegacy:
		s.logger.Warn(ctx, "legacy encoding enabled: every categorical code is 0")
		return encoding.NewLegacyEncoder(features)
	case config.EncodingTable:
		table := categories.Merge(encoding.DefaultTable())
		s.warnUncoveredChoices(ctx, table)
		return encoding.NewTableEncoder(features, table)
	default:
		return nil, fmt.Errorf("%w: unknown encoding mode %q", config.ErrInvalidConfig, s.encodingMode)
	}
}

// warnUncoveredChoices logs form choices the artifact table cannot encode.
func (s *Service) warnUncoveredChoices(ctx context.Context, table encoding.Table) {
	for _, f := range customer.Schema() {
		if !f.Categorical() {
			continue
		}
		for _, c := range f.Choices {
			if !slices.Contains(table[f.Name], c) {
				s.logger.Warn(ctx, "form choice missing from category table",
					logger.String("column", f.Name),
					logger.String("value", c),
				)
			}
		}
	}
}

// Stop releases the model.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.predictor = nil
	s.started = false
	s.logger.Info(context.Background(), "churn service stopped")
}

// Ready reports whether a model is loaded.
func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// Predict scores one record and updates metrics and counters.
func (s *Service) Predict(ctx context.Context, rec customer.Record) (Prediction, error) {
	s.mu.RLock()
	p, version := s.predictor, s.info.Version
	s.mu.RUnlock()
	if p == nil {
		return Prediction{}, ErrNotStarted
	}

	id := uuid.NewString()
	began := time.Now()
	res, err := p.Predict(ctx, rec)
	metrics.RecordPredictionLatency(float64(time.Since(began).Microseconds()) / 1000)
	if err != nil {
		s.recordFailure(ctx, id, err)
		return Prediction{}, err
	}

	s.predictions.Add(1)
	if res.Verdict == prediction.VerdictLikely {
		s.likely.Add(1)
	} else {
		s.unlikely.Add(1)
	}
	if err := metrics.RecordPrediction(string(res.Verdict), res.ChurnProbability); err != nil {
		s.logger.Debug(ctx, "prediction metric not recorded", logger.Error(err))
	}

	s.logger.Debug(ctx, "prediction",
		logger.String("predictionID", id),
		logger.String("verdict", string(res.Verdict)),
		logger.Float64("churnProbability", res.ChurnProbability),
	)

	return Prediction{ID: id, ModelVersion: version, Result: res}, nil
}

func (s *Service) recordFailure(ctx context.Context, id string, err error) {
	var fe *customer.FieldError
	switch {
	case errors.As(err, &fe):
		s.rejected.Add(1)
		metrics.RecordRejectedInput(fe.Field)
		s.logger.Debug(ctx, "rejected input",
			logger.String("predictionID", id),
			logger.String("field", fe.Field),
			logger.String("reason", fe.Reason),
		)
	case errors.Is(err, prediction.ErrInvalidModel):
		s.invalidModel.Add(1)
		metrics.RecordInvalidModel()
		s.logger.Warn(ctx, "invalid model output",
			logger.String("predictionID", id),
			logger.Error(err),
		)
	case errors.Is(err, prediction.ErrEncoding):
		s.encodeErrors.Add(1)
		metrics.RecordEncodingError()
		s.logger.Warn(ctx, "encoding failed",
			logger.String("predictionID", id),
			logger.Error(err),
		)
	default:
		s.logger.Error(ctx, "prediction failed",
			logger.String("predictionID", id),
			logger.Error(err),
		)
	}
}

// Schema returns the form schema in display order.
func (s *Service) Schema() []customer.Field {
	return customer.Schema()
}

// ModelInfo returns the loaded artifact's description.
func (s *Service) ModelInfo() (ModelInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ModelInfo{}, ErrNotStarted
	}
	return s.info, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":          s.started,
		"encodingMode":     s.encodingMode,
		"predictions":      s.predictions.Load(),
		"likely":           s.likely.Load(),
		"unlikely":         s.unlikely.Load(),
		"rejectedInputs":   s.rejected.Load(),
		"invalidModel":     s.invalidModel.Load(),
		"encodingFailures": s.encodeErrors.Load(),
	}

	if s.started {
		stats["modelName"] = s.info.Name
		stats["modelVersion"] = s.info.Version
		stats["trees"] = s.info.Trees
		stats["loadedAt"] = s.info.LoadedAt.Format(time.RFC3339)
	}

	return stats
}
