package risk

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"burnout-radar/internal/features"
	"burnout-radar/internal/metrics"
	"burnout-radar/internal/ml"
	"burnout-radar/internal/storage"
)

// ModelStatusAvailable marks a loaded, servable model.
const ModelStatusAvailable = "available"

// ModelKind is the classifier family every served model belongs to.
const ModelKind = "burnout_risk_classifier"

const defaultHistoryLimit = 10

// Config carries the assessment parameters.
type Config struct {
	Thresholds   Thresholds
	HistoryLimit int
}

// Service is the prediction engine: it resolves a model, scores a
// subject, attributes factors and persists the assessment.
type Service struct {
	registry     *ml.Registry
	store        *storage.Store
	obs          *metrics.MetricsWrapper
	thresholds   Thresholds
	historyLimit int
}

// New builds the prediction engine. Zero-value thresholds fall back to
// the standard banding; obs may be nil.
func New(registry *ml.Registry, store *storage.Store, obs *metrics.MetricsWrapper, cfg Config) *Service {
	thresholds := cfg.Thresholds
	if thresholds == (Thresholds{}) {
		thresholds = DefaultThresholds()
	}
	limit := cfg.HistoryLimit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return &Service{
		registry:     registry,
		store:        store,
		obs:          obs,
		thresholds:   thresholds,
		historyLimit: limit,
	}
}

// ModelSummary is one row of the model listing.
type ModelSummary struct {
	Version   string    `json:"version"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ModelInfo describes one loaded model in detail.
type ModelInfo struct {
	Version            string             `json:"version"`
	Status             string             `json:"status"`
	Type               string             `json:"type"`
	CreatedAt          time.Time          `json:"created_at"`
	PerformanceMetrics map[string]float64 `json:"performance_metrics"`
}

// Predict scores one subject. The raw feature map is vectorized through
// the feature contract; "latest" or an empty version resolves to the most
// recently loaded model, falling back to the random stub when nothing is
// loaded. The returned record is already persisted to history.
func (s *Service) Predict(subjectID string, raw map[string]any, modelVersion string) (storage.PredictionRecord, error) {
	start := time.Now()

	model, err := s.registry.Resolve(modelVersion)
	if err != nil {
		if s.obs != nil {
			s.obs.PredictionErrors().Inc()
		}
		return storage.PredictionRecord{}, err
	}

	vec, defaulted := features.VectorizeReport(raw)
	if len(defaulted) > 0 {
		log.Debug().
			Str("subject_id", subjectID).
			Strs("fields", defaulted).
			Msg("feature fields defaulted to zero")
	}
	_, proba, err := ml.PredictOne(model.Classifier, vec)
	if err != nil {
		if s.obs != nil {
			s.obs.PredictionErrors().Inc()
		}
		return storage.PredictionRecord{}, fmt.Errorf("predict: %w", err)
	}

	score := proba[1]
	level := s.thresholds.Level(score)
	factors := Factors(raw)

	record := storage.PredictionRecord{
		PredictionID:    uuid.New().String(),
		SubjectID:       subjectID,
		RiskLevel:       level,
		RiskScore:       score,
		Confidence:      math.Max(proba[0], proba[1]),
		Factors:         factors,
		Recommendations: Recommendations(level, factors),
		ModelVersion:    model.Version,
		DefaultedFields: defaulted,
		Timestamp:       time.Now().UTC(),
	}

	if s.store != nil {
		// A history write failure degrades the record, not the answer.
		if err := s.store.SavePrediction(record); err != nil {
			log.Warn().Err(err).Str("subject_id", subjectID).Msg("prediction not persisted to history")
		} else if s.obs != nil {
			if n, err := s.store.CountPredictions(); err == nil {
				s.obs.HistoryRecords().Set(float64(n))
			}
		}
	}

	if s.obs != nil {
		s.obs.RecordPrediction(level, score, time.Since(start).Seconds(), model.Stub)
	}

	log.Info().
		Str("subject_id", subjectID).
		Str("risk_level", level).
		Float64("risk_score", score).
		Str("model_version", model.Version).
		Bool("stub", model.Stub).
		Msg("risk assessed")
	return record, nil
}

// History returns the most recent assessments for a subject, newest
// first. A non-positive limit uses the configured default.
func (s *Service) History(subjectID string, limit int) ([]storage.PredictionRecord, error) {
	if limit <= 0 {
		limit = s.historyLimit
	}
	return s.store.GetPredictions(subjectID, limit)
}

// ListModels returns a summary row per loaded model, load order preserved.
func (s *Service) ListModels() []ModelSummary {
	metas := s.registry.List()
	out := make([]ModelSummary, 0, len(metas))
	for _, meta := range metas {
		out = append(out, ModelSummary{
			Version:   meta.Version,
			Status:    ModelStatusAvailable,
			CreatedAt: meta.TrainedAt,
		})
	}
	return out
}

// ModelInfo returns the detail view for one loaded model version.
func (s *Service) ModelInfo(version string) (ModelInfo, error) {
	meta, err := s.registry.Info(version)
	if err != nil {
		return ModelInfo{}, err
	}
	perf := meta.Metrics
	if perf == nil {
		perf = map[string]float64{"accuracy": meta.Accuracy}
	}
	return ModelInfo{
		Version:            meta.Version,
		Status:             ModelStatusAvailable,
		Type:               ModelKind,
		CreatedAt:          meta.TrainedAt,
		PerformanceMetrics: perf,
	}, nil
}
