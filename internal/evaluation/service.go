package evaluation

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"burnout-radar/internal/dataset"
	"burnout-radar/internal/features"
	"burnout-radar/internal/metrics"
	"burnout-radar/internal/ml"
	"burnout-radar/internal/storage"
)

// ErrEvaluationNotFound is returned when an evaluation id is unknown.
var ErrEvaluationNotFound = errors.New("evaluation not found")

// Synthetic evaluation sets use their own seed so held-out data never
// overlaps the synthetic training distribution.
const (
	evalSamples = 200
	evalSeed    = 123
)

// Config carries the tunable evaluation parameters.
type Config struct {
	TargetRecall      float64
	Costs             CostModel
	SyntheticFallback bool
	FetchTimeout      time.Duration
	TempDir           string
}

// Service runs model evaluations and owns their persisted results.
type Service struct {
	registry *ml.Registry
	store    *storage.Store
	obs      *metrics.Metrics
	fetcher  *dataset.Fetcher
	tempDir  string

	targetRecall float64
	costs        CostModel
	syntheticOK  bool
}

// New wires an evaluation service against a model registry and store.
func New(registry *ml.Registry, store *storage.Store, obs *metrics.Metrics, cfg Config) *Service {
	target := cfg.TargetRecall
	if target <= 0 {
		target = 0.85
	}
	costs := cfg.Costs
	if costs == (CostModel{}) {
		costs = DefaultCostModel()
	}
	return &Service{
		registry:     registry,
		store:        store,
		obs:          obs,
		fetcher:      dataset.NewFetcher(cfg.FetchTimeout),
		tempDir:      cfg.TempDir,
		targetRecall: target,
		costs:        costs,
		syntheticOK:  cfg.SyntheticFallback,
	}
}

// Params selects what to evaluate.
type Params struct {
	ModelVersion    string
	TestDatasetPath string
	Explainability  bool
	TargetRecall    float64 // <= 0 uses the service default
}

// Explainability is the optional importance payload. A failed analysis is
// captured in Error rather than failing the evaluation.
type Explainability struct {
	*ml.Importance
	Error string `json:"error,omitempty"`
}

// Result is the full evaluation document.
type Result struct {
	EvaluationID      string          `json:"evaluation_id"`
	ModelVersion      string          `json:"model_version"`
	EvaluationDate    time.Time       `json:"evaluation_date"`
	TestSamples       int             `json:"test_samples"`
	ModelType         string          `json:"model_type"`
	TargetRecall      float64         `json:"target_recall"`
	Metrics           Metrics         `json:"metrics"`
	BusinessMetrics   BusinessMetrics `json:"business_metrics"`
	Explainability    *Explainability `json:"explainability,omitempty"`
	EvaluationSummary Summary         `json:"evaluation_summary"`
}

// Evaluate grades the named model on a held-out dataset and persists the
// result. Unknown versions fail with ml.ErrModelNotFound.
func (s *Service) Evaluate(p Params) (*Result, error) {
	model, err := s.registry.Resolve(p.ModelVersion)
	if err != nil {
		return nil, err
	}

	target := p.TargetRecall
	if target <= 0 {
		target = s.targetRecall
	}

	log.Info().
		Str("model_version", model.Version).
		Str("dataset", p.TestDatasetPath).
		Float64("target_recall", target).
		Msg("starting evaluation")

	X, y, err := s.loadTestData(p.TestDatasetPath)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	yPred, err := model.Classifier.Predict(X)
	if err != nil {
		return nil, fmt.Errorf("predict on test set: %w", err)
	}
	proba, err := model.Classifier.PredictProba(X)
	if err != nil {
		return nil, fmt.Errorf("predict probabilities on test set: %w", err)
	}

	m := Compute(y, yPred, proba)
	business := ComputeBusiness(y, yPred, proba, s.costs)
	summary := Summarize(m, target)

	var expl *Explainability
	if p.Explainability {
		imp, impErr := ml.PermutationImportance(model.Classifier, X, y, features.Names(), evalSeed)
		if impErr != nil {
			log.Warn().Err(impErr).Msg("explainability analysis failed")
			expl = &Explainability{Error: impErr.Error()}
		} else {
			expl = &Explainability{Importance: imp}
		}
	}

	modelType := model.Meta.ModelType
	if model.Stub {
		modelType = ml.StubVersion
	}

	res := &Result{
		EvaluationID:      uuid.New().String(),
		ModelVersion:      model.Version,
		EvaluationDate:    time.Now().UTC(),
		TestSamples:       len(X),
		ModelType:         modelType,
		TargetRecall:      target,
		Metrics:           m,
		BusinessMetrics:   business,
		Explainability:    expl,
		EvaluationSummary: summary,
	}

	if err := s.persist(res); err != nil {
		return nil, err
	}

	if s.obs != nil {
		s.obs.EvaluationsTotal.Inc()
		s.obs.EvaluationDuration.Observe(time.Since(start).Seconds())
	}

	log.Info().
		Str("evaluation_id", res.EvaluationID).
		Str("model_version", res.ModelVersion).
		Float64("accuracy", m.Accuracy).
		Str("grade", summary.PerformanceGrade).
		Msg("evaluation completed")

	return res, nil
}

// Get retrieves a stored evaluation by id.
func (s *Service) Get(id string) (*Result, error) {
	record, found, err := s.store.GetEvaluation(id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrEvaluationNotFound, id)
	}

	var res Result
	if err := json.Unmarshal(record.Payload, &res); err != nil {
		return nil, fmt.Errorf("decode evaluation %s: %w", id, err)
	}
	return &res, nil
}

// List returns summary rows for all stored evaluations, newest first.
func (s *Service) List() ([]storage.EvaluationSummary, error) {
	return s.store.ListEvaluations()
}

func (s *Service) loadTestData(path string) ([][]float64, []int, error) {
	if path == "" {
		if !s.syntheticOK {
			return nil, nil, errors.New("no test dataset path given and synthetic fallback is disabled")
		}
		log.Info().Int("samples", evalSamples).Msg("no test dataset path, generating synthetic evaluation data")
		X, y := dataset.SyntheticEval(evalSamples, evalSeed)
		return X, y, nil
	}

	local := path
	if dataset.IsRemote(path) {
		fetched, err := s.fetcher.Fetch(path, s.tempDir)
		if err != nil {
			if s.syntheticOK {
				log.Warn().Err(err).Str("url", path).Msg("test dataset fetch failed, using synthetic data")
				X, y := dataset.SyntheticEval(evalSamples, evalSeed)
				return X, y, nil
			}
			return nil, nil, err
		}
		local = fetched
	}

	X, y, err := dataset.LoadLabeled(local, s.syntheticOK)
	if err != nil {
		if s.syntheticOK {
			log.Warn().Err(err).Str("path", local).Msg("test dataset load failed, using synthetic data")
			sx, sy := dataset.SyntheticEval(evalSamples, evalSeed)
			return sx, sy, nil
		}
		return nil, nil, err
	}
	return X, y, nil
}

func (s *Service) persist(res *Result) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal evaluation result: %w", err)
	}

	record := storage.EvaluationRecord{
		EvaluationID:     res.EvaluationID,
		ModelVersion:     res.ModelVersion,
		EvaluationDate:   res.EvaluationDate,
		Accuracy:         res.Metrics.Accuracy,
		PerformanceLevel: res.Metrics.PerformanceLevel,
		Payload:          payload,
	}
	return s.store.SaveEvaluation(record)
}
