// Package training runs model training jobs as detached background units
// of work. Callers get an id back immediately and poll for status; failures
// never escape a job, they are captured into its record.
package training

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"burnout-radar/internal/common"
	"burnout-radar/internal/dataset"
	"burnout-radar/internal/metrics"
	"burnout-radar/internal/ml"
	"burnout-radar/internal/storage"
)

// Job lifecycle statuses, in transition order. completed and failed are
// terminal; a job takes exactly one terminal transition.
const (
	StatusStarted            = "started"
	StatusInitializing       = "initializing"
	StatusLoadingData        = "loading_data"
	StatusFeatureEngineering = "feature_engineering"
	StatusPreprocessing      = "preprocessing"
	StatusTraining           = "training"
	StatusEvaluating         = "evaluating"
	StatusSaving             = "saving"
	StatusCompleted          = "completed"
	StatusFailed             = "failed"
)

// ErrJobNotFound is returned when a training id is unknown.
var ErrJobNotFound = errors.New("training job not found")

// Config carries the training service parameters.
type Config struct {
	ModelsDir         string
	DefaultModelType  string
	MaxConcurrentJobs int
	TestFraction      float64
	SplitSeed         int64
	WebhookURL        string
	WebhookTimeout    time.Duration

	// OnUpdate is invoked after every persisted job transition, for
	// progress streaming. May be nil.
	OnUpdate func(storage.TrainingJob)
}

// Service owns job submission, execution, and status lookups.
type Service struct {
	store    *storage.Store
	registry *ml.Registry
	resolver *dataset.Resolver
	obs      *metrics.Metrics

	modelsDir    string
	defaultType  string
	testFraction float64
	splitSeed    int64
	onUpdate     func(storage.TrainingJob)

	webhook    *resty.Client
	webhookURL string

	slots   chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// New wires a training service. resolver owns the dataset fallback policy;
// obs may be nil.
func New(store *storage.Store, registry *ml.Registry, resolver *dataset.Resolver, obs *metrics.Metrics, cfg Config) *Service {
	if cfg.DefaultModelType == "" {
		cfg.DefaultModelType = common.DefaultModelType
	}
	if cfg.MaxConcurrentJobs <= 0 {
		cfg.MaxConcurrentJobs = common.DefaultMaxConcurrentJobs
	}
	if cfg.TestFraction <= 0 {
		cfg.TestFraction = common.DefaultTestFraction
	}
	if cfg.SplitSeed == 0 {
		cfg.SplitSeed = common.DefaultSplitSeed
	}
	webhookTimeout := cfg.WebhookTimeout
	if webhookTimeout <= 0 {
		webhookTimeout = 30 * time.Second
	}

	return &Service{
		store:        store,
		registry:     registry,
		resolver:     resolver,
		obs:          obs,
		modelsDir:    cfg.ModelsDir,
		defaultType:  cfg.DefaultModelType,
		testFraction: cfg.TestFraction,
		splitSeed:    cfg.SplitSeed,
		onUpdate:     cfg.OnUpdate,
		webhook:      resty.New().SetTimeout(webhookTimeout),
		webhookURL:   cfg.WebhookURL,
		slots:        make(chan struct{}, cfg.MaxConcurrentJobs),
		cancels:      make(map[string]context.CancelFunc),
	}
}

// Request describes one training submission.
type Request struct {
	DatasetPath     string
	ModelType       string
	Hyperparameters map[string]any
}

// Train validates the request, records the job, and launches the
// background unit. It returns the training id immediately; progress is
// observable via Status. An unknown model type fails here, before any job
// record exists.
func (s *Service) Train(req Request) (string, error) {
	modelType := req.ModelType
	if modelType == "" {
		modelType = s.defaultType
	}

	forestCfg, err := ml.ConfigForModelType(modelType, req.Hyperparameters)
	if err != nil {
		return "", err
	}

	id := uuid.New().String()
	job := storage.TrainingJob{
		TrainingID:      id,
		Status:          StatusStarted,
		Progress:        0,
		ModelType:       modelType,
		DatasetPath:     req.DatasetPath,
		Hyperparameters: req.Hyperparameters,
		StartTime:       time.Now().UTC(),
	}
	if err := s.store.SaveJob(job); err != nil {
		return "", fmt.Errorf("record training job: %w", err)
	}
	s.publish(job)

	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancels[id] = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.runJob(ctx, job, forestCfg)

	log.Info().
		Str("training_id", id).
		Str("model_type", modelType).
		Str("dataset", req.DatasetPath).
		Msg("training job started")
	return id, nil
}

// Status returns the current job record for a training id.
func (s *Service) Status(id string) (storage.TrainingJob, error) {
	job, found, err := s.store.GetJob(id)
	if err != nil {
		return storage.TrainingJob{}, err
	}
	if !found {
		return storage.TrainingJob{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return job, nil
}

// List returns all job records, newest first.
func (s *Service) List() ([]storage.TrainingJob, error) {
	return s.store.ListJobs()
}

// Shutdown cancels running jobs and waits for their terminal transitions,
// or until ctx expires.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for _, cancel := range s.cancels {
		cancel()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Version derives the persisted model key from a job: model-type prefix,
// job-id prefix, and a UTC timestamp.
func Version(modelType, trainingID string, at time.Time) string {
	typePrefix := modelType
	if len(typePrefix) > 3 {
		typePrefix = typePrefix[:3]
	}
	idPrefix := trainingID
	if len(idPrefix) > 8 {
		idPrefix = idPrefix[:8]
	}
	return fmt.Sprintf("%s_%s_%s", typePrefix, idPrefix, at.Format("20060102_150405"))
}

func (s *Service) publish(job storage.TrainingJob) {
	if s.onUpdate != nil {
		s.onUpdate(job)
	}
}

func (s *Service) notifyWebhook(job storage.TrainingJob) {
	if s.webhookURL == "" {
		return
	}

	resp, err := s.webhook.R().
		SetHeader("Content-Type", "application/json").
		SetBody(job).
		Post(s.webhookURL)
	if err != nil {
		log.Warn().Err(err).Str("training_id", job.TrainingID).Msg("completion webhook delivery failed")
		return
	}
	if resp.StatusCode() >= 300 {
		log.Warn().
			Int("status", resp.StatusCode()).
			Str("training_id", job.TrainingID).
			Msg("completion webhook rejected")
	}
}
