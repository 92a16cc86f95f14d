package training

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"burnout-radar/internal/dataset"
	"burnout-radar/internal/evaluation"
	"burnout-radar/internal/features"
	"burnout-radar/internal/ml"
	"burnout-radar/internal/storage"
)

// runJob is the detached training unit. It owns its job record exclusively
// and drives it through the stage sequence to exactly one terminal state.
// Nothing raised here reaches the submitter; panics are captured into the
// record like any other failure.
func (s *Service) runJob(ctx context.Context, job storage.TrainingJob, forestCfg ml.ForestConfig) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.cancels, job.TrainingID)
		s.mu.Unlock()
	}()

	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.fail(&job, fmt.Sprintf("training panic: %v", r), started)
		}
	}()

	select {
	case s.slots <- struct{}{}:
	case <-ctx.Done():
		s.fail(&job, "training canceled before start", started)
		return
	}
	defer func() { <-s.slots }()

	if s.obs != nil {
		s.obs.ActiveTrainingJobs.Inc()
		defer s.obs.ActiveTrainingJobs.Dec()
	}

	step := func(status string, progress int) bool {
		if ctx.Err() != nil {
			s.fail(&job, "training canceled", started)
			return false
		}
		job.Status = status
		job.Progress = progress
		s.persist(&job)
		return true
	}

	if !step(StatusInitializing, 5) {
		return
	}

	if !step(StatusLoadingData, 10) {
		return
	}
	X, y, source, err := s.resolver.Resolve(job.DatasetPath)
	if err != nil {
		s.fail(&job, fmt.Sprintf("load dataset: %v", err), started)
		return
	}
	job.DataSource = source

	if !step(StatusFeatureEngineering, 30) {
		return
	}
	if err := validateMatrix(X, y); err != nil {
		s.fail(&job, fmt.Sprintf("validate features: %v", err), started)
		return
	}

	if !step(StatusPreprocessing, 40) {
		return
	}
	trainX, trainY, testX, testY, err := dataset.StratifiedSplit(X, y, s.testFraction, s.splitSeed)
	if err != nil {
		s.fail(&job, fmt.Sprintf("split dataset: %v", err), started)
		return
	}

	if !step(StatusTraining, 60) {
		return
	}
	pipeline := ml.NewPipeline(forestCfg)
	if err := pipeline.Fit(trainX, trainY); err != nil {
		s.fail(&job, fmt.Sprintf("fit model: %v", err), started)
		return
	}

	if !step(StatusEvaluating, 80) {
		return
	}
	yPred, err := pipeline.Predict(testX)
	if err != nil {
		s.fail(&job, fmt.Sprintf("evaluate model: %v", err), started)
		return
	}
	m := evaluation.Compute(testY, yPred, nil)
	job.Metrics = map[string]float64{
		"accuracy":  m.Accuracy,
		"precision": m.Precision,
		"recall":    m.Recall,
		"f1_score":  m.F1Score,
	}

	if !step(StatusSaving, 90) {
		return
	}
	now := time.Now().UTC()
	version := Version(job.ModelType, job.TrainingID, now)
	meta := ml.Metadata{
		Version:         version,
		ModelType:       job.ModelType,
		TrainedAt:       now,
		Features:        features.Names(),
		Hyperparameters: forestCfg,
		TrainingRows:    len(trainX),
		Accuracy:        m.Accuracy,
		Metrics:         job.Metrics,
	}
	if err := ml.SaveModel(s.modelsDir, meta, pipeline); err != nil {
		s.fail(&job, fmt.Sprintf("save model: %v", err), started)
		return
	}
	s.registry.Add(version, pipeline, meta)
	job.ModelVersion = version

	job.Status = StatusCompleted
	job.Progress = 100
	end := time.Now().UTC()
	job.EndTime = &end
	s.persist(&job)

	if s.obs != nil {
		s.obs.RecordTrainingOutcome(StatusCompleted, time.Since(started).Seconds())
		s.obs.ModelAccuracy.Observe(m.Accuracy)
		s.obs.LoadedModels.Set(float64(s.registry.Loaded()))
	}
	s.notifyWebhook(job)

	log.Info().
		Str("training_id", job.TrainingID).
		Str("model_version", version).
		Str("data_source", source).
		Int("training_rows", len(trainX)).
		Float64("accuracy", m.Accuracy).
		Dur("elapsed", time.Since(started)).
		Msg("training job completed")
}

func (s *Service) persist(job *storage.TrainingJob) {
	if err := s.store.SaveJob(*job); err != nil {
		log.Error().Err(err).Str("training_id", job.TrainingID).Msg("persist job transition")
	}
	s.publish(*job)
}

func (s *Service) fail(job *storage.TrainingJob, msg string, started time.Time) {
	job.Status = StatusFailed
	job.Error = msg
	end := time.Now().UTC()
	job.EndTime = &end
	s.persist(job)

	if s.obs != nil {
		s.obs.RecordTrainingOutcome(StatusFailed, time.Since(started).Seconds())
	}
	s.notifyWebhook(*job)

	log.Error().
		Str("training_id", job.TrainingID).
		Str("reason", msg).
		Msg("training job failed")
}

// validateMatrix checks the loaded dataset against the feature contract
// before any fitting happens.
func validateMatrix(X [][]float64, y []int) error {
	if len(X) == 0 {
		return fmt.Errorf("dataset is empty")
	}
	if len(X) != len(y) {
		return fmt.Errorf("feature rows (%d) do not match labels (%d)", len(X), len(y))
	}
	for i, row := range X {
		if len(row) != features.Count {
			return fmt.Errorf("row %d has %d features, want %d", i, len(row), features.Count)
		}
	}

	var positives int
	for _, label := range y {
		if label == 1 {
			positives++
		}
	}
	if positives == 0 || positives == len(y) {
		return fmt.Errorf("dataset holds a single class (%d of %d positive)", positives, len(y))
	}
	return nil
}
