// Package metrics provides Prometheus metrics collection for the burnout
// risk service. It defines and manages the prediction, training, evaluation
// and storage metrics exposed via the Prometheus metrics endpoint for
// monitoring and alerting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Prediction metrics
	PredictionsTotal  *prometheus.CounterVec // Predictions made, labeled by risk level
	PredictionErrors  prometheus.Counter     // Prediction requests that failed
	PredictionLatency prometheus.Histogram   // End-to-end prediction latency in seconds
	PredictionScores  prometheus.Histogram   // Distribution of predicted risk scores
	StubPredictions   prometheus.Counter     // Predictions served by the stub model

	// Training metrics
	TrainingJobsTotal  *prometheus.CounterVec // Finished training jobs, labeled by final status
	TrainingDuration   prometheus.Histogram   // End-to-end training job duration in seconds
	ActiveTrainingJobs prometheus.Gauge       // Training jobs currently running
	ModelAccuracy      prometheus.Histogram   // Holdout accuracy of newly trained models

	// Evaluation metrics
	EvaluationsTotal   prometheus.Counter   // Completed evaluation runs
	EvaluationDuration prometheus.Histogram // Evaluation run duration in seconds

	// Model registry metrics
	LoadedModels prometheus.Gauge // Model versions currently loaded
	ModelAge     prometheus.Gauge // Age of the newest model in seconds

	// Storage metrics
	HistoryRecords prometheus.Gauge // Prediction history records currently stored

	// System metrics
	ErrorsTotal prometheus.Counter // Total number of errors encountered
}

// New creates and registers all Prometheus metrics using the default registry.
// This is the standard way to create metrics for production use.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
// This allows for isolated metric collection in tests without affecting
// the global Prometheus registry.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		PredictionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Total number of burnout risk predictions by risk level",
		}, []string{"risk_level"}),
		PredictionErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "prediction_errors_total",
			Help: "Total number of failed prediction requests",
		}),
		PredictionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "prediction_latency_seconds",
			Help:    "Prediction latency in seconds (end-to-end)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}),
		PredictionScores: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "prediction_scores",
			Help:    "Distribution of predicted burnout risk scores",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		StubPredictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "stub_predictions_total",
			Help: "Total number of predictions served by the stub model",
		}),
		TrainingJobsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "training_jobs_total",
			Help: "Total number of finished training jobs by final status",
		}, []string{"status"}),
		TrainingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "training_duration_seconds",
			Help:    "Training job duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		ActiveTrainingJobs: factory.NewGauge(prometheus.GaugeOpts{
			Name: "active_training_jobs",
			Help: "Number of training jobs currently running",
		}),
		ModelAccuracy: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "model_accuracy",
			Help:    "Holdout accuracy of newly trained models",
			Buckets: []float64{0.5, 0.55, 0.6, 0.65, 0.7, 0.75, 0.8, 0.85, 0.9, 0.95, 1.0},
		}),
		EvaluationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "evaluations_total",
			Help: "Total number of completed model evaluations",
		}),
		EvaluationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "evaluation_duration_seconds",
			Help:    "Model evaluation duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		LoadedModels: factory.NewGauge(prometheus.GaugeOpts{
			Name: "loaded_models",
			Help: "Number of model versions currently loaded",
		}),
		ModelAge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "model_age_seconds",
			Help: "Age of the newest trained model in seconds",
		}),
		HistoryRecords: factory.NewGauge(prometheus.GaugeOpts{
			Name: "history_records",
			Help: "Number of prediction history records currently stored",
		}),
		ErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors encountered",
		}),
	}
}

// RecordPrediction updates the prediction instruments in one call.
func (m *Metrics) RecordPrediction(riskLevel string, score, seconds float64, stub bool) {
	m.PredictionsTotal.WithLabelValues(riskLevel).Inc()
	m.PredictionScores.Observe(score)
	m.PredictionLatency.Observe(seconds)
	if stub {
		m.StubPredictions.Inc()
	}
}

// RecordTrainingOutcome updates the training instruments when a job reaches
// a terminal status.
func (m *Metrics) RecordTrainingOutcome(status string, seconds float64) {
	m.TrainingJobsTotal.WithLabelValues(status).Inc()
	m.TrainingDuration.Observe(seconds)
}

// GetErrorRate calculates the current error rate from the default registry.
// Returns the ratio of failed predictions to all predictions, or 0 when
// nothing has been recorded yet.
func (m *Metrics) GetErrorRate() float64 {
	var totalPredictions, totalErrors float64

	metricFamilies, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return 0
	}

	for _, mf := range metricFamilies {
		switch *mf.Name {
		case "predictions_total":
			for _, metric := range mf.Metric {
				totalPredictions += *metric.Counter.Value
			}
		case "prediction_errors_total":
			for _, metric := range mf.Metric {
				totalErrors += *metric.Counter.Value
			}
		}
	}

	if totalPredictions == 0 {
		return 0
	}
	return totalErrors / totalPredictions
}
