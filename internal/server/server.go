// Package server exposes the burnout service over HTTP: training
// submission and polling, evaluation, risk prediction, model inspection
// and a WebSocket progress stream for running training jobs.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"burnout-radar/internal/dataset"
	"burnout-radar/internal/evaluation"
	"burnout-radar/internal/ml"
	"burnout-radar/internal/risk"
	"burnout-radar/internal/storage"
	"burnout-radar/internal/training"
)

// Config carries the API server wiring.
type Config struct {
	Port       int
	Training   *training.Service
	Evaluation *evaluation.Service
	Risk       *risk.Service
	Registry   *ml.Registry
	Store      *storage.Store
	Hub        *ProgressHub
}

// Server is the HTTP front for the three service operations plus the
// inspection endpoints.
type Server struct {
	training   *training.Service
	evaluation *evaluation.Service
	risk       *risk.Service
	registry   *ml.Registry
	store      *storage.Store
	hub        *ProgressHub
	server     *http.Server
	started    time.Time
}

// New builds the server and its route table. The hub may be nil when no
// progress streaming is wanted.
func New(cfg Config) *Server {
	s := &Server{
		training:   cfg.Training,
		evaluation: cfg.Evaluation,
		risk:       cfg.Risk,
		registry:   cfg.Registry,
		store:      cfg.Store,
		hub:        cfg.Hub,
		started:    time.Now(),
	}

	r := mux.NewRouter()
	r.Use(logRequests, limitBody)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/train", s.handleTrain).Methods("POST")
	api.HandleFunc("/train", s.handleListJobs).Methods("GET")
	api.HandleFunc("/train/{id}", s.handleTrainingStatus).Methods("GET")
	api.HandleFunc("/train/{id}/progress", s.handleProgress).Methods("GET")
	api.HandleFunc("/evaluate", s.handleEvaluate).Methods("POST")
	api.HandleFunc("/evaluations", s.handleListEvaluations).Methods("GET")
	api.HandleFunc("/evaluations/{id}", s.handleGetEvaluation).Methods("GET")
	api.HandleFunc("/predict", s.handlePredict).Methods("POST")
	api.HandleFunc("/predictions/{subject_id}", s.handleHistory).Methods("GET")
	api.HandleFunc("/models", s.handleListModels).Methods("GET")
	api.HandleFunc("/models/{version}", s.handleModelInfo).Methods("GET")
	r.HandleFunc("/health", s.handleHealth).Methods("GET")

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Handler returns the route table, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start begins serving HTTP requests and blocks until shutdown.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("starting API server")
	return s.server.ListenAndServe()
}

// Shutdown closes the progress hub and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.hub != nil {
		s.hub.Close()
	}
	return s.server.Shutdown(ctx)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("request handled")
	})
}

// maxBodyBytes caps request bodies. Prediction and training payloads
// are small JSON documents, so 1 MiB is generous.
const maxBodyBytes = 1 << 20

func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}

// decodeBody unmarshals the request body into v, writing the error
// response itself when decoding fails.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

type trainRequest struct {
	DatasetPath     string         `json:"dataset_path"`
	ModelType       string         `json:"model_type"`
	Hyperparameters map[string]any `json:"hyperparameters"`
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	var req trainRequest
	if !decodeBody(w, r, &req) {
		return
	}

	id, err := s.training.Train(training.Request{
		DatasetPath:     req.DatasetPath,
		ModelType:       req.ModelType,
		Hyperparameters: req.Hyperparameters,
	})
	if err != nil {
		if errors.Is(err, ml.ErrUnknownModelType) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"training_id": id,
		"status":      training.StatusStarted,
	})
}

func (s *Server) handleTrainingStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	job, err := s.training.Status(id)
	if err != nil {
		if errors.Is(err, training.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.training.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		writeError(w, http.StatusNotImplemented, "progress streaming is not enabled")
		return
	}
	id := mux.Vars(r)["id"]
	if _, err := s.training.Status(id); err != nil {
		if errors.Is(err, training.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.hub.Subscribe(w, r, func() (storage.TrainingJob, error) {
		return s.training.Status(id)
	})
}

type evaluateRequest struct {
	ModelVersion          string  `json:"model_version"`
	TestDatasetPath       string  `json:"test_dataset_path"`
	IncludeExplainability *bool   `json:"include_explainability"`
	TargetRecall          float64 `json:"target_recall"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	explain := req.IncludeExplainability == nil || *req.IncludeExplainability
	result, err := s.evaluation.Evaluate(evaluation.Params{
		ModelVersion:    req.ModelVersion,
		TestDatasetPath: req.TestDatasetPath,
		Explainability:  explain,
		TargetRecall:    req.TargetRecall,
	})
	if err != nil {
		switch {
		case errors.Is(err, ml.ErrModelNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, dataset.ErrUnsupportedFormat), errors.Is(err, dataset.ErrDataLoad):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListEvaluations(w http.ResponseWriter, r *http.Request) {
	rows, err := s.evaluation.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"evaluations": rows,
		"count":       len(rows),
	})
}

func (s *Server) handleGetEvaluation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	result, err := s.evaluation.Get(id)
	if err != nil {
		if errors.Is(err, evaluation.ErrEvaluationNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type predictRequest struct {
	SubjectID    string         `json:"subject_id"`
	Features     map[string]any `json:"features"`
	ModelVersion string         `json:"model_version"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SubjectID == "" {
		writeError(w, http.StatusBadRequest, "subject_id is required")
		return
	}

	record, err := s.risk.Predict(req.SubjectID, req.Features, req.ModelVersion)
	if err != nil {
		if errors.Is(err, ml.ErrModelNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	subjectID := mux.Vars(r)["subject_id"]

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	records, err := s.risk.History(subjectID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"subject_id":  subjectID,
		"predictions": records,
		"count":       len(records),
	})
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	models := s.risk.ListModels()
	writeJSON(w, http.StatusOK, map[string]any{
		"models": models,
		"count":  len(models),
	})
}

func (s *Server) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	version := mux.Vars(r)["version"]
	info, err := s.risk.ModelInfo(version)
	if err != nil {
		if errors.Is(err, ml.ErrModelNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	loaded := s.registry.Loaded()
	status := "ok"
	code := http.StatusOK
	if loaded == 0 {
		// Only the random stub would serve predictions.
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	historyCount := 0
	if s.store != nil {
		if n, err := s.store.CountPredictions(); err == nil {
			historyCount = n
		}
	}

	writeJSON(w, code, map[string]any{
		"status":          status,
		"models_loaded":   loaded,
		"history_records": historyCount,
		"uptime_seconds":  int(time.Since(s.started).Seconds()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("response encoding failed")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
