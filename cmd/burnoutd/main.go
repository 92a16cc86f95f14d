package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"burnout-radar/internal/cfg"
	"burnout-radar/internal/dataset"
	"burnout-radar/internal/evaluation"
	"burnout-radar/internal/metrics"
	"burnout-radar/internal/ml"
	"burnout-radar/internal/risk"
	"burnout-radar/internal/server"
	"burnout-radar/internal/storage"
	"burnout-radar/internal/training"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg(".env file not loaded")
	}

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	setupLogging(c)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	mw := metrics.NewWrapper(m)

	store, err := storage.New(c.DataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("storage initialization failed")
	}
	defer store.Close()

	registry, err := ml.NewRegistry(c.ModelsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("model registry initialization failed")
	}
	m.LoadedModels.Set(float64(registry.Loaded()))
	updateModelAge(registry, m)

	resolver := &dataset.Resolver{
		Fetcher:          dataset.NewFetcher(c.RESTTimeout),
		TempDir:          filepath.Join(c.DataPath, "downloads"),
		SyntheticOK:      c.SyntheticFallback,
		SyntheticSamples: c.SyntheticSamples,
		SyntheticSeed:    c.SyntheticSeed,
	}

	hub := server.NewProgressHub()
	trainSvc := training.New(store, registry, resolver, m, training.Config{
		ModelsDir:         c.ModelsPath,
		DefaultModelType:  c.DefaultModelType,
		MaxConcurrentJobs: c.MaxConcurrentJobs,
		TestFraction:      c.TestFraction,
		SplitSeed:         c.SplitSeed,
		WebhookURL:        c.CompletionWebhookURL,
		WebhookTimeout:    c.RESTTimeout,
		OnUpdate:          hub.Publish,
	})
	evalSvc := evaluation.New(registry, store, m, evaluation.Config{
		TargetRecall: c.TargetRecall,
		Costs: evaluation.CostModel{
			FalseNegativeCost:   c.FalseNegativeCost,
			FalsePositiveCost:   c.FalsePositiveCost,
			HighRiskThreshold:   c.HighRiskThreshold,
			MediumRiskThreshold: c.MediumRiskThreshold,
		},
		SyntheticFallback: c.SyntheticFallback,
		FetchTimeout:      c.RESTTimeout,
		TempDir:           filepath.Join(c.DataPath, "downloads"),
	})
	riskSvc := risk.New(registry, store, mw, risk.Config{
		Thresholds: risk.Thresholds{
			LowMax:    c.RiskLowMax,
			MediumMax: c.RiskMediumMax,
			HighMax:   c.RiskHighMax,
		},
	})

	srv := server.New(server.Config{
		Port:       c.APIPort,
		Training:   trainSvc,
		Evaluation: evalSvc,
		Risk:       riskSvc,
		Registry:   registry,
		Store:      store,
		Hub:        hub,
	})

	startMetricsServer(ctx, c)
	if maintenance := startMaintenance(c, store, registry, m); maintenance != nil {
		defer maintenance.Stop()
	}

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("API server failed")
			cancel()
		}
	}()

	log.Info().
		Int("api_port", c.APIPort).
		Int("metrics_port", c.MetricsPort).
		Str("models_path", c.ModelsPath).
		Int("models_loaded", registry.Loaded()).
		Msg("burnout radar started")

	waitForShutdown(ctx, cancel, srv, trainSvc)
}

func setupLogging(c cfg.Settings) {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || c.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

// startMetricsServer starts the Prometheus metrics HTTP server.
func startMetricsServer(ctx context.Context, c cfg.Settings) {
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})
		mux.Handle("/metrics", promhttp.Handler())

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", c.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		go func() {
			<-ctx.Done()
			if err := server.Shutdown(context.Background()); err != nil {
				log.Error().Err(err).Msg("failed to shutdown metrics server")
			}
		}()

		log.Info().Str("addr", server.Addr).Msg("starting metrics server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

// startMaintenance schedules the periodic housekeeping run: history
// pruning, model rescan and old-version cleanup.
func startMaintenance(c cfg.Settings, store *storage.Store, registry *ml.Registry, m *metrics.Metrics) *cron.Cron {
	if c.MaintenanceSchedule == "" {
		log.Info().Msg("maintenance schedule disabled")
		return nil
	}

	runner := cron.New()
	_, err := runner.AddFunc(c.MaintenanceSchedule, func() {
		runMaintenance(c, store, registry, m)
	})
	if err != nil {
		log.Error().Err(err).Str("schedule", c.MaintenanceSchedule).Msg("invalid maintenance schedule, housekeeping disabled")
		return nil
	}
	runner.Start()
	log.Info().Str("schedule", c.MaintenanceSchedule).Msg("maintenance scheduled")
	return runner
}

func runMaintenance(c cfg.Settings, store *storage.Store, registry *ml.Registry, m *metrics.Metrics) {
	log.Info().Msg("maintenance run started")

	if c.HistoryRetentionDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -c.HistoryRetentionDays)
		removed, err := store.PruneHistory(cutoff)
		if err != nil {
			log.Error().Err(err).Msg("history pruning failed")
		} else if removed > 0 {
			log.Info().Int("removed", removed).Time("cutoff", cutoff).Msg("old predictions pruned")
		}
	}

	if c.JobRetentionDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -c.JobRetentionDays)
		removed, err := store.PruneJobs(cutoff)
		if err != nil {
			log.Error().Err(err).Msg("job pruning failed")
		} else if removed > 0 {
			log.Info().Int("removed", removed).Time("cutoff", cutoff).Msg("old training jobs pruned")
		}
	}

	if added, err := registry.Rescan(); err != nil {
		log.Warn().Err(err).Msg("model rescan failed")
	} else if added > 0 {
		log.Info().Int("added", added).Msg("new models loaded from disk")
	}

	if c.ModelKeepVersions > 0 {
		removed, err := registry.CleanupOldVersions(c.ModelKeepVersions)
		if err != nil {
			log.Error().Err(err).Msg("model cleanup failed")
		} else if len(removed) > 0 {
			log.Info().Strs("versions", removed).Msg("old model versions removed")
		}
	}

	m.LoadedModels.Set(float64(registry.Loaded()))
	if n, err := store.CountPredictions(); err == nil {
		m.HistoryRecords.Set(float64(n))
	}
	updateModelAge(registry, m)

	log.Info().Msg("maintenance run finished")
}

func updateModelAge(registry *ml.Registry, m *metrics.Metrics) {
	meta, err := registry.Info(ml.LatestVersion)
	if err != nil || meta.TrainedAt.IsZero() {
		return
	}
	m.ModelAge.Set(time.Since(meta.TrainedAt).Seconds())
}

// waitForShutdown waits for shutdown signals, then stops the API server
// and drains running training jobs.
func waitForShutdown(ctx context.Context, cancel context.CancelFunc, srv *server.Server, trainSvc *training.Service) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info().Msg("shutdown signal received")
	case <-ctx.Done():
		log.Info().Msg("context canceled")
	}

	log.Info().Msg("shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("API server shutdown failed")
	}

	drainCtx, drainCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer drainCancel()
	if err := trainSvc.Shutdown(drainCtx); err != nil {
		log.Warn().Err(err).Msg("training jobs did not drain in time")
	}

	log.Info().Msg("shutdown complete")
}
