// Command trainer fits a burnout model outside the service: load or
// synthesize a dataset, train, report held-out metrics and persist the
// model blob so the service picks it up on its next registry scan. With
// -preprocess-out it instead cleans the dataset and exits.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"burnout-radar/internal/dataset"
	"burnout-radar/internal/evaluation"
	"burnout-radar/internal/features"
	"burnout-radar/internal/ml"
	"burnout-radar/internal/training"
)

func main() {
	var (
		dataPath      = flag.String("data", "", "Path to a CSV or JSON training dataset (empty: synthetic data)")
		modelType     = flag.String("model-type", "comprehensive", "Model type: baseline, advanced, comprehensive")
		samples       = flag.Int("samples", 1000, "Synthetic sample count when no dataset is given")
		seed          = flag.Int64("seed", 42, "Synthetic generator seed")
		modelsDir     = flag.String("models", "models", "Output directory for the trained model")
		testFraction  = flag.Float64("test-fraction", 0.2, "Held-out fraction for evaluation")
		splitSeed     = flag.Int64("split-seed", 42, "Train/test split seed")
		targetRecall  = flag.Float64("target-recall", 0.85, "Recall target for the evaluation summary")
		logLevel      = flag.String("log-level", "info", "Log level: debug, info, warn, error")
		preprocessOut = flag.String("preprocess-out", "", "Preprocess -data into this path and exit without training")
		scale         = flag.Bool("scale", false, "Standardize feature columns during preprocessing")
	)
	flag.Parse()

	// Setup logging
	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if *preprocessOut != "" {
		if *dataPath == "" {
			log.Fatal().Msg("-preprocess-out requires -data")
		}
		p := &dataset.Preprocessor{Scale: *scale}
		report, err := p.Run(*dataPath, *preprocessOut)
		if err != nil {
			log.Fatal().Err(err).Msg("preprocessing failed")
		}
		fmt.Println("=== Preprocessing Report ===")
		fmt.Printf("Original Rows:      %d\n", report.OriginalRows)
		fmt.Printf("Processed Rows:     %d\n", report.ProcessedRows)
		fmt.Printf("Duplicates Removed: %d\n", report.DuplicatesRemoved)
		fmt.Printf("Missing Filled:     %d\n", report.MissingFilled)
		fmt.Printf("Features Added:     %d\n", report.FeaturesAdded)
		fmt.Printf("Output:             %s\n", report.OutputPath)
		return
	}

	source := *dataPath
	if source == "" {
		source = fmt.Sprintf("synthetic (%d samples, seed %d)", *samples, *seed)
	}
	fmt.Println("=== Burnout Model Trainer ===")
	fmt.Printf("Dataset: %s\n", source)
	fmt.Printf("Model Type: %s\n", *modelType)
	fmt.Printf("Models Dir: %s\n", *modelsDir)
	fmt.Println("=============================")

	forestCfg, err := ml.ConfigForModelType(*modelType, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid model type")
	}

	resolver := &dataset.Resolver{
		TempDir:          os.TempDir(),
		SyntheticOK:      true,
		SyntheticSamples: *samples,
		SyntheticSeed:    *seed,
	}
	X, y, loadedFrom, err := resolver.Resolve(*dataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("dataset load failed")
	}
	fmt.Printf("Loaded %d samples from %s\n", len(X), loadedFrom)

	trainX, trainY, testX, testY, err := dataset.StratifiedSplit(X, y, *testFraction, *splitSeed)
	if err != nil {
		log.Fatal().Err(err).Msg("train/test split failed")
	}

	pipeline := ml.NewPipeline(forestCfg)
	start := time.Now()
	if err := pipeline.Fit(trainX, trainY); err != nil {
		log.Fatal().Err(err).Msg("training failed")
	}
	fmt.Printf("Trained %d trees in %s\n", forestCfg.NumTrees, time.Since(start).Round(time.Millisecond))

	yPred, err := pipeline.Predict(testX)
	if err != nil {
		log.Fatal().Err(err).Msg("holdout prediction failed")
	}
	proba, err := pipeline.PredictProba(testX)
	if err != nil {
		log.Fatal().Err(err).Msg("holdout probability estimation failed")
	}

	m := evaluation.Compute(testY, yPred, proba)
	summary := evaluation.Summarize(m, *targetRecall)

	fmt.Println("\n=== Held-Out Metrics ===")
	fmt.Printf("Test Samples: %d\n", len(testY))
	fmt.Printf("Accuracy:     %.3f\n", m.Accuracy)
	fmt.Printf("Precision:    %.3f\n", m.Precision)
	fmt.Printf("Recall:       %.3f\n", m.Recall)
	fmt.Printf("F1 Score:     %.3f\n", m.F1Score)
	fmt.Printf("ROC-AUC:      %.3f\n", m.ROCAUC)
	fmt.Printf("Grade:        %s (%s)\n", summary.PerformanceGrade, summary.Recommendation)
	for _, s := range summary.Strengths {
		fmt.Printf("  + %s\n", s)
	}
	for _, w := range summary.Weaknesses {
		fmt.Printf("  - %s\n", w)
	}

	now := time.Now().UTC()
	version := training.Version(*modelType, uuid.New().String(), now)
	meta := ml.Metadata{
		Version:         version,
		ModelType:       *modelType,
		TrainedAt:       now,
		Features:        features.Names(),
		Hyperparameters: forestCfg,
		TrainingRows:    len(trainX),
		Accuracy:        m.Accuracy,
		Metrics: map[string]float64{
			"accuracy":  m.Accuracy,
			"precision": m.Precision,
			"recall":    m.Recall,
			"f1_score":  m.F1Score,
		},
	}
	if err := ml.SaveModel(*modelsDir, meta, pipeline); err != nil {
		log.Fatal().Err(err).Msg("model save failed")
	}
	fmt.Printf("\nModel saved as %s\n", version)
}
