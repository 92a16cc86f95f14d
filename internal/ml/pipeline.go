package ml

import (
	"fmt"

	"burnout-radar/internal/common"
)

// Pipeline couples a StandardScaler with a Forest so callers never see
// unscaled feature space. This is the unit that gets trained, persisted,
// and served.
type Pipeline struct {
	scaler *StandardScaler
	forest *Forest
}

// NewPipeline returns an untrained pipeline for the given hyperparameters.
func NewPipeline(cfg ForestConfig) *Pipeline {
	return &Pipeline{
		scaler: NewStandardScaler(),
		forest: NewForest(cfg),
	}
}

// Fit learns scaling statistics from X and trains the forest on the
// standardized rows.
func (p *Pipeline) Fit(X [][]float64, y []int) error {
	scaled, err := p.scaler.FitTransform(X)
	if err != nil {
		return fmt.Errorf("fit scaler: %w", err)
	}
	if err := p.forest.Fit(scaled, y); err != nil {
		return fmt.Errorf("fit forest: %w", err)
	}
	return nil
}

// Predict returns the predicted class per row.
func (p *Pipeline) Predict(X [][]float64) ([]int, error) {
	scaled, err := p.scaler.Transform(X)
	if err != nil {
		return nil, err
	}
	return p.forest.Predict(scaled)
}

// PredictProba returns per-row class probabilities.
func (p *Pipeline) PredictProba(X [][]float64) ([][2]float64, error) {
	scaled, err := p.scaler.Transform(X)
	if err != nil {
		return nil, err
	}
	return p.forest.PredictProba(scaled)
}

// Config returns the forest hyperparameters.
func (p *Pipeline) Config() ForestConfig { return p.forest.Config() }

// ConfigForModelType resolves a model type name and caller-supplied
// hyperparameter overrides into a concrete ForestConfig.
func ConfigForModelType(modelType string, overrides map[string]any) (ForestConfig, error) {
	var cfg ForestConfig
	switch modelType {
	case common.ModelTypeBaseline:
		cfg = BaselineConfig()
	case common.ModelTypeAdvanced, common.ModelTypeComprehensive:
		cfg = AdvancedConfig()
	default:
		return ForestConfig{}, fmt.Errorf("%w: %q", ErrUnknownModelType, modelType)
	}

	for key, val := range overrides {
		n, ok := toInt(val)
		if !ok {
			continue
		}
		switch key {
		case "num_trees", "n_estimators":
			cfg.NumTrees = n
		case "max_depth":
			cfg.MaxDepth = n
		case "min_samples_split":
			cfg.MinSamplesSplit = n
		case "min_samples_leaf":
			cfg.MinSamplesLeaf = n
		case "max_features":
			cfg.MaxFeatures = n
		case "seed", "random_state":
			cfg.Seed = int64(n)
		}
	}
	return cfg, nil
}

func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		return int(x), true
	case float32:
		return int(x), true
	default:
		return 0, false
	}
}
