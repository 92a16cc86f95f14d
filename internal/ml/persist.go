package ml

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	modelExt    = ".model"
	metadataExt = ".json"
)

// Metadata is the JSON sidecar written next to each persisted model blob.
type Metadata struct {
	Version         string             `json:"version"`
	ModelType       string             `json:"model_type"`
	TrainedAt       time.Time          `json:"trained_at"`
	Features        []string           `json:"features"`
	Hyperparameters ForestConfig       `json:"hyperparameters"`
	TrainingRows    int                `json:"training_rows"`
	Accuracy        float64            `json:"accuracy"`
	Metrics         map[string]float64 `json:"metrics,omitempty"`
}

// modelBlob is the gob wire form of a fitted pipeline.
type modelBlob struct {
	Config       ForestConfig
	FeatureCount int
	ScalerMeans  []float64
	ScalerStds   []float64
	Trees        []*treeNode
}

// SaveModel persists a fitted pipeline as a gob blob plus metadata sidecar
// under dir, keyed by meta.Version.
func SaveModel(dir string, meta Metadata, p *Pipeline) error {
	if !p.forest.trained {
		return ErrNotTrained
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create models dir: %w", err)
	}

	blob := modelBlob{
		Config:       p.forest.cfg,
		FeatureCount: p.forest.featureCount,
		ScalerMeans:  p.scaler.means,
		ScalerStds:   p.scaler.stds,
		Trees:        p.forest.trees,
	}

	modelPath := filepath.Join(dir, meta.Version+modelExt)
	f, err := os.OpenFile(modelPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create model file: %w", err)
	}
	if err := gob.NewEncoder(f).Encode(blob); err != nil {
		f.Close()
		return fmt.Errorf("encode model: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close model file: %w", err)
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	metaPath := filepath.Join(dir, meta.Version+metadataExt)
	if err := os.WriteFile(metaPath, data, 0o600); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// LoadModel reads a persisted pipeline and its metadata by version.
func LoadModel(dir, version string) (*Pipeline, Metadata, error) {
	modelPath := filepath.Join(dir, version+modelExt)
	f, err := os.Open(modelPath)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("open model %s: %w", version, err)
	}
	defer f.Close()

	var blob modelBlob
	if err := gob.NewDecoder(f).Decode(&blob); err != nil {
		return nil, Metadata{}, fmt.Errorf("decode model %s: %w", version, err)
	}

	p := &Pipeline{
		scaler: &StandardScaler{means: blob.ScalerMeans, stds: blob.ScalerStds, fitted: true},
		forest: &Forest{
			cfg:          blob.Config,
			trees:        blob.Trees,
			featureCount: blob.FeatureCount,
			trained:      true,
		},
	}

	meta, err := loadMetadata(dir, version)
	if err != nil {
		// A blob without its sidecar is still servable.
		meta = Metadata{Version: version, TrainedAt: time.Now().UTC()}
	}
	return p, meta, nil
}

func loadMetadata(dir, version string) (Metadata, error) {
	data, err := os.ReadFile(filepath.Join(dir, version+metadataExt))
	if err != nil {
		return Metadata{}, err
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return meta, nil
}

// ListVersionFiles returns the version names of all model blobs in dir,
// sorted by file name.
func ListVersionFiles(dir string) ([]string, error) {
	pattern := filepath.Join(dir, "*"+modelExt)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	versions := make([]string, 0, len(matches))
	for _, m := range matches {
		base := filepath.Base(m)
		versions = append(versions, base[:len(base)-len(modelExt)])
	}
	return versions, nil
}
