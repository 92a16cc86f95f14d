package ml

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func fittedPipeline(t *testing.T) (*Pipeline, [][]float64, []int) {
	t.Helper()
	X, y := separableSet(150, 17)
	p := NewPipeline(ForestConfig{NumTrees: 15, MaxDepth: 5, Seed: 42})
	if err := p.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	return p, X, y
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	p, X, _ := fittedPipeline(t)

	meta := Metadata{
		Version:      "adv_12345678_20250101_120000",
		ModelType:    "advanced",
		TrainedAt:    time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		Features:     []string{"a", "b", "c", "d"},
		TrainingRows: 150,
		Accuracy:     0.95,
	}
	if err := SaveModel(dir, meta, p); err != nil {
		t.Fatalf("SaveModel failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, meta.Version+".model")); err != nil {
		t.Errorf("model blob not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, meta.Version+".json")); err != nil {
		t.Errorf("metadata sidecar not written: %v", err)
	}

	loaded, gotMeta, err := LoadModel(dir, meta.Version)
	if err != nil {
		t.Fatalf("LoadModel failed: %v", err)
	}
	if gotMeta.ModelType != "advanced" {
		t.Errorf("metadata model_type = %q, want advanced", gotMeta.ModelType)
	}
	if gotMeta.TrainingRows != 150 {
		t.Errorf("metadata training_rows = %d, want 150", gotMeta.TrainingRows)
	}

	// The loaded pipeline must reproduce the original's probabilities.
	want, err := p.PredictProba(X[:20])
	if err != nil {
		t.Fatalf("original PredictProba failed: %v", err)
	}
	got, err := loaded.PredictProba(X[:20])
	if err != nil {
		t.Fatalf("loaded PredictProba failed: %v", err)
	}
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("row %d probabilities diverged after reload: %v vs %v", i, want[i], got[i])
		}
	}
}

func TestSaveModelUntrained(t *testing.T) {
	p := NewPipeline(DefaultConfig())
	err := SaveModel(t.TempDir(), Metadata{Version: "v1"}, p)
	if err == nil {
		t.Error("expected error saving untrained pipeline, got nil")
	}
}

func TestLoadModelMissing(t *testing.T) {
	if _, _, err := LoadModel(t.TempDir(), "no_such_version"); err == nil {
		t.Error("expected error for missing model, got nil")
	}
}

func TestLoadModelWithoutSidecar(t *testing.T) {
	dir := t.TempDir()
	p, _, _ := fittedPipeline(t)
	meta := Metadata{Version: "orphan_model", ModelType: "baseline"}
	if err := SaveModel(dir, meta, p); err != nil {
		t.Fatalf("SaveModel failed: %v", err)
	}
	if err := os.Remove(filepath.Join(dir, "orphan_model.json")); err != nil {
		t.Fatalf("removing sidecar: %v", err)
	}

	loaded, gotMeta, err := LoadModel(dir, "orphan_model")
	if err != nil {
		t.Fatalf("LoadModel without sidecar failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("loaded pipeline is nil")
	}
	if gotMeta.Version != "orphan_model" {
		t.Errorf("fallback metadata version = %q, want orphan_model", gotMeta.Version)
	}
}

func TestListVersionFiles(t *testing.T) {
	dir := t.TempDir()
	p, _, _ := fittedPipeline(t)
	for _, v := range []string{"v_a", "v_b"} {
		if err := SaveModel(dir, Metadata{Version: v}, p); err != nil {
			t.Fatalf("SaveModel %s failed: %v", v, err)
		}
	}

	versions, err := ListVersionFiles(dir)
	if err != nil {
		t.Fatalf("ListVersionFiles failed: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("expected 2 versions, got %d: %v", len(versions), versions)
	}
}
