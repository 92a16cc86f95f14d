package ml

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// LatestVersion is the alias callers use to request the most recently
// loaded model.
const LatestVersion = "latest"

// Model is a resolved classifier with its identity.
type Model struct {
	Classifier Classifier
	Version    string
	Meta       Metadata
	Stub       bool
}

type loadedModel struct {
	pipeline *Pipeline
	meta     Metadata
	loadedAt time.Time
}

// Registry owns the loaded-model table. It is an explicit handle passed to
// the services that need model resolution; models are immutable once
// loaded, so concurrent reads are unrestricted.
type Registry struct {
	mu     sync.RWMutex
	dir    string
	models map[string]*loadedModel
	order  []string
	stub   *Stub
}

// NewRegistry scans dir and loads every persisted model, oldest first, so
// the most recently trained model resolves as latest.
func NewRegistry(dir string) (*Registry, error) {
	r := &Registry{
		dir:    dir,
		models: make(map[string]*loadedModel),
		stub:   NewStub(time.Now().UnixNano()),
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create models dir: %w", err)
	}
	if _, err := r.Rescan(); err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("model scan failed, starting empty")
	}
	return r, nil
}

// Rescan loads any model blobs on disk that are not yet in memory.
// Returns the number of newly loaded models.
func (r *Registry) Rescan() (int, error) {
	versions, err := ListVersionFiles(r.dir)
	if err != nil {
		return 0, err
	}

	type candidate struct {
		version string
		meta    Metadata
	}
	var fresh []candidate

	r.mu.RLock()
	for _, v := range versions {
		if _, ok := r.models[v]; ok {
			continue
		}
		meta, err := loadMetadata(r.dir, v)
		if err != nil {
			meta = Metadata{Version: v}
		}
		fresh = append(fresh, candidate{version: v, meta: meta})
	}
	r.mu.RUnlock()

	sort.Slice(fresh, func(i, j int) bool {
		if fresh[i].meta.TrainedAt.Equal(fresh[j].meta.TrainedAt) {
			return fresh[i].version < fresh[j].version
		}
		return fresh[i].meta.TrainedAt.Before(fresh[j].meta.TrainedAt)
	})

	added := 0
	for _, c := range fresh {
		pipeline, meta, err := LoadModel(r.dir, c.version)
		if err != nil {
			log.Warn().Err(err).Str("version", c.version).Msg("skipping unloadable model")
			continue
		}
		r.Add(c.version, pipeline, meta)
		added++
	}
	return added, nil
}

// Add registers a pipeline under version and makes it the latest.
func (r *Registry) Add(version string, p *Pipeline, meta Metadata) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.models[version]; !exists {
		r.order = append(r.order, version)
	}
	r.models[version] = &loadedModel{pipeline: p, meta: meta, loadedAt: time.Now()}
	log.Info().Str("version", version).Str("model_type", meta.ModelType).Msg("model registered")
}

// Resolve maps a version request to a loaded model. "latest" (or empty)
// returns the most recently loaded model, falling back to the random stub
// when nothing is loaded; an explicit unknown version is an error.
func (r *Registry) Resolve(version string) (Model, error) {
	r.mu.RLock()
	if version == "" || version == LatestVersion {
		if len(r.order) == 0 {
			r.mu.RUnlock()
			return Model{Classifier: r.stub, Version: StubVersion, Stub: true}, nil
		}
		version = r.order[len(r.order)-1]
	}
	if m, ok := r.models[version]; ok {
		r.mu.RUnlock()
		return Model{Classifier: m.pipeline, Version: version, Meta: m.meta}, nil
	}
	r.mu.RUnlock()

	// Not in memory; the blob may have appeared since the last scan.
	pipeline, meta, err := LoadModel(r.dir, version)
	if err != nil {
		return Model{}, fmt.Errorf("%w: %s", ErrModelNotFound, version)
	}
	r.Add(version, pipeline, meta)
	return Model{Classifier: pipeline, Version: version, Meta: meta}, nil
}

// Info returns the metadata for a loaded version.
func (r *Registry) Info(version string) (Metadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if version == "" || version == LatestVersion {
		if len(r.order) == 0 {
			return Metadata{}, fmt.Errorf("%w: no models loaded", ErrModelNotFound)
		}
		version = r.order[len(r.order)-1]
	}
	m, ok := r.models[version]
	if !ok {
		return Metadata{}, fmt.Errorf("%w: %s", ErrModelNotFound, version)
	}
	return m.meta, nil
}

// List returns metadata for every loaded model, load order preserved.
func (r *Registry) List() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Metadata, 0, len(r.order))
	for _, v := range r.order {
		out = append(out, r.models[v].meta)
	}
	return out
}

// Latest returns the most recently loaded version name, or empty.
func (r *Registry) Latest() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.order) == 0 {
		return ""
	}
	return r.order[len(r.order)-1]
}

// Loaded returns the number of loaded models.
func (r *Registry) Loaded() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.models)
}

// CleanupOldVersions deletes all but the newest keep model blobs and
// sidecars, both on disk and in memory. Returns the removed versions.
func (r *Registry) CleanupOldVersions(keep int) ([]string, error) {
	if keep < 1 {
		keep = 1
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.order) <= keep {
		return nil, nil
	}

	doomed := make([]string, len(r.order)-keep)
	copy(doomed, r.order[:len(r.order)-keep])

	var removed []string
	for _, v := range doomed {
		modelPath := filepath.Join(r.dir, v+modelExt)
		if err := os.Remove(modelPath); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("remove %s: %w", modelPath, err)
		}
		metaPath := filepath.Join(r.dir, v+metadataExt)
		if err := os.Remove(metaPath); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("version", v).Msg("metadata sidecar not removed")
		}
		delete(r.models, v)
		removed = append(removed, v)
	}
	r.order = r.order[len(doomed):]

	log.Info().Strs("versions", removed).Int("kept", keep).Msg("old model versions removed")
	return removed, nil
}
