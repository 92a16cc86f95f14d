package dataset

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// SourceSynthetic is the source name reported when rows were generated
// rather than loaded.
const SourceSynthetic = "synthetic"

// Resolver turns a dataset path from a request into feature rows and
// labels. An empty path, a missing file or a failed load falls back to
// synthetic data only when SyntheticOK is set; otherwise the error
// propagates to the caller.
type Resolver struct {
	Fetcher          *Fetcher
	TempDir          string
	SyntheticOK      bool
	SyntheticSamples int
	SyntheticSeed    int64
}

// Resolve loads the dataset at path. The returned source is the path that
// was actually read, or SourceSynthetic for generated rows.
func (r *Resolver) Resolve(path string) (X [][]float64, y []int, source string, err error) {
	if path == "" {
		if !r.SyntheticOK {
			return nil, nil, "", fmt.Errorf("no dataset path given and synthetic fallback is disabled")
		}
		X, y = r.synthesize()
		return X, y, SourceSynthetic, nil
	}

	local := path
	if IsRemote(path) {
		fetcher := r.Fetcher
		if fetcher == nil {
			fetcher = NewFetcher(0)
		}
		local, err = fetcher.Fetch(path, r.TempDir)
		if err != nil {
			if !r.SyntheticOK {
				return nil, nil, "", err
			}
			log.Warn().Err(err).Str("url", path).Msg("Dataset fetch failed, falling back to synthetic data")
			X, y = r.synthesize()
			return X, y, SourceSynthetic, nil
		}
	}

	X, y, err = LoadLabeled(local, r.SyntheticOK)
	if err != nil {
		if !r.SyntheticOK {
			return nil, nil, "", err
		}
		log.Warn().Err(err).Str("path", path).Msg("Dataset load failed, falling back to synthetic data")
		X, y = r.synthesize()
		return X, y, SourceSynthetic, nil
	}
	return X, y, path, nil
}

func (r *Resolver) synthesize() ([][]float64, []int) {
	n := r.SyntheticSamples
	if n <= 0 {
		n = 1000
	}
	log.Info().Int("samples", n).Int64("seed", r.SyntheticSeed).Msg("Generating synthetic training data")
	return Synthesize(n, r.SyntheticSeed)
}
