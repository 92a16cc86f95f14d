package dataset

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// IsRemote reports whether the dataset path is an http(s) URL.
func IsRemote(p string) bool {
	return strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://")
}

// Fetcher downloads remote datasets to local files so the extension
// dispatch in Load applies to them unchanged.
type Fetcher struct {
	rest *resty.Client
}

func NewFetcher(timeout time.Duration) *Fetcher {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(30 * time.Second)
	}
	return &Fetcher{rest: r}
}

// Fetch downloads rawURL into dir, keeping the URL path's extension so
// the loader can dispatch on it. Returns the local file path.
func (f *Fetcher) Fetch(rawURL, dir string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse dataset url: %w", err)
	}
	ext := path.Ext(u.Path)
	if ext == "" {
		ext = ".csv"
	}

	resp, err := f.rest.R().Get(rawURL)
	if err != nil {
		return "", fmt.Errorf("fetch dataset: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("fetch dataset: %s returned %d", rawURL, resp.StatusCode())
	}

	tmp, err := os.CreateTemp(dir, "dataset-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create dataset temp file: %w", err)
	}
	if _, err := tmp.Write(resp.Body()); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write dataset temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close dataset temp file: %w", err)
	}

	log.Info().
		Str("url", rawURL).
		Str("file", tmp.Name()).
		Int("bytes", len(resp.Body())).
		Msg("Dataset downloaded")
	return tmp.Name(), nil
}
