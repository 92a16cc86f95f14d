package dataset

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Load reads raw records from a dataset file. The extension selects the
// parser: .csv expects a header row, .json accepts either an array of
// objects or a stream of concatenated objects.
func Load(path string) ([]map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return loadCSV(f)
	case ".json":
		return loadJSON(f)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func loadCSV(r io.Reader) ([]map[string]any, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading csv header: %v", ErrDataLoad, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records []map[string]any
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading csv row %d: %v", ErrDataLoad, len(records)+2, err)
		}
		rec := make(map[string]any, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = strings.TrimSpace(row[i])
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func loadJSON(r io.Reader) ([]map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading json: %v", ErrDataLoad, err)
	}

	var records []map[string]any
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}

	// Not an array; accept a stream of objects, one after another.
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var rec map[string]any
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("%w: decoding json record %d: %v", ErrDataLoad, len(records)+1, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
