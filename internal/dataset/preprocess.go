package dataset

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"

	"burnout-radar/internal/features"
)

// Report summarizes one preprocessing run.
type Report struct {
	OriginalRows      int    `json:"original_rows"`
	ProcessedRows     int    `json:"processed_rows"`
	DuplicatesRemoved int    `json:"duplicates_removed"`
	MissingFilled     int    `json:"missing_filled"`
	FeaturesAdded     int    `json:"features_added"`
	OutputPath        string `json:"output_path"`
}

// Preprocessor cleans a raw dataset, engineers the composite features and
// writes the result for later training runs. Cleaning drops duplicate
// rows and median-imputes missing feature values.
type Preprocessor struct {
	// Scale standardizes every feature column after engineering.
	Scale bool
}

// Run preprocesses inputPath into outputPath. The output extension picks
// the writer (.json, anything else CSV).
func (p *Preprocessor) Run(inputPath, outputPath string) (*Report, error) {
	log.Info().Str("input", inputPath).Msg("Preprocessing dataset")

	records, err := Load(inputPath)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s has no rows", ErrDataLoad, inputPath)
	}

	names := features.Names()
	vals := make([][]float64, len(records))
	present := make([][]bool, len(records))
	for i, rec := range records {
		vals[i] = make([]float64, len(names))
		present[i] = make([]bool, len(names))
		for j, name := range names {
			raw, ok := rec[name]
			if !ok {
				continue
			}
			if v, numeric := features.ToFloat(raw); numeric {
				vals[i][j] = v
				present[i][j] = true
			}
		}
	}
	labels, hasLabels := extractLabels(records)

	filled := imputeMedian(vals, present)
	vals, labels, dupes := dedupe(vals, labels)

	for i := range vals {
		vals[i] = append(vals[i], features.Composites(vals[i])...)
	}
	columns := append(features.Names(), features.CompositeNames()...)

	if p.Scale {
		standardize(vals)
	}

	if err := Save(outputPath, columns, vals, labels, hasLabels); err != nil {
		return nil, err
	}

	report := &Report{
		OriginalRows:      len(records),
		ProcessedRows:     len(vals),
		DuplicatesRemoved: dupes,
		MissingFilled:     filled,
		FeaturesAdded:     len(features.CompositeNames()),
		OutputPath:        outputPath,
	}
	log.Info().
		Int("rows", report.ProcessedRows).
		Int("duplicates_removed", dupes).
		Int("missing_filled", filled).
		Str("output", outputPath).
		Msg("Preprocessing completed")
	return report, nil
}

func extractLabels(records []map[string]any) ([]int, bool) {
	labels := make([]int, len(records))
	present := make([]bool, len(records))
	has := false
	for i, rec := range records {
		raw, ok := rec[LabelColumn]
		if !ok {
			continue
		}
		if v, numeric := features.ToFloat(raw); numeric {
			if v > 0.5 {
				labels[i] = 1
			}
			present[i] = true
			has = true
		}
	}
	if !has {
		return labels, false
	}

	// Rows missing the label take the mode of the present ones.
	ones, total := 0, 0
	for i, p := range present {
		if p {
			total++
			ones += labels[i]
		}
	}
	mode := 0
	if ones*2 > total {
		mode = 1
	}
	for i, p := range present {
		if !p {
			labels[i] = mode
		}
	}
	return labels, true
}

func imputeMedian(vals [][]float64, present [][]bool) int {
	if len(vals) == 0 {
		return 0
	}
	cols := len(vals[0])
	filled := 0
	column := make([]float64, 0, len(vals))
	for j := 0; j < cols; j++ {
		column = column[:0]
		for i := range vals {
			if present[i][j] {
				column = append(column, vals[i][j])
			}
		}
		med := median(column)
		for i := range vals {
			if !present[i][j] {
				vals[i][j] = med
				filled++
			}
		}
	}
	return filled
}

func median(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	s := make([]float64, len(v))
	copy(s, v)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

func dedupe(vals [][]float64, labels []int) ([][]float64, []int, int) {
	seen := make(map[string]struct{}, len(vals))
	keptV := make([][]float64, 0, len(vals))
	keptY := make([]int, 0, len(labels))
	for i, row := range vals {
		key := rowKey(row, labels[i])
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keptV = append(keptV, row)
		keptY = append(keptY, labels[i])
	}
	return keptV, keptY, len(vals) - len(keptV)
}

func rowKey(row []float64, label int) string {
	var b strings.Builder
	for _, v := range row {
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		b.WriteByte(',')
	}
	b.WriteString(strconv.Itoa(label))
	return b.String()
}

func standardize(vals [][]float64) {
	if len(vals) == 0 {
		return
	}
	cols := len(vals[0])
	column := make([]float64, len(vals))
	for j := 0; j < cols; j++ {
		for i := range vals {
			column[i] = vals[i][j]
		}
		mean := stat.Mean(column, nil)
		std := stat.PopStdDev(column, nil)
		for i := range vals {
			if std > 0 {
				vals[i][j] = (vals[i][j] - mean) / std
			} else {
				vals[i][j] = vals[i][j] - mean
			}
		}
	}
}

// Save writes rows to path, picking the writer by extension (.json,
// anything else CSV). When hasLabels is true a trailing label column is
// appended to every row.
func Save(path string, columns []string, vals [][]float64, labels []int, hasLabels bool) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return saveJSON(path, columns, vals, labels, hasLabels)
	default:
		// CSV is the default output format.
		return saveCSV(path, columns, vals, labels, hasLabels)
	}
}

func saveCSV(path string, columns []string, vals [][]float64, labels []int, hasLabels bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{}, columns...)
	if hasLabels {
		header = append(header, LabelColumn)
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	row := make([]string, 0, len(header))
	for i, vec := range vals {
		row = row[:0]
		for _, v := range vec {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if hasLabels {
			row = append(row, strconv.Itoa(labels[i]))
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

func saveJSON(path string, columns []string, vals [][]float64, labels []int, hasLabels bool) error {
	out := make([]map[string]any, len(vals))
	for i, vec := range vals {
		rec := make(map[string]any, len(columns)+1)
		for j, col := range columns {
			rec[col] = vec[j]
		}
		if hasLabels {
			rec[LabelColumn] = labels[i]
		}
		out[i] = rec
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
