package storage

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"
)

// EvaluationRecord is the stored envelope for one evaluation run. Payload
// holds the full evaluation result document; the summary fields are
// duplicated so listings do not decode every payload.
type EvaluationRecord struct {
	EvaluationID     string          `json:"evaluation_id"`
	ModelVersion     string          `json:"model_version"`
	EvaluationDate   time.Time       `json:"evaluation_date"`
	Accuracy         float64         `json:"accuracy"`
	PerformanceLevel string          `json:"performance_level"`
	Payload          json.RawMessage `json:"payload"`
}

// EvaluationSummary is one row in the evaluation listing.
type EvaluationSummary struct {
	EvaluationID     string    `json:"evaluation_id"`
	ModelVersion     string    `json:"model_version"`
	EvaluationDate   time.Time `json:"evaluation_date"`
	Accuracy         float64   `json:"accuracy"`
	PerformanceLevel string    `json:"performance_level"`
}

// SaveEvaluation stores an evaluation record keyed by its id.
func (s *Store) SaveEvaluation(record EvaluationRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(evaluationsBucket))

		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal evaluation record: %w", err)
		}
		return b.Put([]byte(record.EvaluationID), data)
	})
}

// GetEvaluation retrieves an evaluation record by id. The boolean reports
// whether the evaluation exists.
func (s *Store) GetEvaluation(id string) (EvaluationRecord, bool, error) {
	var record EvaluationRecord
	found := false

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(evaluationsBucket)).Get([]byte(id))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &record); err != nil {
			return fmt.Errorf("unmarshal evaluation %s: %w", id, err)
		}
		found = true
		return nil
	})
	return record, found, err
}

// ListEvaluations returns summary rows for all stored evaluations, newest
// first.
func (s *Store) ListEvaluations() ([]EvaluationSummary, error) {
	var summaries []EvaluationSummary

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(evaluationsBucket)).ForEach(func(_, v []byte) error {
			var record EvaluationRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return nil // Skip malformed records
			}
			summaries = append(summaries, EvaluationSummary{
				EvaluationID:     record.EvaluationID,
				ModelVersion:     record.ModelVersion,
				EvaluationDate:   record.EvaluationDate,
				Accuracy:         record.Accuracy,
				PerformanceLevel: record.PerformanceLevel,
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].EvaluationDate.After(summaries[j].EvaluationDate)
	})
	return summaries, nil
}
