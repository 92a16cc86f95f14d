package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.etcd.io/bbolt"
)

// Factor is one contributing risk factor attached to a stored prediction.
type Factor struct {
	Value       float64 `json:"value"`
	Impact      string  `json:"impact"`
	Description string  `json:"description"`
}

// PredictionRecord is one stored risk assessment for a subject.
// DefaultedFields names the inputs that were absent or non-numeric and
// scored as zero.
type PredictionRecord struct {
	PredictionID    string            `json:"prediction_id"`
	SubjectID       string            `json:"subject_id"`
	RiskLevel       string            `json:"risk_level"`
	RiskScore       float64           `json:"risk_score"`
	Confidence      float64           `json:"confidence"`
	Factors         map[string]Factor `json:"factors"`
	Recommendations []string          `json:"recommendations"`
	ModelVersion    string            `json:"model_version"`
	DefaultedFields []string          `json:"defaulted_fields,omitempty"`
	Timestamp       time.Time         `json:"prediction_date"`
}

// SavePrediction stores a prediction record in the predictions bucket.
// The record is stored with a key format of "subject_timestamp" for
// efficient per-subject history queries.
func (s *Store) SavePrediction(record PredictionRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(predictionsBucket))

		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal prediction record: %w", err)
		}

		key := fmt.Sprintf("%s_%d", record.SubjectID, record.Timestamp.UnixNano())
		return b.Put([]byte(key), data)
	})
}

// GetPredictions retrieves the prediction history for a subject, newest
// first. A limit of 0 or less returns the whole history.
func (s *Store) GetPredictions(subjectID string, limit int) ([]PredictionRecord, error) {
	var records []PredictionRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(predictionsBucket))
		c := b.Cursor()

		prefix := []byte(subjectID + "_")
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var record PredictionRecord
			if err := json.Unmarshal(v, &record); err != nil {
				continue // Skip malformed records
			}
			records = append(records, record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Keys scan oldest first; callers want the most recent entries.
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// CountPredictions returns the number of stored prediction records.
func (s *Store) CountPredictions() (int, error) {
	count := 0
	err := s.db.View(func(tx *bbolt.Tx) error {
		count = tx.Bucket([]byte(predictionsBucket)).Stats().KeyN
		return nil
	})
	return count, err
}

// PruneHistory deletes prediction records older than the cutoff across all
// subjects and returns the number removed.
func (s *Store) PruneHistory(olderThan time.Time) (int, error) {
	cutoff := olderThan.UnixNano()
	removed := 0

	err := s.db.Update(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(predictionsBucket)).Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			ts, ok := keyTimestamp(k)
			if !ok {
				continue
			}
			if ts < cutoff {
				if err := c.Delete(); err != nil {
					return err
				}
				removed++
			}
		}
		return nil
	})
	return removed, err
}

// keyTimestamp extracts the nanosecond timestamp from a "subject_ts" key.
// Subject ids may themselves contain underscores, so the split uses the
// last one.
func keyTimestamp(key []byte) (int64, bool) {
	s := string(key)
	idx := strings.LastIndexByte(s, '_')
	if idx < 0 || idx == len(s)-1 {
		return 0, false
	}
	ts, err := strconv.ParseInt(s[idx+1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return ts, true
}
