package storage

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"
)

// TrainingJob is the persisted record of one training run. It mirrors the
// in-memory job state so job status survives restarts.
type TrainingJob struct {
	TrainingID      string             `json:"training_id"`
	Status          string             `json:"status"`
	Progress        int                `json:"progress"`
	ModelType       string             `json:"model_type"`
	DatasetPath     string             `json:"dataset_path"`
	DataSource      string             `json:"data_source,omitempty"`
	Hyperparameters map[string]any     `json:"hyperparameters,omitempty"`
	StartTime       time.Time          `json:"start_time"`
	EndTime         *time.Time         `json:"end_time,omitempty"`
	Metrics         map[string]float64 `json:"metrics,omitempty"`
	ModelVersion    string             `json:"model_version,omitempty"`
	Error           string             `json:"error,omitempty"`
}

// SaveJob stores a training job record keyed by its id, overwriting any
// previous state for the same job.
func (s *Store) SaveJob(job TrainingJob) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(jobsBucket))

		data, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("marshal training job: %w", err)
		}
		return b.Put([]byte(job.TrainingID), data)
	})
}

// GetJob retrieves a training job record by id. The boolean reports
// whether the job exists.
func (s *Store) GetJob(id string) (TrainingJob, bool, error) {
	var job TrainingJob
	found := false

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(jobsBucket)).Get([]byte(id))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &job); err != nil {
			return fmt.Errorf("unmarshal training job %s: %w", id, err)
		}
		found = true
		return nil
	})
	return job, found, err
}

// PruneJobs deletes finished job records whose end time is before the
// cutoff and returns the number removed. Running jobs have no end time
// and are never pruned.
func (s *Store) PruneJobs(olderThan time.Time) (int, error) {
	removed := 0

	err := s.db.Update(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(jobsBucket)).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var job TrainingJob
			if err := json.Unmarshal(v, &job); err != nil {
				continue
			}
			if job.EndTime == nil || !job.EndTime.Before(olderThan) {
				continue
			}
			if err := c.Delete(); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	return removed, err
}

// ListJobs returns all stored training job records, newest first.
func (s *Store) ListJobs() ([]TrainingJob, error) {
	var jobs []TrainingJob

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(jobsBucket)).ForEach(func(_, v []byte) error {
			var job TrainingJob
			if err := json.Unmarshal(v, &job); err != nil {
				return nil // Skip malformed records
			}
			jobs = append(jobs, job)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].StartTime.After(jobs[j].StartTime) })
	return jobs, nil
}
