// Package storage provides persistent data storage for the burnout risk
// service. It uses BoltDB as the underlying storage engine to store
// prediction history, training job records and evaluation results.
//
// The package provides thread-safe operations for storing and retrieving
// records with efficient prefix queries and automatic bucket management.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const (
	predictionsBucket = "predictions" // Bucket name for per-subject prediction history
	jobsBucket        = "jobs"        // Bucket name for training job records
	evaluationsBucket = "evaluations" // Bucket name for evaluation results
)

// Store provides persistent storage for service data using BoltDB.
// It manages one bucket per record type and provides efficient
// subject-prefixed queries over the prediction history.
type Store struct {
	db *bbolt.DB // BoltDB database instance
}

// New creates a new storage instance with the specified data path.
// It initializes the BoltDB database and creates necessary buckets.
// Returns an error if the database cannot be opened or buckets cannot be created.
func New(dataPath string) (*Store, error) {
	if err := os.MkdirAll(dataPath, 0o750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	dbPath := filepath.Join(dataPath, "burnout-data.db")

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Create buckets
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{predictionsBucket, jobsBucket, evaluationsBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create %s bucket: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection gracefully.
// It should be called when the storage is no longer needed to ensure
// proper cleanup of database resources.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
