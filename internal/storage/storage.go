// Package storage persists the delay model artifact and the training run ledger
// in a single BoltDB file.
//
// The training binary opens the store read-write; the prediction service opens
// it read-only so several service instances can share one model file.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const (
	artifactBucket = "artifact" // Bucket holding the serialized delay model
	runsBucket     = "runs"     // Bucket holding one record per training run

	artifactKey = "delay_model"
)

// ErrArtifactNotFound is returned by LoadArtifact when no model was saved.
var ErrArtifactNotFound = errors.New("storage: artifact not found")

// Store provides persistent storage for the model artifact using BoltDB.
type Store struct {
	db *bbolt.DB // BoltDB database instance
}

// New opens (or creates) the database file at path for reading and writing,
// creating parent directories and buckets as needed.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Create buckets
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(artifactBucket)); err != nil {
			return fmt.Errorf("create artifact bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(runsBucket)); err != nil {
			return fmt.Errorf("create runs bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// OpenReadOnly opens an existing database file without write access.
func OpenReadOnly(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection gracefully.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.db.Path()
}

// SaveArtifact replaces the stored model artifact.
func (s *Store) SaveArtifact(data []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(artifactBucket))
		return b.Put([]byte(artifactKey), data)
	})
}

// LoadArtifact returns a copy of the stored model artifact.
func (s *Store) LoadArtifact() ([]byte, error) {
	var data []byte

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(artifactBucket))
		if b == nil {
			return ErrArtifactNotFound
		}
		v := b.Get([]byte(artifactKey))
		if v == nil {
			return ErrArtifactNotFound
		}
		// v is only valid inside the transaction
		data = bytes.Clone(v)
		return nil
	})

	return data, err
}
