package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

// TrainingRun records one execution of the training binary.
type TrainingRun struct {
	ID              string        `json:"id"`
	ModelID         string        `json:"model_id"`
	StartedAt       time.Time     `json:"started_at"`
	Duration        time.Duration `json:"duration"`
	DataPath        string        `json:"data_path"`
	Engine          string        `json:"engine"`
	Rows            int           `json:"rows"`
	Positives       int           `json:"positives"`
	ScalePosWeight  float64       `json:"scale_pos_weight"`
	HighSeasonShare float64       `json:"high_season_share"`
}

// runKey orders runs by start time; the id keeps keys unique.
func runKey(ts time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%020d_%s", ts.UnixNano(), id))
}

// StoreRun appends a training run to the ledger.
func (s *Store) StoreRun(run TrainingRun) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(runsBucket))

		data, err := json.Marshal(run)
		if err != nil {
			return fmt.Errorf("marshal training run: %w", err)
		}

		return b.Put(runKey(run.StartedAt, run.ID), data)
	})
}

// GetRuns returns runs started within [start, end], oldest first.
func (s *Store) GetRuns(start, end time.Time) ([]TrainingRun, error) {
	var runs []TrainingRun

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(runsBucket))
		if b == nil {
			return nil
		}

		c := b.Cursor()
		startKey := []byte(fmt.Sprintf("%020d", start.UnixNano()))
		// "`" sorts after "_", so every id at end's timestamp is included
		endKey := []byte(fmt.Sprintf("%020d`", end.UnixNano()))

		for k, v := c.Seek(startKey); k != nil && bytes.Compare(k, endKey) <= 0; k, v = c.Next() {
			var run TrainingRun
			if err := json.Unmarshal(v, &run); err != nil {
				continue // Skip malformed records
			}
			runs = append(runs, run)
		}
		return nil
	})

	return runs, err
}

// RecentRuns returns up to n runs, newest first.
func (s *Store) RecentRuns(n int) ([]TrainingRun, error) {
	var runs []TrainingRun

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(runsBucket))
		if b == nil {
			return nil
		}

		c := b.Cursor()
		for k, v := c.Last(); k != nil && len(runs) < n; k, v = c.Prev() {
			var run TrainingRun
			if err := json.Unmarshal(v, &run); err != nil {
				continue
			}
			runs = append(runs, run)
		}
		return nil
	})

	return runs, err
}
