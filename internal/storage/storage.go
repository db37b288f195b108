// Package storage provides an optional BoltDB audit store for the
// grip pipeline: extracted feature vectors per training run, and live
// prediction records from the serving loop. Both training and serving
// operate normally with storage disabled; the store exists for
// offline inspection and retraining datasets.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const (
	trainingBucket    = "training_samples" // feature vectors recorded per training run
	predictionsBucket = "predictions"      // live prediction records
)

// TrainingSampleRecord is one extracted feature vector with its label,
// tagged by the training run that produced it.
type TrainingSampleRecord struct {
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`
	Features  []float64 `json:"features"`
	Label     int       `json:"label"`
}

// PredictionRecord is one live classification outcome.
type PredictionRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	IsClosed   bool      `json:"is_closed"`
	Confidence float64   `json:"confidence"`
}

// Store wraps the BoltDB database. Operations are safe for concurrent
// use.
type Store struct {
	db *bbolt.DB
}

// New opens (or creates) the database under dataPath and ensures the
// buckets exist.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, "grip-data.db")

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(trainingBucket)); err != nil {
			return fmt.Errorf("create training bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(predictionsBucket)); err != nil {
			return fmt.Errorf("create predictions bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordTrainingSample stores one extracted feature vector. Satisfies
// the training pipeline's AuditSink.
func (s *Store) RecordTrainingSample(runID string, features []float64, label int) error {
	rec := TrainingSampleRecord{
		RunID:     runID,
		Timestamp: time.Now().UTC(),
		Features:  features,
		Label:     label,
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(trainingBucket))

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal training sample: %w", err)
		}

		key, err := nextSeqKey(b, rec.RunID)
		if err != nil {
			return err
		}
		return b.Put(key, data)
	})
}

// RecordPrediction stores one live prediction outcome.
func (s *Store) RecordPrediction(rec PredictionRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(predictionsBucket))

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal prediction: %w", err)
		}

		key := fmt.Sprintf("grip_%020d", rec.Timestamp.UnixNano())
		return b.Put([]byte(key), data)
	})
}

// GetTrainingSamples returns all samples recorded for one training
// run, in insertion order. Malformed records are skipped.
func (s *Store) GetTrainingSamples(runID string) ([]TrainingSampleRecord, error) {
	var records []TrainingSampleRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(trainingBucket))
		c := b.Cursor()

		prefix := []byte(runID + "_")
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var rec TrainingSampleRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				continue
			}
			records = append(records, rec)
		}
		return nil
	})

	return records, err
}

// GetPredictionsInRange returns prediction records whose timestamps
// fall inside [start, end].
func (s *Store) GetPredictionsInRange(start, end time.Time) ([]PredictionRecord, error) {
	var records []PredictionRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(predictionsBucket))
		c := b.Cursor()

		startKey := []byte(fmt.Sprintf("grip_%020d", start.UnixNano()))
		endKey := []byte(fmt.Sprintf("grip_%020d", end.UnixNano()))

		for k, v := c.Seek(startKey); k != nil && bytes.Compare(k, endKey) <= 0; k, v = c.Next() {
			var rec PredictionRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				continue
			}
			records = append(records, rec)
		}
		return nil
	})

	return records, err
}

// nextSeqKey builds an insertion-ordered key runID_seq using the
// bucket sequence, so samples written in the same nanosecond never
// collide.
func nextSeqKey(b *bbolt.Bucket, runID string) ([]byte, error) {
	seq, err := b.NextSequence()
	if err != nil {
		return nil, fmt.Errorf("bucket sequence: %w", err)
	}
	return []byte(fmt.Sprintf("%s_%020d", runID, seq)), nil
}
