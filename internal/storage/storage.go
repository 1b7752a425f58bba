// Package storage provides persistent run history for the fraud pipeline.
// It uses BoltDB as the underlying storage engine to store best-model
// checkpoints and per-epoch evaluation rounds.
//
// The package provides thread-safe operations for appending and retrieving
// epoch-ordered records with efficient range queries and automatic bucket
// management.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"fraudpipe/internal/scoring"

	"go.etcd.io/bbolt"
)

const (
	checkpointsBucket = "checkpoints" // Bucket name for best-model checkpoints
	roundsBucket      = "rounds"      // Bucket name for evaluation round history
)

// Checkpoint is a persisted snapshot of the external model's state, saved
// whenever a round improves on the best F-beta seen so far. The state blob
// is opaque to this pipeline.
type Checkpoint struct {
	Epoch   int             `json:"epoch"`
	FBeta   float64         `json:"f_beta"`
	SavedAt time.Time       `json:"saved_at"`
	State   json.RawMessage `json:"state"`
}

// Store provides persistent storage for run history using BoltDB.
type Store struct {
	db *bbolt.DB // BoltDB database instance
}

// New creates a new storage instance with the specified data path.
// It initializes the BoltDB database and creates necessary buckets.
// Returns an error if the database cannot be opened or buckets cannot be created.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, "fraudpipe-runs.db")

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Create buckets
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(checkpointsBucket)); err != nil {
			return fmt.Errorf("create checkpoints bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(roundsBucket)); err != nil {
			return fmt.Errorf("create rounds bucket: %w", err)
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
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveCheckpoint stores a best-model checkpoint keyed by zero-padded epoch,
// so cursor iteration walks checkpoints in training order.
func (s *Store) SaveCheckpoint(cp Checkpoint) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(checkpointsBucket))

		data, err := json.Marshal(cp)
		if err != nil {
			return fmt.Errorf("marshal checkpoint: %w", err)
		}

		return b.Put(epochKey(cp.Epoch), data)
	})
}

// LatestCheckpoint returns the checkpoint with the highest epoch, or nil
// when no checkpoint has been saved yet.
func (s *Store) LatestCheckpoint() (*Checkpoint, error) {
	var cp *Checkpoint

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(checkpointsBucket)).Cursor()
		k, v := c.Last()
		if k == nil {
			return nil
		}

		var latest Checkpoint
		if err := json.Unmarshal(v, &latest); err != nil {
			return fmt.Errorf("unmarshal checkpoint: %w", err)
		}
		cp = &latest
		return nil
	})

	return cp, err
}

// AppendRound stores one evaluation round keyed by zero-padded epoch.
func (s *Store) AppendRound(r scoring.Round) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(roundsBucket))

		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal round: %w", err)
		}

		return b.Put(epochKey(r.Epoch), data)
	})
}

// Rounds retrieves evaluation rounds with epochs in [from, to], in epoch
// order. Malformed records are skipped.
func (s *Store) Rounds(from, to int) ([]scoring.Round, error) {
	var rounds []scoring.Round

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(roundsBucket)).Cursor()

		startKey := epochKey(from)
		endKey := epochKey(to)

		for k, v := c.Seek(startKey); k != nil && bytes.Compare(k, endKey) <= 0; k, v = c.Next() {
			var r scoring.Round
			if err := json.Unmarshal(v, &r); err != nil {
				continue // Skip malformed records
			}
			rounds = append(rounds, r)
		}

		return nil
	})

	return rounds, err
}

func epochKey(epoch int) []byte {
	return []byte(fmt.Sprintf("%010d", epoch))
}
