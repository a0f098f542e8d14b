// Package checkpoint persists sampler state, so an interrupted run
// can be resumed.
package checkpoint

import (
	"encoding/json"
	"time"

	"github.com/op/go-logging"

	bolt "go.etcd.io/bbolt"
)

// log is the global logging variable.
var log = logging.MustGetLogger("checkpoint")

// MAIN is the bucket name for all checkpoints.
var MAIN = []byte("main")

// State stores a snapshot of a sampler run: one position and
// log-probability per walker (a single-chain sampler stores one of
// each).
type State struct {
	Iter    int         `json:"iter"`
	LogProb []float64   `json:"logProb"`
	Walkers [][]float64 `json:"walkers"`
	Final   bool        `json:"final"`
}

// CheckpointIO saves and loads sampler state from a bolt database.
type CheckpointIO struct {
	db      *bolt.DB
	key     []byte
	last    time.Time
	seconds float64
}

// NewCheckpointIO creates a new CheckpointIO saving under the given
// key at most once per seconds.
func NewCheckpointIO(db *bolt.DB, key []byte, seconds float64) *CheckpointIO {
	return &CheckpointIO{
		db:      db,
		key:     key,
		seconds: seconds,
	}
}

// Save serializes the state into the database.
func (s *CheckpointIO) Save(state *State) error {
	// Even if saving fails, we do not want to run this code too often.
	s.SetNow()
	data, err := json.Marshal(state)
	if err != nil {
		log.Error("Error serializing checkpoint", err)
		return err
	}
	err = SaveData(s.db, s.key, data)
	if err != nil {
		log.Error("Error saving checkpoint", err)
	}
	return err
}

// Load returns the stored state or nil if there is none.
func (s *CheckpointIO) Load() (*State, error) {
	b, err := LoadData(s.db, s.key)
	if err != nil || b == nil {
		return nil, err
	}

	var state *State
	err = json.Unmarshal(b, &state)
	if err != nil {
		return nil, err
	}
	if state == nil || len(state.Walkers) == 0 {
		return nil, nil
	}

	if state.Final {
		log.Noticef("Found finished sampling checkpoint (iter=%v)", state.Iter)
	} else {
		log.Noticef("Found unfinished sampling checkpoint (iter=%v)", state.Iter)
	}
	return state, nil
}

// Old returns true if the last checkpoint save was too long ago.
func (s *CheckpointIO) Old() bool {
	return time.Since(s.last).Seconds() > s.seconds
}

// SetNow sets the last checkpoint time to now.
func (s *CheckpointIO) SetNow() {
	s.last = time.Now()
}

// SaveData saves a value in the bolt database.
func SaveData(db *bolt.DB, key []byte, data []byte) error {
	if db == nil {
		return nil
	}
	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(MAIN)
		if err != nil {
			return err
		}
		return b.Put(key, data)
	})
}

// LoadData loads a value from the bolt database.
func LoadData(db *bolt.DB, key []byte) ([]byte, error) {
	var data []byte
	if db == nil {
		return nil, nil
	}
	err := db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(MAIN)
		if b == nil {
			return nil
		}
		v := b.Get(key)
		if v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}
