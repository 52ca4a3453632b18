package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/koperasi/internal/model"
	"github.com/boltdb/bolt"
)

var (
	classificationBucket = []byte("classification_logs")
	overrideBucket       = []byte("manual_override_logs")
)

// keyTimeLayout sorts lexically in time order.
const keyTimeLayout = "2006-01-02T15:04:05.000000000Z"

// Ensure BoltStore implements Store interface.
var _ Store = (*BoltStore)(nil)

// BoltStore is a single-file ledger used when the SQLite database is not
// available. Keys are UTC timestamp + entry id, so cursor seeks give range
// queries.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens or creates a bolt ledger at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt ledger: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{classificationBucket, overrideBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the bolt file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// AppendClassification implements Store.
func (s *BoltStore) AppendClassification(_ context.Context, entry *model.ClassificationLogEntry) error {
	value, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode classification log: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(classificationBucket).Put(entryKey(entry.Timestamp, entry.ID), value)
	})
}

// AppendManualOverride implements Store. Both rows are written in one bolt
// transaction.
func (s *BoltStore) AppendManualOverride(_ context.Context, entry *model.ManualOverrideLogEntry) error {
	override, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode manual override log: %w", err)
	}
	classification := entry.AsClassification()
	row, err := json.Marshal(&classification)
	if err != nil {
		return fmt.Errorf("failed to encode classification log: %w", err)
	}

	key := entryKey(entry.Timestamp, entry.ID)
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(overrideBucket).Put(key, override); err != nil {
			return err
		}
		return tx.Bucket(classificationBucket).Put(key, row)
	})
}

// ClassificationLogs implements Store; the range is inclusive.
func (s *BoltStore) ClassificationLogs(ctx context.Context, start, end time.Time) ([]model.ClassificationLogEntry, error) {
	var entries []model.ClassificationLogEntry
	err := s.scan(ctx, classificationBucket, start, end, func(v []byte) error {
		var e model.ClassificationLogEntry
		if err := json.Unmarshal(v, &e); err != nil {
			return fmt.Errorf("failed to decode classification log: %w", err)
		}
		entries = append(entries, e)
		return nil
	})
	return entries, err
}

// ManualOverrideLogs implements Store; the range is inclusive.
func (s *BoltStore) ManualOverrideLogs(ctx context.Context, start, end time.Time) ([]model.ManualOverrideLogEntry, error) {
	var entries []model.ManualOverrideLogEntry
	err := s.scan(ctx, overrideBucket, start, end, func(v []byte) error {
		var e model.ManualOverrideLogEntry
		if err := json.Unmarshal(v, &e); err != nil {
			return fmt.Errorf("failed to decode manual override log: %w", err)
		}
		entries = append(entries, e)
		return nil
	})
	return entries, err
}

func (s *BoltStore) scan(ctx context.Context, bucket []byte, start, end time.Time, fn func([]byte) error) error {
	if end.Before(start) {
		return fmt.Errorf("end %v is before start %v", end, start)
	}

	lo := []byte(start.UTC().Format(keyTimeLayout))
	hi := []byte(end.UTC().Format(keyTimeLayout))

	return s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucket).Cursor()
		for k, v := c.Seek(lo); k != nil; k, v = c.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if bytes.Compare(k[:len(hi)], hi) > 0 {
				break
			}
			if err := fn(v); err != nil {
				return err
			}
		}
		return nil
	})
}

func entryKey(ts time.Time, id string) []byte {
	return []byte(ts.UTC().Format(keyTimeLayout) + "/" + id)
}
