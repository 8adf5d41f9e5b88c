package activity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const activityBucket = "activities"

// DB defines the interface for activity log persistence
type DB interface {
	// SaveRecord stores an activity record, replacing any record for the
	// same user, day, and kind
	SaveRecord(record *Record) error

	// ListRecords returns all records for a user
	ListRecords(userID string) ([]*Record, error)

	// ListDates returns the activity dates for a user, optionally filtered
	// by kind (empty kind means all kinds)
	ListDates(userID string, kind Kind) ([]time.Time, error)

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(activityBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// NewBoltDBFrom wraps an already-open bbolt handle so the activity log can
// share a database file with other stores
func NewBoltDBFrom(db *bbolt.DB) (*BoltDB, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(activityBucket))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating bucket: %w", err)
	}
	return &BoltDB{db: db}, nil
}

// recordKey keys records by user, day, and kind so logging the same action
// twice in one day overwrites rather than duplicates
func recordKey(userID string, date time.Time, kind Kind) []byte {
	return []byte(fmt.Sprintf("%s/%s/%s", userID, date.Format("2006-01-02"), kind))
}

func userPrefix(userID string) []byte {
	return []byte(userID + "/")
}

// SaveRecord stores an activity record
func (b *BoltDB) SaveRecord(record *Record) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(activityBucket))
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshaling record: %w", err)
		}
		return bucket.Put(recordKey(record.UserID, record.Date, record.Kind), data)
	})
}

// ListRecords returns all records for a user
func (b *BoltDB) ListRecords(userID string) ([]*Record, error) {
	records := make([]*Record, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(activityBucket)).Cursor()
		prefix := userPrefix(userID)
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var record Record
			if err := json.Unmarshal(v, &record); err != nil {
				return fmt.Errorf("unmarshaling record: %w", err)
			}
			records = append(records, &record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ListDates returns the activity dates for a user, optionally filtered by kind
func (b *BoltDB) ListDates(userID string, kind Kind) ([]time.Time, error) {
	records, err := b.ListRecords(userID)
	if err != nil {
		return nil, err
	}
	dates := make([]time.Time, 0, len(records))
	for _, r := range records {
		if kind != "" && r.Kind != kind {
			continue
		}
		dates = append(dates, r.Date)
	}
	return dates, nil
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
