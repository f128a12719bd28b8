package timefit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.etcd.io/bbolt"
)

type (
	// Archiver persists a timeline's placed ranges outside redis for
	// explicit cold storage
	Archiver interface {
		Get(context.Context, string) ([]TimeRange, error)
		Put(context.Context, string, []TimeRange) error
		Delete(context.Context, string) error
	}

	// BoltArchiver stores archived timelines in a local bbolt file, one
	// key per timeline
	BoltArchiver struct {
		db *bbolt.DB
	}
)

var (
	// ErrArchiveNotFound indicates an archived timeline was not found
	ErrArchiveNotFound = errors.New("archived timeline not found")

	archiveBucket = []byte("timelines")
)

// NewBoltArchiver opens (creating if needed) a bbolt file for archived
// timelines
func NewBoltArchiver(path string) (*BoltArchiver, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(archiveBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &BoltArchiver{db: db}, nil
}

func (a *BoltArchiver) Close() error {
	return a.db.Close()
}

func (a *BoltArchiver) Get(
	_ context.Context, id string,
) ([]TimeRange, error) {
	var members []rangeMember
	err := a.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(archiveBucket).Get([]byte(id))
		if data == nil {
			return ErrArchiveNotFound
		}
		return json.Unmarshal(data, &members)
	})
	if err != nil {
		return nil, err
	}

	ranges := make([]TimeRange, len(members))
	for i, m := range members {
		ranges[i] = TimeRange{
			Start: time.UnixMicro(m.Start).UTC(),
			Stop:  time.UnixMicro(m.Stop).UTC(),
		}
	}
	return ranges, nil
}

func (a *BoltArchiver) Put(
	_ context.Context, id string, ranges []TimeRange,
) error {
	members := make([]rangeMember, len(ranges))
	for i, r := range ranges {
		members[i] = rangeMember{
			Start: r.Start.UnixMicro(),
			Stop:  r.Stop.UnixMicro(),
		}
	}

	data, err := json.Marshal(members)
	if err != nil {
		return err
	}

	return a.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(archiveBucket).Put([]byte(id), data)
	})
}

func (a *BoltArchiver) Delete(_ context.Context, id string) error {
	return a.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(archiveBucket).Delete([]byte(id))
	})
}
