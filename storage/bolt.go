package storage

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/gob"
	"time"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"

	"github.com/mrsingh-rishi/voice-notes/model"
)

var (
	notesBucket = []byte("notes")
	usageBucket = []byte("token_usage")
)

// Bolt stores gob-encoded records in a bbolt file. Keys start with the
// uvarint length of the user id followed by the id itself, so a user's
// records share a prefix no other user's keys can start with.
type Bolt struct {
	db  *bbolt.DB
	now func() time.Time
}

func OpenBolt(path string) (*Bolt, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open bolt %s", path)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(notesBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(usageBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create buckets")
	}
	return &Bolt{db: db, now: time.Now}, nil
}

func userPrefix(userID string) []byte {
	return append(binary.AppendUvarint(nil, uint64(len(userID))), userID...)
}

func noteKey(userID, noteID string) []byte {
	return append(userPrefix(userID), noteID...)
}

func (b *Bolt) List(ctx context.Context, userID string) ([]model.Note, error) {
	var notes []model.Note
	prefix := userPrefix(userID)
	err := b.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(notesBucket).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var n model.Note
			if err := decodeBinary(v, &n); err != nil {
				return errors.Wrapf(err, "decode note %q", k)
			}
			notes = append(notes, n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	model.SortNewestFirst(notes)
	return notes, nil
}

func (b *Bolt) Insert(ctx context.Context, note model.Note) (model.Note, error) {
	out, err := b.InsertMany(ctx, []model.Note{note})
	if err != nil {
		return model.Note{}, err
	}
	return out[0], nil
}

func (b *Bolt) InsertMany(ctx context.Context, notes []model.Note) ([]model.Note, error) {
	out := make([]model.Note, 0, len(notes))
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(notesBucket)
		for _, n := range notes {
			n = prepare(n, b.now)
			data, err := encodeToBinary(n)
			if err != nil {
				return err
			}
			if err := bucket.Put(noteKey(n.UserID, n.ID), data); err != nil {
				return err
			}
			out = append(out, n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Bolt) Delete(ctx context.Context, userID, noteID string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(notesBucket).Delete(noteKey(userID, noteID))
	})
}

func (b *Bolt) AddUsage(ctx context.Context, usage model.TokenUsage) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(usageBucket)
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		data, err := encodeToBinary(usage)
		if err != nil {
			return err
		}
		key := binary.BigEndian.AppendUint64(userPrefix(usage.UserID), seq)
		return bucket.Put(key, data)
	})
}

func (b *Bolt) ListUsage(ctx context.Context, userID string) ([]model.TokenUsage, error) {
	var out []model.TokenUsage
	prefix := userPrefix(userID)
	err := b.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(usageBucket).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var u model.TokenUsage
			if err := decodeBinary(v, &u); err != nil {
				return err
			}
			out = append(out, u)
		}
		return nil
	})
	return out, err
}

func (b *Bolt) Close() error {
	return b.db.Close()
}

func encodeToBinary(data interface{}) ([]byte, error) {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(data)
	return buf.Bytes(), err
}

func decodeBinary(data []byte, target interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(target)
}
