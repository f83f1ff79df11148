package gff3

import (
	"fmt"
	"os"

	"github.com/boltdb/bolt"
)

// BoltStore is a TempStore backed by a Bolt database in the platform
// temp directory. The file is exclusively owned and removed on Close.
type BoltStore struct {
	*diskStore
}

// NewBoltStore creates a fresh Bolt-backed TempStore. maxResident
// bounds the live under-construction index; pass 0 for the default.
func NewBoltStore(maxResident int) (*BoltStore, error) {
	f, err := os.CreateTemp("", "gff3-boltstore-*.db")
	if err != nil {
		return nil, fmt.Errorf("create temp store: %w", err)
	}
	path := f.Name()
	f.Close()

	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("open temp store %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{bucketUC, bucketOut} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		os.Remove(path)
		return nil, fmt.Errorf("init temp store %s: %w", path, err)
	}
	return &BoltStore{diskStore: newDiskStore(&boltKV{db: db, path: path}, maxResident)}, nil
}

type boltKV struct {
	db   *bolt.DB
	path string
}

func (b *boltKV) put(bucket string, key, val []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucket)).Put(key, val)
	})
}

func (b *boltKV) get(bucket string, key []byte) ([]byte, error) {
	var out []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucket)).Get(key)
		if v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	return out, err
}

func (b *boltKV) del(bucket string, key []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucket)).Delete(key)
	})
}

func (b *boltKV) first(bucket string) ([]byte, []byte, error) {
	var k, v []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		ck, cv := tx.Bucket([]byte(bucket)).Cursor().First()
		if ck != nil {
			k = append([]byte(nil), ck...)
			v = append([]byte(nil), cv...)
		}
		return nil
	})
	return k, v, err
}

func (b *boltKV) close() error {
	err := b.db.Close()
	if rmErr := os.Remove(b.path); rmErr != nil && err == nil {
		err = rmErr
	}
	return err
}
