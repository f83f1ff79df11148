package gff3

import (
	"fmt"
	"os"

	"github.com/bmatsuo/lmdb-go/lmdb"
)

// LMDBStore is a TempStore backed by an LMDB environment in the
// platform temp directory, removed on Close. Same semantics as
// BoltStore; LMDB trades crash safety settings for write speed on the
// short-lived spill workload.
type LMDBStore struct {
	*diskStore
}

const initialMapSize = 1 << 30

// NewLMDBStore creates a fresh LMDB-backed TempStore. maxResident
// bounds the live under-construction index; pass 0 for the default.
func NewLMDBStore(maxResident int) (*LMDBStore, error) {
	dir, err := os.MkdirTemp("", "gff3-lmdbstore-")
	if err != nil {
		return nil, fmt.Errorf("create temp store: %w", err)
	}
	env, err := newEnv(dir)
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("open temp store %s: %w", dir, err)
	}

	k := &lmdbKV{env: env, dir: dir, mapSize: initialMapSize, dbis: make(map[string]lmdb.DBI)}
	err = env.Update(func(txn *lmdb.Txn) error {
		for _, name := range []string{bucketUC, bucketOut} {
			dbi, err := txn.CreateDBI(name)
			if err != nil {
				return err
			}
			k.dbis[name] = dbi
		}
		return nil
	})
	if err != nil {
		env.Close()
		os.RemoveAll(dir)
		return nil, fmt.Errorf("init temp store %s: %w", dir, err)
	}
	return &LMDBStore{diskStore: newDiskStore(k, maxResident)}, nil
}

func newEnv(dir string) (*lmdb.Env, error) {
	env, err := lmdb.NewEnv()
	if err != nil {
		return nil, err
	}
	if err := env.SetMaxDBs(2); err != nil {
		env.Close()
		return nil, err
	}
	if err := env.SetMapSize(initialMapSize); err != nil {
		env.Close()
		return nil, err
	}
	if err := env.Open(dir, lmdb.NoSync, 0644); err != nil {
		env.Close()
		return nil, err
	}
	return env, nil
}

type lmdbKV struct {
	env     *lmdb.Env
	dir     string
	mapSize int64
	dbis    map[string]lmdb.DBI
}

func (k *lmdbKV) put(bucket string, key, val []byte) error {
	fn := func(txn *lmdb.Txn) error {
		return txn.Put(k.dbis[bucket], key, val, 0)
	}
	err := k.env.Update(fn)
	// Grow the map and retry when full, doubling each time.
	for lmdb.IsMapFull(err) {
		k.mapSize *= 2
		if err = k.env.SetMapSize(k.mapSize); err != nil {
			return err
		}
		err = k.env.Update(fn)
	}
	return err
}

func (k *lmdbKV) get(bucket string, key []byte) ([]byte, error) {
	var out []byte
	err := k.env.View(func(txn *lmdb.Txn) error {
		v, err := txn.Get(k.dbis[bucket], key)
		if lmdb.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		out = append([]byte(nil), v...)
		return nil
	})
	return out, err
}

func (k *lmdbKV) del(bucket string, key []byte) error {
	return k.env.Update(func(txn *lmdb.Txn) error {
		err := txn.Del(k.dbis[bucket], key, nil)
		if lmdb.IsNotFound(err) {
			return nil
		}
		return err
	})
}

func (k *lmdbKV) first(bucket string) ([]byte, []byte, error) {
	var key, val []byte
	err := k.env.View(func(txn *lmdb.Txn) error {
		cur, err := txn.OpenCursor(k.dbis[bucket])
		if err != nil {
			return err
		}
		defer cur.Close()
		ck, cv, err := cur.Get(nil, nil, lmdb.First)
		if lmdb.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		key = append([]byte(nil), ck...)
		val = append([]byte(nil), cv...)
		return nil
	})
	return key, val, err
}

func (k *lmdbKV) close() error {
	err := k.env.Close()
	if rmErr := os.RemoveAll(k.dir); rmErr != nil && err == nil {
		err = rmErr
	}
	return err
}
