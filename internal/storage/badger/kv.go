// Package badger is the embedded on-disk storage backend.
package badger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"

	"global_explorer/internal/adapters/observability"
)

const keyPrefix = "kv:"

type KV struct {
	db *badger.DB
}

// Open opens (or creates) the database at dir. An empty dir keeps
// everything in memory.
func Open(dir string) (*KV, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &KV{db: db}, nil
}

func (k *KV) Get(_ context.Context, key string) ([]byte, bool, error) {
	var out []byte
	err := k.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		observability.ObserveStoreMiss("badger")
		return nil, false, nil
	}
	observability.ObserveStore("badger", "get", err)
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

func (k *KV) Set(_ context.Context, key string, val []byte) error {
	err := k.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+key), val)
	})
	observability.ObserveStore("badger", "set", err)
	return err
}

func (k *KV) Delete(_ context.Context, key string) error {
	err := k.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(keyPrefix + key)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return nil
	})
	observability.ObserveStore("badger", "delete", err)
	return err
}

func (k *KV) Close() error { return k.db.Close() }
