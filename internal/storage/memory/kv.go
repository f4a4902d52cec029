// Package memory is the process-local storage backend, used for development
// and as the test double for the stores.
package memory

import (
	"context"
	"sync"
)

type KV struct {
	mu sync.RWMutex
	m  map[string][]byte
}

func New() *KV { return &KV{m: map[string][]byte{}} }

func (k *KV) Get(_ context.Context, key string) ([]byte, bool, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	v, ok := k.m[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (k *KV) Set(_ context.Context, key string, val []byte) error {
	k.mu.Lock()
	k.m[key] = append([]byte(nil), val...)
	k.mu.Unlock()
	return nil
}

func (k *KV) Delete(_ context.Context, key string) error {
	k.mu.Lock()
	delete(k.m, key)
	k.mu.Unlock()
	return nil
}

func (k *KV) Close() error { return nil }
