package redisad

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"global_explorer/internal/adapters/observability"
)

// NewClient opens a client and checks the connection.
func NewClient(ctx context.Context, addr, pass string, db int) (*redis.Client, error) {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// KV implements the storage port on plain string keys.
type KV struct {
	c      *redis.Client
	prefix string
}

func NewKV(c *redis.Client) *KV {
	return &KV{c: c, prefix: "explorer:kv:"}
}

func (k *KV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := k.c.Get(ctx, k.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		observability.ObserveStoreMiss("redis")
		return nil, false, nil
	}
	observability.ObserveStore("redis", "get", err)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (k *KV) Set(ctx context.Context, key string, val []byte) error {
	err := k.c.Set(ctx, k.prefix+key, val, 0).Err()
	observability.ObserveStore("redis", "set", err)
	return err
}

func (k *KV) Delete(ctx context.Context, key string) error {
	err := k.c.Del(ctx, k.prefix+key).Err()
	observability.ObserveStore("redis", "delete", err)
	return err
}
