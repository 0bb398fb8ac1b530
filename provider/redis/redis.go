// Package redis stores durable namespaces in Redis through go-redis, so
// processed content and articles survive restarts and are shared between
// processes.
package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	pr "github.com/unkn0wn-root/lingocache/provider"
)

var ErrNilClient = errors.New("redis provider: nil client")

type Redis struct {
	rdb         goredis.UniversalClient
	closeClient bool
}

var (
	_ pr.Provider = (*Redis)(nil)
	_ pr.Sizer    = (*Redis)(nil)
)

type Config struct {
	Client      goredis.UniversalClient
	CloseClient bool // true when the provider owns the client; the CLI shares it with the genstore
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Redis{rdb: cfg.Client, closeClient: cfg.CloseClient}, nil
}

func (p *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := p.rdb.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, goredis.Nil):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	return b, true, nil
}

// Set writes value with the entry's TTL; the frame carries the same TTL so a
// read never depends on Redis expiry alone.
func (p *Redis) Set(ctx context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	if err := p.rdb.Set(ctx, key, value, max(ttl, 0)).Err(); err != nil {
		return false, err
	}
	return true, nil
}

// Del unlinks key so large articles are freed off the server's main thread.
func (p *Redis) Del(ctx context.Context, key string) error {
	return p.rdb.Unlink(ctx, key).Err()
}

// BytesInUse is the server's used_memory. It counts the whole database, so a
// quota on a shared Redis bounds more than this cache.
func (p *Redis) BytesInUse(ctx context.Context) (int64, error) {
	info, err := p.rdb.Info(ctx, "memory").Result()
	if err != nil {
		return 0, err
	}
	return pr.UsedMemory(info)
}

func (p *Redis) Close(context.Context) error {
	if !p.closeClient {
		return nil
	}
	if err := p.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
		return err
	}
	return nil
}
