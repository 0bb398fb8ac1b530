package genstore

import (
	"context"
	"fmt"

	"github.com/valkey-io/valkey-go"
)

// ValkeyGenStore is RedisGenStore for valkey-go clients.
type ValkeyGenStore struct {
	c           valkey.Client
	prefix      string
	closeClient bool
}

var _ GenStore = (*ValkeyGenStore)(nil)

func NewValkeyGenStore(client valkey.Client, prefix string, closeClient bool) *ValkeyGenStore {
	return &ValkeyGenStore{c: client, prefix: prefix, closeClient: closeClient}
}

func (s *ValkeyGenStore) key(ns string) string { return s.prefix + "gen:" + ns }

func (s *ValkeyGenStore) Snapshot(ctx context.Context, ns string) (uint64, error) {
	v, err := s.c.Do(ctx, s.c.B().Get().Key(s.key(ns)).Build()).AsInt64()
	if valkey.IsValkeyNil(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("valkey gen snapshot: %w", err)
	}
	return uint64(v), nil
}

func (s *ValkeyGenStore) Bump(ctx context.Context, ns string) (uint64, error) {
	v, err := s.c.Do(ctx, s.c.B().Incr().Key(s.key(ns)).Build()).AsInt64()
	if err != nil {
		return 0, fmt.Errorf("valkey gen bump: %w", err)
	}
	return uint64(v), nil
}

func (s *ValkeyGenStore) Close(context.Context) error {
	if s.closeClient {
		s.c.Close()
	}
	return nil
}
