// Package valkey stores durable namespaces in Valkey through valkey-go.
package valkey

import (
	"context"
	"errors"
	"time"

	vk "github.com/valkey-io/valkey-go"

	pr "github.com/unkn0wn-root/lingocache/provider"
)

var ErrNilClient = errors.New("valkey provider: nil client")

type Valkey struct {
	c           vk.Client
	closeClient bool
}

var (
	_ pr.Provider = (*Valkey)(nil)
	_ pr.Sizer    = (*Valkey)(nil)
)

type Config struct {
	Client      vk.Client
	CloseClient bool
}

func New(cfg Config) (*Valkey, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Valkey{c: cfg.Client, closeClient: cfg.CloseClient}, nil
}

// Dial builds a client for addr and pings it before returning.
func Dial(ctx context.Context, addr, password string, db int) (vk.Client, error) {
	c, err := vk.NewClient(vk.ClientOption{
		InitAddress: []string{addr},
		Password:    password,
		SelectDB:    db,
	})
	if err != nil {
		return nil, err
	}
	if err := c.Do(ctx, c.B().Ping().Build()).Error(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (p *Valkey) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := p.c.Do(ctx, p.c.B().Get().Key(key).Build()).AsBytes()
	if vk.IsValkeyNil(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (p *Valkey) Set(ctx context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	var err error
	if ttl > 0 {
		err = p.c.Do(ctx, p.c.B().Set().Key(key).Value(vk.BinaryString(value)).Ex(ttl).Build()).Error()
	} else {
		err = p.c.Do(ctx, p.c.B().Set().Key(key).Value(vk.BinaryString(value)).Build()).Error()
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (p *Valkey) Del(ctx context.Context, key string) error {
	return p.c.Do(ctx, p.c.B().Unlink().Key(key).Build()).Error()
}

// BytesInUse is the server's used_memory, like the redis provider.
func (p *Valkey) BytesInUse(ctx context.Context) (int64, error) {
	info, err := p.c.Do(ctx, p.c.B().Info().Section("memory").Build()).ToString()
	if err != nil {
		return 0, err
	}
	return pr.UsedMemory(info)
}

func (p *Valkey) Close(context.Context) error {
	if p.closeClient {
		p.c.Close()
	}
	return nil
}
