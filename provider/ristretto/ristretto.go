package ristretto

import (
	"context"
	"errors"
	"time"

	rc "github.com/dgraph-io/ristretto"

	pr "github.com/unkn0wn-root/lingocache/provider"
)

// Provider keeps durable namespaces in a cost-bounded ristretto cache.
// The store passes the frame length as cost, so MaxCost is a byte budget.
type Provider struct {
	c *rc.Cache
}

var (
	_ pr.Provider = (*Provider)(nil)
	_ pr.Sizer    = (*Provider)(nil)
)

type Config struct {
	NumCounters int64 // ~10x expected entries
	MaxCost     int64 // bytes
	BufferItems int64 // 0 => 64
}

func New(cfg Config) (*Provider, error) {
	if cfg.BufferItems == 0 {
		cfg.BufferItems = 64
	}
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems < 0 {
		return nil, errors.New("ristretto: invalid config")
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters:        cfg.NumCounters,
		MaxCost:            cfg.MaxCost,
		BufferItems:        cfg.BufferItems,
		Metrics:            true, // BytesInUse reads cost counters
		IgnoreInternalCost: true, // cost is the frame length only
	})
	if err != nil {
		return nil, err
	}
	return &Provider{c: c}, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := p.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, _ := v.([]byte)
	if b == nil {
		// self-heal: drop unexpected entry shape
		p.c.Del(key)
		return nil, false, nil
	}
	return b, true, nil
}

// Set admits asynchronously; a rejected admission reports ok=false.
// Wait makes the write visible to the next Get.
func (p *Provider) Set(_ context.Context, key string, value []byte, cost int64, ttl time.Duration) (bool, error) {
	if ttl < 0 {
		ttl = 0
	}
	ok := p.c.SetWithTTL(key, value, cost, ttl)
	p.c.Wait()
	return ok, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.c.Del(key)
	return nil
}

// BytesInUse is cost added minus cost evicted.
func (p *Provider) BytesInUse(context.Context) (int64, error) {
	m := p.c.Metrics
	used := int64(m.CostAdded()) - int64(m.CostEvicted())
	return max(used, 0), nil
}

func (p *Provider) Close(_ context.Context) error {
	p.c.Wait()
	p.c.Close()
	return nil
}
