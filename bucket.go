package lingocache

import (
	"context"
	"time"

	c "github.com/unkn0wn-root/lingocache/codec"
)

// Bucket is a typed view over one namespace.
type Bucket[V any] struct {
	s     *Store
	ns    Namespace
	codec c.Codec[V]
}

func NewBucket[V any](s *Store, ns Namespace, codec c.Codec[V]) *Bucket[V] {
	return &Bucket[V]{s: s, ns: ns, codec: codec}
}

func (b *Bucket[V]) Namespace() Namespace { return b.ns }

// Get decodes the cached value. An entry the codec cannot read is deleted and
// reported as a miss.
func (b *Bucket[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V
	raw, ok := b.s.Get(ctx, b.ns, key)
	if !ok {
		return zero, false
	}
	v, err := b.codec.Decode(raw)
	if err != nil {
		b.s.Delete(ctx, b.ns, key)
		b.s.log.Debug("self-healed undecodable value", Fields{"ns": b.ns, "key": key, "err": err})
		b.s.hooks.SelfHeal(b.ns, key, "value_decode")
		return zero, false
	}
	return v, true
}

// Set encodes v and stores it. Only encoding can fail; storage never does.
func (b *Bucket[V]) Set(ctx context.Context, key string, v V, ttl time.Duration) error {
	raw, err := b.codec.Encode(v)
	if err != nil {
		return err
	}
	b.s.Set(ctx, b.ns, key, raw, ttl)
	return nil
}

func (b *Bucket[V]) Delete(ctx context.Context, key string) { b.s.Delete(ctx, b.ns, key) }
