package lingocache

import (
	"bytes"
	"context"
	"sync"
	"time"

	gen "github.com/unkn0wn-root/lingocache/genstore"
	"github.com/unkn0wn-root/lingocache/internal/wire"
	pr "github.com/unkn0wn-root/lingocache/provider"
)

const storagePrefix = "lc:"

type space struct {
	cfg   NamespaceConfig
	lru   *lru
	stats counters
}

// Store is the namespaced cache. Memory is the source of truth for hits;
// durable namespaces also write through to the Provider and read through
// on a memory miss. Operations never fail: provider errors are logged,
// reported to Hooks and the store carries on in memory.
type Store struct {
	mu     sync.Mutex
	spaces map[Namespace]*space

	provider pr.Provider
	gen      gen.GenStore
	log      Logger
	hooks    Hooks
	quota    int64
	cost     SetCostFunc
	enabled  bool
	now      func() time.Time
}

func newStore(opts Options) *Store {
	s := &Store{
		spaces:   make(map[Namespace]*space),
		provider: opts.Provider,
		enabled:  !opts.Disabled,
	}

	// defaults
	s.log = coalesce[Logger](opts.Logger, NopLogger{})
	s.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	s.quota = coalesce(opts.QuotaBytes, defaultQuotaBytes)
	if s.quota < 0 {
		s.quota = 0
	}
	s.now = opts.Now
	if s.now == nil {
		s.now = time.Now
	}
	if opts.ComputeSetCost != nil {
		s.cost = opts.ComputeSetCost
	} else {
		s.cost = func(_ Namespace, _ string, raw []byte) int64 { return int64(len(raw)) }
	}
	if opts.GenStore != nil {
		s.gen = opts.GenStore
	} else {
		s.gen = gen.NewLocalGenStore()
	}

	for ns, cfg := range resolveNamespaces(opts.Namespaces) {
		s.spaces[ns] = &space{cfg: cfg, lru: newLRU(cfg.Capacity)}
	}
	if s.provider == nil {
		s.log.Debug("no provider configured; durable namespaces are memory-only", nil)
	}
	return s
}

func (s *Store) Enabled() bool { return s.enabled }

// Namespaces lists the configured namespaces in name order.
func (s *Store) Namespaces() []Namespace {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedNamespaces(s.spaces)
}

// Get returns the value for key in ns. A hit refreshes the key's recency.
// Expired entries are absent and dropped on the spot.
func (s *Store) Get(ctx context.Context, ns Namespace, key string) ([]byte, bool) {
	if !s.enabled {
		return nil, false
	}
	now := s.now()

	s.mu.Lock()
	sp, ok := s.spaces[ns]
	if !ok {
		s.mu.Unlock()
		s.log.Debug("get on unknown namespace", Fields{"ns": ns})
		return nil, false
	}
	e, hit := sp.lru.peek(key)
	expiredInMemory := false
	if hit && e.expired(now) {
		sp.lru.remove(key)
		sp.stats.expirations++
		hit, expiredInMemory = false, true
	}
	if hit {
		sp.lru.touch(key)
		sp.stats.hits++
		v := bytes.Clone(e.value)
		s.mu.Unlock()
		return v, true
	}
	readThrough := s.durable(sp)
	if !readThrough {
		sp.stats.misses++
	}
	s.mu.Unlock()

	if expiredInMemory {
		s.hooks.Expired(ns, key)
	}
	if !readThrough {
		return nil, false
	}

	v, ok, expiredOnDisk := s.readThrough(ctx, ns, key, now)

	s.mu.Lock()
	if ok {
		sp.stats.hits++
	} else {
		sp.stats.misses++
	}
	if expiredOnDisk && !expiredInMemory {
		sp.stats.expirations++
	}
	s.mu.Unlock()

	if expiredOnDisk && !expiredInMemory {
		s.hooks.Expired(ns, key)
	}
	return v, ok
}

// Set stores value under key. ttl 0 uses the namespace default; a negative
// ttl never expires. A new key at capacity evicts the least recently used
// entry after expired ones are swept.
func (s *Store) Set(ctx context.Context, ns Namespace, key string, value []byte, ttl time.Duration) {
	if !s.enabled {
		return
	}

	s.mu.Lock()
	sp, ok := s.spaces[ns]
	if !ok {
		s.mu.Unlock()
		s.log.Warn("set on unknown namespace dropped", Fields{"ns": ns})
		return
	}
	switch {
	case ttl == 0:
		ttl = sp.cfg.TTL
	case ttl < 0:
		ttl = 0
	}
	now := s.now()
	e := &entry{key: key, value: bytes.Clone(value), createdAt: now, ttl: ttl}
	expired, evicted := sp.lru.put(e, now)
	sp.stats.expirations += uint64(len(expired))
	sp.stats.evictions += uint64(len(evicted))
	durable := s.durable(sp)
	s.mu.Unlock()

	s.fire(ns, expired, evicted)
	if durable {
		s.persist(ctx, ns, e)
	}
}

// Delete drops key from memory and, for durable namespaces, from the provider.
func (s *Store) Delete(ctx context.Context, ns Namespace, key string) {
	s.mu.Lock()
	sp, ok := s.spaces[ns]
	if ok {
		sp.lru.remove(key)
	}
	durable := ok && s.durable(sp)
	s.mu.Unlock()

	if durable {
		s.del(ctx, ns, key)
	}
}

// Clear drops every entry of the given namespaces, or of all namespaces when
// none are given. Durable namespaces get a new generation, so persisted
// entries written before the Clear read as misses and are deleted lazily.
func (s *Store) Clear(ctx context.Context, namespaces ...Namespace) {
	if len(namespaces) == 0 {
		namespaces = s.Namespaces()
	}
	for _, ns := range namespaces {
		s.mu.Lock()
		sp, ok := s.spaces[ns]
		if ok {
			sp.lru.reset()
		}
		durable := ok && s.durable(sp)
		s.mu.Unlock()

		if !durable {
			continue
		}
		g, err := s.gen.Bump(ctx, string(ns))
		if err != nil {
			s.persistFailed("clear", ns, "", err)
			continue
		}
		s.log.Debug("cleared namespace (bumped gen)", Fields{"ns": ns, "newGen": g})
	}
}

// Stats returns the counters for ns. Unknown namespaces report zeroes.
func (s *Store) Stats(ns Namespace) Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.spaces[ns]
	if !ok {
		return Stats{}
	}
	return sp.stats.snapshot(sp.lru.len())
}

// Usage reports the provider's footprint. It returns ErrNoSizer when there is
// no provider or it cannot report its size.
func (s *Store) Usage(ctx context.Context) (Usage, error) {
	sz, ok := s.provider.(pr.Sizer)
	if !ok {
		return Usage{Quota: s.quota}, ErrNoSizer
	}
	n, err := sz.BytesInUse(ctx)
	if err != nil {
		return Usage{Quota: s.quota}, &PersistError{Op: "usage", Err: err}
	}
	return Usage{BytesInUse: n, Quota: s.quota}, nil
}

// Close releases the generation store, then the provider.
func (s *Store) Close(ctx context.Context) error {
	var ce CloseError
	if s.gen != nil {
		ce.GenErr = s.gen.Close(ctx)
	}
	if s.provider != nil {
		ce.ProviderErr = s.provider.Close(ctx)
	}
	if ce.GenErr != nil || ce.ProviderErr != nil {
		return &ce
	}
	return nil
}

func (s *Store) durable(sp *space) bool { return sp.cfg.Durable && s.provider != nil }

func storageKey(ns Namespace, key string) string {
	return storagePrefix + string(ns) + ":" + key
}

// readThrough loads key from the provider, validating the frame, the
// namespace generation and the TTL. Valid entries are promoted to memory.
func (s *Store) readThrough(ctx context.Context, ns Namespace, key string, now time.Time) (v []byte, ok, expired bool) {
	raw, found, err := s.provider.Get(ctx, storageKey(ns, key))
	if err != nil {
		s.persistFailed("get", ns, key, err)
		return nil, false, false
	}
	if !found {
		return nil, false, false
	}

	fr, err := wire.Decode(raw)
	if err != nil {
		s.heal(ctx, ns, key, "corrupt")
		return nil, false, false
	}
	g, err := s.gen.Snapshot(ctx, string(ns))
	if err != nil {
		// conservative: treat as miss, leave the entry for a later read
		s.persistFailed("gen", ns, key, err)
		return nil, false, false
	}
	if fr.Gen != g {
		s.heal(ctx, ns, key, "gen_mismatch")
		return nil, false, false
	}

	e := &entry{key: key, value: bytes.Clone(fr.Payload), createdAt: fr.CreatedAt, ttl: fr.TTL}
	if e.expired(now) {
		s.del(ctx, ns, key)
		return nil, false, true
	}

	s.mu.Lock()
	sp := s.spaces[ns]
	if cur, ok := sp.lru.peek(key); ok && !cur.expired(now) {
		// a concurrent Set landed first; it is at least as new
		sp.lru.touch(key)
		v = bytes.Clone(cur.value)
		s.mu.Unlock()
		return v, true, false
	}
	expiredKeys, evicted := sp.lru.put(e, now)
	sp.stats.expirations += uint64(len(expiredKeys))
	sp.stats.evictions += uint64(len(evicted))
	s.mu.Unlock()

	s.fire(ns, expiredKeys, evicted)
	return bytes.Clone(e.value), true, false
}

func (s *Store) persist(ctx context.Context, ns Namespace, e *entry) {
	g, err := s.gen.Snapshot(ctx, string(ns))
	if err != nil {
		s.persistFailed("gen", ns, e.key, err)
		return
	}
	raw := wire.Encode(wire.Entry{Gen: g, CreatedAt: e.createdAt, TTL: e.ttl, Payload: e.value})
	sk := storageKey(ns, e.key)

	if s.quota > 0 {
		if sz, ok := s.provider.(pr.Sizer); ok {
			inUse, err := sz.BytesInUse(ctx)
			switch {
			case err != nil:
				s.persistFailed("usage", ns, e.key, err)
				return
			case inUse+int64(len(raw)) > s.quota:
				s.log.Warn("durable write skipped (quota exceeded)",
					Fields{"ns": ns, "key": e.key, "inUse": inUse, "quota": s.quota, "size": len(raw)})
				s.hooks.QuotaExceeded(ns, e.key, inUse, s.quota)
				return
			}
		}
	}

	ok, err := s.provider.Set(ctx, sk, raw, s.cost(ns, sk, raw), e.ttl)
	if err != nil {
		s.persistFailed("set", ns, e.key, err)
		return
	}
	if !ok {
		s.log.Debug("durable write rejected by provider (pressure)", Fields{"ns": ns, "key": e.key})
	}
}

func (s *Store) del(ctx context.Context, ns Namespace, key string) {
	if err := s.provider.Del(ctx, storageKey(ns, key)); err != nil {
		s.persistFailed("del", ns, key, err)
	}
}

func (s *Store) heal(ctx context.Context, ns Namespace, key, reason string) {
	s.del(ctx, ns, key)
	s.log.Debug("self-healed persisted entry", Fields{"ns": ns, "key": key, "reason": reason})
	s.hooks.SelfHeal(ns, key, reason)
}

func (s *Store) persistFailed(op string, ns Namespace, key string, err error) {
	pe := &PersistError{Op: op, Namespace: ns, Key: key, Err: err}
	s.log.Warn("persistence failed; continuing in memory", Fields{"op": op, "ns": ns, "key": key, "err": err})
	s.hooks.PersistFailed(pe)
}

func (s *Store) fire(ns Namespace, expired, evicted []string) {
	for _, k := range expired {
		s.hooks.Expired(ns, k)
	}
	for _, k := range evicted {
		s.hooks.Evicted(ns, k)
	}
}
