// Package asynchook moves lingocache.Hooks calls off the store's hot path
// onto a bounded queue served by worker goroutines. Events are dropped, and
// counted, when the queue is full.
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{EvictedEvery: 10})
//	hooks := asynchook.New(raw, 1, 1000)
//	defer hooks.Close()
//
//	store := lingocache.New(lingocache.Options{Hooks: hooks})
package asynchook

import (
	"sync"
	"sync/atomic"

	lc "github.com/unkn0wn-root/lingocache"
)

type Hooks struct {
	inner   lc.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex // guards closed against sends on a closed queue
	closed  bool
	dropped atomic.Uint64
}

var _ lc.Hooks = (*Hooks)(nil)

func New(inner lc.Hooks, workers, qlen int) *Hooks {
	if inner == nil {
		inner = lc.NopHooks{}
	}
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for range workers {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close stops accepting events and waits for queued ones to run.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped is the number of events lost to a full queue or a closed wrapper.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) Evicted(ns lc.Namespace, k string) { h.try(func() { h.inner.Evicted(ns, k) }) }
func (h *Hooks) Expired(ns lc.Namespace, k string) { h.try(func() { h.inner.Expired(ns, k) }) }
func (h *Hooks) PersistFailed(err error)           { h.try(func() { h.inner.PersistFailed(err) }) }
func (h *Hooks) SelfHeal(ns lc.Namespace, k, r string) {
	h.try(func() { h.inner.SelfHeal(ns, k, r) })
}
func (h *Hooks) QuotaExceeded(ns lc.Namespace, k string, inUse, quota int64) {
	h.try(func() { h.inner.QuotaExceeded(ns, k, inUse, quota) })
}
