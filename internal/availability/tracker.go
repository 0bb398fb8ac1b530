// Package availability keeps a short-lived belief about whether each AI
// service is usable, so callers can skip a service without paying for a call.
package availability

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const DefaultTTL = 60 * time.Second

// Probe is a cheap liveness check (credential present, endpoint reachable).
type Probe func(ctx context.Context) bool

type Status struct {
	Available   bool
	LastChecked time.Time
}

type Options struct {
	TTL time.Duration    // 0 => 60s
	Now func() time.Time // nil => time.Now

	// OnChange is called outside the lock whenever a service flips state.
	OnChange func(id string, available bool)
}

type Tracker struct {
	mu     sync.Mutex
	probes map[string]Probe
	status map[string]Status

	ttl      time.Duration
	now      func() time.Time
	onChange func(string, bool)
}

func New(opts Options) *Tracker {
	t := &Tracker{
		probes:   make(map[string]Probe),
		status:   make(map[string]Status),
		ttl:      opts.TTL,
		now:      opts.Now,
		onChange: opts.OnChange,
	}
	if t.ttl <= 0 {
		t.ttl = DefaultTTL
	}
	if t.now == nil {
		t.now = time.Now
	}
	return t
}

// Register adds (or replaces) the probe for id. The service is probed lazily.
func (t *Tracker) Register(id string, p Probe) {
	t.mu.Lock()
	t.probes[id] = p
	delete(t.status, id)
	t.mu.Unlock()
}

// Available returns the cached belief for id, probing when it is missing or
// older than the TTL. Unregistered services are unavailable.
func (t *Tracker) Available(ctx context.Context, id string) bool {
	t.mu.Lock()
	st, known := t.status[id]
	probe := t.probes[id]
	fresh := known && t.now().Sub(st.LastChecked) < t.ttl
	t.mu.Unlock()

	if fresh {
		return st.Available
	}
	if probe == nil {
		return false
	}
	return t.check(ctx, id, probe)
}

func (t *Tracker) MarkUnavailable(id string) { t.set(id, false) }
func (t *Tracker) MarkAvailable(id string)   { t.set(id, true) }

// Refresh re-probes every registered service whose status is stale, or all of
// them when force is set. Probes run concurrently.
func (t *Tracker) Refresh(ctx context.Context, force bool) error {
	t.mu.Lock()
	now := t.now()
	due := make(map[string]Probe, len(t.probes))
	for id, p := range t.probes {
		st, ok := t.status[id]
		if force || !ok || now.Sub(st.LastChecked) >= t.ttl {
			due[id] = p
		}
	}
	t.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for id, p := range due {
		g.Go(func() error {
			t.check(gctx, id, p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Snapshot copies the current statuses.
func (t *Tracker) Snapshot() map[string]Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]Status, len(t.status))
	for id, st := range t.status {
		out[id] = st
	}
	return out
}

func (t *Tracker) check(ctx context.Context, id string, p Probe) bool {
	ok := p(ctx)
	t.set(id, ok)
	return ok
}

func (t *Tracker) set(id string, available bool) {
	t.mu.Lock()
	prev, known := t.status[id]
	t.status[id] = Status{Available: available, LastChecked: t.now()}
	t.mu.Unlock()

	if t.onChange != nil && (!known || prev.Available != available) {
		t.onChange(id, available)
	}
}
