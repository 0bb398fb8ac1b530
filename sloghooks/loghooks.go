// Package sloghooks reports lingocache.Hooks events through log/slog.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"sync/atomic"

	lc "github.com/unkn0wn-root/lingocache"
)

type Options struct {
	// Sampling to avoid floods under steady LRU pressure; 0/1 = log all.
	EvictedEvery  uint64
	ExpiredEvery  uint64
	SelfHealEvery uint64
	// Optional key redactor. Defaults to SHA-256 prefix: translation and
	// detection keys embed user text.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	evictedCtr  atomic.Uint64
	expiredCtr  atomic.Uint64
	selfHealCtr atomic.Uint64
}

var _ lc.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) Evicted(ns lc.Namespace, key string) {
	if h.l == nil || !sample(h.opts.EvictedEvery, &h.evictedCtr) {
		return
	}
	h.l.Debug("lingocache.evicted", "ns", string(ns), "key", h.redact(key))
}

func (h *Hooks) Expired(ns lc.Namespace, key string) {
	if h.l == nil || !sample(h.opts.ExpiredEvery, &h.expiredCtr) {
		return
	}
	h.l.Debug("lingocache.expired", "ns", string(ns), "key", h.redact(key))
}

func (h *Hooks) SelfHeal(ns lc.Namespace, key, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Info("lingocache.self_heal",
		"ns", string(ns),
		"key", h.redact(key),
		"reason", reason)
}

func (h *Hooks) PersistFailed(err error) {
	if h.l == nil {
		return
	}
	var pe *lc.PersistError
	if !errors.As(err, &pe) {
		h.l.Warn("lingocache.persist_failed", "err", err)
		return
	}
	args := []any{"op", pe.Op, "ns", string(pe.Namespace), "err", pe.Err}
	if pe.Key != "" {
		args = append(args, "key", h.redact(pe.Key))
	}
	h.l.Warn("lingocache.persist_failed", args...)
}

func (h *Hooks) QuotaExceeded(ns lc.Namespace, key string, inUse, quota int64) {
	if h.l == nil {
		return
	}
	h.l.Warn("lingocache.quota_exceeded",
		"ns", string(ns),
		"key", h.redact(key),
		"in_use", inUse,
		"quota", quota)
}
