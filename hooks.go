package lingocache

// Hooks are lightweight callbacks for high-signal cache events.
// Implementations MUST be cheap and non-blocking; wrap slow sinks with
// hooks/async. The store never calls a hook while holding its lock.
type Hooks interface {
	// Evicted fires when LRU pressure drops key from memory.
	Evicted(ns Namespace, key string)

	// Expired fires when a read or a write-time sweep finds key past its TTL.
	Expired(ns Namespace, key string)

	// SelfHeal fires when a persisted entry is deleted on read.
	// reason ∈ {"corrupt", "gen_mismatch", "value_decode"}
	SelfHeal(ns Namespace, key, reason string)

	// PersistFailed fires when the provider or generation store errors.
	// The operation continued in memory only. err is a *PersistError.
	PersistFailed(err error)

	// QuotaExceeded fires when a durable write was skipped because it would
	// push the provider past Options.QuotaBytes.
	QuotaExceeded(ns Namespace, key string, inUse, quota int64)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) Evicted(Namespace, string)                     {}
func (NopHooks) Expired(Namespace, string)                     {}
func (NopHooks) SelfHeal(Namespace, string, string)            {}
func (NopHooks) PersistFailed(error)                           {}
func (NopHooks) QuotaExceeded(Namespace, string, int64, int64) {}
