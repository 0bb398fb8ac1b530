package lingocache

import (
	"time"

	gen "github.com/unkn0wn-root/lingocache/genstore"
	pr "github.com/unkn0wn-root/lingocache/provider"
)

const defaultQuotaBytes int64 = 10 << 20 // 10 MiB

// SetCostFunc returns the provider cost of a durable write.
type SetCostFunc func(ns Namespace, storageKey string, raw []byte) int64

// Options tune the Store. Everything is optional; the zero value is a
// memory-only store with the built-in namespaces.
type Options struct {
	// Namespaces overrides or extends the built-in namespace table.
	Namespaces map[Namespace]NamespaceConfig

	// Provider backs durable namespaces. nil => durable namespaces stay in memory.
	Provider pr.Provider
	// GenStore holds namespace generations. nil => LocalGenStore (in-process).
	GenStore gen.GenStore

	Logger         Logger      // if nil, NopLogger is used
	Hooks          Hooks       // if nil, NopHooks is used
	QuotaBytes     int64       // 0 => 10 MiB; negative => unlimited. Needs a provider.Sizer.
	ComputeSetCost SetCostFunc // default len(raw)
	Disabled       bool        // every Get misses and every Set is dropped

	Now func() time.Time // nil => time.Now
}

// New builds a Store from opts.
func New(opts Options) *Store {
	return newStore(opts)
}
