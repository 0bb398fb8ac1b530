package lingocache

import (
	"sort"
	"time"
)

// Namespace partitions the cache. Each namespace has its own capacity, TTL
// and LRU order.
type Namespace string

const (
	NSTranslation Namespace = "translation"
	NSDetection   Namespace = "language-detection"
	NSProcessed   Namespace = "processed-content"
	NSArticle     Namespace = "article"
)

const defaultProcessedTTL = 24 * time.Hour

// NamespaceConfig describes one namespace.
type NamespaceConfig struct {
	Capacity int           // max entries; <= 0 => built-in default (or 100 for custom namespaces)
	TTL      time.Duration // default TTL for Set; 0 => built-in default, negative => no expiry
	Durable  bool          // write through to the Provider and read through on memory miss
}

var defaultNamespaces = map[Namespace]NamespaceConfig{
	NSTranslation: {Capacity: 500},
	NSDetection:   {Capacity: 100},
	NSProcessed:   {Capacity: 200, TTL: defaultProcessedTTL, Durable: true},
	NSArticle:     {Capacity: 50, TTL: defaultProcessedTTL, Durable: true},
}

const defaultCustomCapacity = 100

// DefaultNamespaces returns a copy of the built-in namespace table.
func DefaultNamespaces() map[Namespace]NamespaceConfig {
	out := make(map[Namespace]NamespaceConfig, len(defaultNamespaces))
	for ns, c := range defaultNamespaces {
		out[ns] = c
	}
	return out
}

// resolveNamespaces merges overrides over the defaults. An override replaces
// Durable as given; zero TTL and non-positive Capacity fall back to the default.
func resolveNamespaces(overrides map[Namespace]NamespaceConfig) map[Namespace]NamespaceConfig {
	out := DefaultNamespaces()
	for ns, o := range overrides {
		def := out[ns]
		if o.Capacity < 0 {
			o.Capacity = 0
		}
		o.Capacity = coalesce(o.Capacity, coalesce(def.Capacity, defaultCustomCapacity))
		o.TTL = coalesce(o.TTL, def.TTL)
		out[ns] = o
	}
	for ns, c := range out {
		if c.TTL < 0 {
			c.TTL = 0
			out[ns] = c
		}
	}
	return out
}

func sortedNamespaces(m map[Namespace]*space) []Namespace {
	out := make([]Namespace, 0, len(m))
	for ns := range m {
		out = append(out, ns)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
