package lingocache

// Stats are running counters for one namespace since the store was created.
type Stats struct {
	Hits        uint64
	Misses      uint64
	HitRate     float64 // Hits / (Hits + Misses); 0 before the first lookup
	Evictions   uint64
	Expirations uint64
	Entries     int // entries currently held in memory
}

type counters struct {
	hits, misses, evictions, expirations uint64
}

func (c counters) snapshot(entries int) Stats {
	s := Stats{
		Hits:        c.hits,
		Misses:      c.misses,
		Evictions:   c.evictions,
		Expirations: c.expirations,
		Entries:     entries,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}

// Usage reports provider footprint against the configured quota.
type Usage struct {
	BytesInUse int64
	Quota      int64 // 0 => unlimited
}
