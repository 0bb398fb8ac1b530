// Package lingocache is the caching layer of a reading and language-learning
// assistant. It keeps translations, detected languages, processed article
// content (summaries, rewrites, vocabulary) and articles in separate
// namespaces, each with its own capacity, TTL and strict LRU order.
//
// Components:
//   - Store: namespaced byte cache with TTL, LRU eviction and per-namespace stats.
//   - Bucket[V]: typed view over one namespace through a codec.Codec[V].
//   - Provider: optional byte store (bigcache, ristretto, redis, valkey) that
//     durable namespaces write through to and read through from.
//   - GenStore: one generation per namespace. Clear bumps it so persisted
//     entries from before the Clear are ignored and deleted on read.
//
// Keys:
//
//	translation         {from}:{to}:{first 100 chars}[#{hash}]
//	processed-content   processed:{hash}:{kind}:{param}
//	language-detection  {first 200 chars, trimmed}
//	article             article:{hash(url)}
//
// Persisted keys are "lc:{namespace}:{key}".
//
// The service side lives in sibling packages: retry (backoff), fallback
// (primary then fallback service, cache in front) and batch (many short
// translations in one request).
package lingocache
