package lingocache

import (
	"container/list"
	"time"
)

type entry struct {
	key       string
	value     []byte
	createdAt time.Time
	ttl       time.Duration // 0 => no expiry
}

// expired reports whether e is no longer visible at now.
// An entry is visible while now < createdAt+ttl.
func (e *entry) expired(now time.Time) bool {
	return e.ttl > 0 && !now.Before(e.createdAt.Add(e.ttl))
}

// lru is a bounded map + recency list. Front is most recently used.
// Not safe for concurrent use; Store serializes access.
type lru struct {
	capacity int
	items    map[string]*list.Element
	order    *list.List
}

func newLRU(capacity int) *lru {
	return &lru{
		capacity: capacity,
		items:    make(map[string]*list.Element, capacity),
		order:    list.New(),
	}
}

func (l *lru) len() int { return l.order.Len() }

// peek returns the entry without touching recency.
func (l *lru) peek(key string) (*entry, bool) {
	el, ok := l.items[key]
	if !ok {
		return nil, false
	}
	return el.Value.(*entry), true
}

func (l *lru) touch(key string) {
	if el, ok := l.items[key]; ok {
		l.order.MoveToFront(el)
	}
}

func (l *lru) remove(key string) bool {
	el, ok := l.items[key]
	if !ok {
		return false
	}
	l.order.Remove(el)
	delete(l.items, key)
	return true
}

// put inserts or overwrites e and marks it most recent. For a new key at
// capacity it first sweeps expired entries, then evicts from the back.
func (l *lru) put(e *entry, now time.Time) (expired, evicted []string) {
	if el, ok := l.items[e.key]; ok {
		el.Value = e
		l.order.MoveToFront(el)
		return nil, nil
	}

	if l.len() >= l.capacity {
		expired = l.sweep(now)
	}
	for l.len() >= l.capacity {
		back := l.order.Back()
		if back == nil {
			break
		}
		k := back.Value.(*entry).key
		l.order.Remove(back)
		delete(l.items, k)
		evicted = append(evicted, k)
	}

	l.items[e.key] = l.order.PushFront(e)
	return expired, evicted
}

func (l *lru) sweep(now time.Time) []string {
	var out []string
	for el := l.order.Back(); el != nil; {
		prev := el.Prev()
		if e := el.Value.(*entry); e.expired(now) {
			l.order.Remove(el)
			delete(l.items, e.key)
			out = append(out, e.key)
		}
		el = prev
	}
	return out
}

func (l *lru) reset() {
	l.items = make(map[string]*list.Element, l.capacity)
	l.order.Init()
}
