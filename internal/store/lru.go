package store

import (
	"container/list"
	"sync"

	"github.com/voxlogica-project/voxlogica-core/internal/hashid"
)

const defaultCacheSoftCap = 512

// lruCache is a bounded, concurrency-safe in-memory front for Store.
// Eviction is a soft cap: Put never blocks or fails on a full cache, it just
// evicts the least-recently-used entry first, matching the pool-eviction
// shape used elsewhere in the corpus (doubly-linked list + map).
type lruCache struct {
	mu      sync.Mutex
	softCap int
	order   *list.List
	items   map[hashid.NodeID]*list.Element
}

type lruEntry struct {
	key   hashid.NodeID
	value interface{}
}

func newLRUCache(softCap int) *lruCache {
	return &lruCache{
		softCap: softCap,
		order:   list.New(),
		items:   make(map[hashid.NodeID]*list.Element),
	}
}

func (c *lruCache) get(key hashid.NodeID) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*lruEntry).value, true
}

func (c *lruCache) put(key hashid.NodeID, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		el.Value.(*lruEntry).value = value
		c.order.MoveToFront(el)
		return
	}
	el := c.order.PushFront(&lruEntry{key: key, value: value})
	c.items[key] = el
	for c.order.Len() > c.softCap {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*lruEntry).key)
	}
}
