package session

import (
	"container/list"
	"context"
	"sync"
)

type lruEntry[R any] struct {
	id    ID
	entry memoryEntry[R]
}

// LRUStore is a bounded in-memory Store. When it reaches capacity the least
// recently used record is evicted, which makes it a natural cache tier for
// CachingStore: an evicted record is simply re-hydrated from the backend.
type LRUStore[R Record] struct {
	capacity int
	items    map[ID]*list.Element
	eviction *list.List
	opts     StoreOptions
	mu       sync.Mutex
	onEvict  func(id ID, record R)
}

// NewLRUStore creates a bounded store holding at most capacity records.
// The capacity must be positive, otherwise it panics.
func NewLRUStore[R Record](capacity int, opts ...StoreOption) *LRUStore[R] {
	if capacity <= 0 {
		panic("session: LRU store capacity must be positive")
	}
	return &LRUStore[R]{
		capacity: capacity,
		items:    make(map[ID]*list.Element),
		eviction: list.New(),
		opts:     ApplyStoreOptions(opts...),
	}
}

// SetEvictCallback sets a function called whenever a record leaves the store
// because of capacity pressure or expiry.
func (c *LRUStore[R]) SetEvictCallback(fn func(id ID, record R)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvict = fn
}

func (c *LRUStore[R]) Create(ctx context.Context, record R) (ID, error) {
	entry := c.entry(record)

	c.mu.Lock()
	defer c.mu.Unlock()

	for range CreateAttempts {
		id, err := NewID()
		if err != nil {
			return ID{}, err
		}
		if c.activeLocked(id) {
			continue
		}
		c.putLocked(id, entry)
		return id, nil
	}
	return ID{}, ErrIDCollision
}

func (c *LRUStore[R]) Save(ctx context.Context, id ID, record R) (bool, error) {
	entry := c.entry(record)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.activeLocked(id) {
		return false, nil
	}
	c.putLocked(id, entry)
	return true, nil
}

func (c *LRUStore[R]) SaveOrCreate(ctx context.Context, id ID, record R) error {
	entry := c.entry(record)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.putLocked(id, entry)
	return nil
}

// Load returns the active record and marks it as recently used
func (c *LRUStore[R]) Load(ctx context.Context, id ID) (R, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero R
	elem, ok := c.items[id]
	if !ok {
		return zero, false, nil
	}

	item := elem.Value.(*lruEntry[R])
	if !IsActive(item.entry.deadline, item.entry.hasDeadline, c.opts.Now()) {
		c.removeElement(elem)
		return zero, false, nil
	}

	c.eviction.MoveToFront(elem)
	return cloneRecord(item.entry.record), true, nil
}

func (c *LRUStore[R]) Delete(ctx context.Context, id ID) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[id]
	if !ok {
		return false, nil
	}

	item := elem.Value.(*lruEntry[R])
	active := IsActive(item.entry.deadline, item.entry.hasDeadline, c.opts.Now())
	c.eviction.Remove(elem)
	delete(c.items, id)
	return active, nil
}

// CycleID rebinds the record atomically under the store lock
func (c *LRUStore[R]) CycleID(ctx context.Context, old ID) (ID, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[old]
	if !ok {
		return ID{}, false, nil
	}

	item := elem.Value.(*lruEntry[R])
	if !IsActive(item.entry.deadline, item.entry.hasDeadline, c.opts.Now()) {
		c.removeElement(elem)
		return ID{}, false, nil
	}

	for range CreateAttempts {
		id, err := NewID()
		if err != nil {
			return ID{}, false, err
		}
		if c.activeLocked(id) {
			continue
		}
		delete(c.items, old)
		item.id = id
		c.items[id] = elem
		c.eviction.MoveToFront(elem)
		return id, true, nil
	}
	return ID{}, false, ErrIDCollision
}

// Len returns the number of cached records
func (c *LRUStore[R]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eviction.Len()
}

func (c *LRUStore[R]) entry(record R) memoryEntry[R] {
	deadline, ok := c.opts.Deadline(record.Expires(), c.opts.Now())
	return memoryEntry[R]{record: cloneRecord(record), deadline: deadline, hasDeadline: ok}
}

// Must be called with lock held.
func (c *LRUStore[R]) activeLocked(id ID) bool {
	elem, ok := c.items[id]
	if !ok {
		return false
	}
	item := elem.Value.(*lruEntry[R])
	return IsActive(item.entry.deadline, item.entry.hasDeadline, c.opts.Now())
}

// Must be called with lock held.
func (c *LRUStore[R]) putLocked(id ID, entry memoryEntry[R]) {
	if elem, ok := c.items[id]; ok {
		c.eviction.MoveToFront(elem)
		elem.Value.(*lruEntry[R]).entry = entry
		return
	}

	elem := c.eviction.PushFront(&lruEntry[R]{id: id, entry: entry})
	c.items[id] = elem

	if c.eviction.Len() > c.capacity {
		if oldest := c.eviction.Back(); oldest != nil {
			c.removeElement(oldest)
		}
	}
}

// Must be called with lock held.
func (c *LRUStore[R]) removeElement(elem *list.Element) {
	c.eviction.Remove(elem)
	item := elem.Value.(*lruEntry[R])
	delete(c.items, item.id)

	if c.onEvict != nil {
		c.onEvict(item.id, item.entry.record)
	}
}
