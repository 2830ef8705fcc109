package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry[R any] struct {
	record      R
	deadline    time.Time
	hasDeadline bool
}

// MemoryStore implements Store using an unbounded in-memory map.
// It suits single-process deployments, tests, and the cache tier of a CachingStore.
type MemoryStore[R Record] struct {
	mu       sync.RWMutex
	sessions map[ID]memoryEntry[R]
	opts     StoreOptions
	ticker   *time.Ticker
	done     chan struct{}
	once     sync.Once
}

// NewMemoryStore creates a new in-memory session store.
// A positive cleanupInterval starts a goroutine purging lapsed records; stop it with Close.
func NewMemoryStore[R Record](cleanupInterval time.Duration, opts ...StoreOption) *MemoryStore[R] {
	store := &MemoryStore[R]{
		sessions: make(map[ID]memoryEntry[R]),
		opts:     ApplyStoreOptions(opts...),
		done:     make(chan struct{}),
	}

	if cleanupInterval > 0 {
		store.ticker = time.NewTicker(cleanupInterval)
		go store.cleanupLoop()
	}

	return store
}

// Create stores a new record under a fresh identifier
func (m *MemoryStore[R]) Create(ctx context.Context, record R) (ID, error) {
	entry := m.entry(record)

	m.mu.Lock()
	defer m.mu.Unlock()

	id, err := m.unusedIDLocked()
	if err != nil {
		return ID{}, err
	}

	m.sessions[id] = entry
	return id, nil
}

// Save updates an existing active record
func (m *MemoryStore[R]) Save(ctx context.Context, id ID, record R) (bool, error) {
	entry := m.entry(record)

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.activeLocked(id) {
		return false, nil
	}

	m.sessions[id] = entry
	return true, nil
}

// SaveOrCreate stores the record under id whether or not it exists
func (m *MemoryStore[R]) SaveOrCreate(ctx context.Context, id ID, record R) error {
	entry := m.entry(record)

	m.mu.Lock()
	m.sessions[id] = entry
	m.mu.Unlock()
	return nil
}

// Load returns the active record for id
func (m *MemoryStore[R]) Load(ctx context.Context, id ID) (R, bool, error) {
	m.mu.RLock()
	entry, exists := m.sessions[id]
	m.mu.RUnlock()

	var zero R
	if !exists {
		return zero, false, nil
	}

	if !IsActive(entry.deadline, entry.hasDeadline, m.opts.Now()) {
		m.mu.Lock()
		// Re-check under the write lock: a concurrent save may have refreshed it.
		if current, ok := m.sessions[id]; ok && !IsActive(current.deadline, current.hasDeadline, m.opts.Now()) {
			delete(m.sessions, id)
		}
		m.mu.Unlock()
		return zero, false, nil
	}

	return cloneRecord(entry.record), true, nil
}

// Delete removes the record and reports whether an active one existed
func (m *MemoryStore[R]) Delete(ctx context.Context, id ID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	active := m.activeLocked(id)
	delete(m.sessions, id)
	return active, nil
}

// CycleID moves the record to a fresh identifier atomically under the store lock
func (m *MemoryStore[R]) CycleID(ctx context.Context, old ID) (ID, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.activeLocked(old) {
		delete(m.sessions, old)
		return ID{}, false, nil
	}

	id, err := m.unusedIDLocked()
	if err != nil {
		return ID{}, false, err
	}

	m.sessions[id] = m.sessions[old]
	delete(m.sessions, old)
	return id, true, nil
}

// DeleteExpired removes all lapsed records
func (m *MemoryStore[R]) DeleteExpired(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.opts.Now()
	var n int64
	for id, entry := range m.sessions {
		if !IsActive(entry.deadline, entry.hasDeadline, now) {
			delete(m.sessions, id)
			n++
		}
	}

	return n, nil
}

// Len returns the number of stored records, lapsed ones included
func (m *MemoryStore[R]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close stops the cleanup goroutine
func (m *MemoryStore[R]) Close() error {
	m.once.Do(func() {
		if m.ticker != nil {
			m.ticker.Stop()
		}
		close(m.done)
	})
	return nil
}

func (m *MemoryStore[R]) cleanupLoop() {
	for {
		select {
		case <-m.ticker.C:
			_, _ = m.DeleteExpired(context.Background())
		case <-m.done:
			return
		}
	}
}

func (m *MemoryStore[R]) entry(record R) memoryEntry[R] {
	deadline, ok := m.opts.Deadline(record.Expires(), m.opts.Now())
	return memoryEntry[R]{record: cloneRecord(record), deadline: deadline, hasDeadline: ok}
}

// Must be called with lock held.
func (m *MemoryStore[R]) activeLocked(id ID) bool {
	entry, ok := m.sessions[id]
	return ok && IsActive(entry.deadline, entry.hasDeadline, m.opts.Now())
}

// Must be called with lock held. Lapsed entries do not block an identifier.
func (m *MemoryStore[R]) unusedIDLocked() (ID, error) {
	for range CreateAttempts {
		id, err := NewID()
		if err != nil {
			return ID{}, err
		}
		if !m.activeLocked(id) {
			return id, nil
		}
	}
	return ID{}, ErrIDCollision
}

func cloneRecord[R any](record R) R {
	if c, ok := any(record).(Cloner[R]); ok {
		return c.Clone()
	}
	return record
}
