package session_test

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

// visit is the record used across the package tests.
type visit struct {
	Count  int
	Tags   map[string]string
	expiry session.Expiry
}

func (v visit) Expires() session.Expiry { return v.expiry }

func (v visit) Clone() visit {
	v.Tags = maps.Clone(v.Tags)
	return v
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// countingStore counts calls per operation and can be told to fail them.
type countingStore struct {
	session.Store[visit]

	mu    sync.Mutex
	calls map[string]int
	fail  map[string]error
}

func newCountingStore(inner session.Store[visit]) *countingStore {
	return &countingStore{
		Store: inner,
		calls: make(map[string]int),
		fail:  make(map[string]error),
	}
}

func (s *countingStore) failOn(op string, err error) {
	s.mu.Lock()
	s.fail[op] = err
	s.mu.Unlock()
}

func (s *countingStore) count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *countingStore) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

func (s *countingStore) record(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[op]++
	return s.fail[op]
}

func (s *countingStore) Create(ctx context.Context, record visit) (session.ID, error) {
	if err := s.record("create"); err != nil {
		return session.ID{}, err
	}
	return s.Store.Create(ctx, record)
}

func (s *countingStore) Save(ctx context.Context, id session.ID, record visit) (bool, error) {
	if err := s.record("save"); err != nil {
		return false, err
	}
	return s.Store.Save(ctx, id, record)
}

func (s *countingStore) SaveOrCreate(ctx context.Context, id session.ID, record visit) error {
	if err := s.record("save_or_create"); err != nil {
		return err
	}
	return s.Store.SaveOrCreate(ctx, id, record)
}

func (s *countingStore) Load(ctx context.Context, id session.ID) (visit, bool, error) {
	if err := s.record("load"); err != nil {
		return visit{}, false, err
	}
	return s.Store.Load(ctx, id)
}

func (s *countingStore) Delete(ctx context.Context, id session.ID) (bool, error) {
	if err := s.record("delete"); err != nil {
		return false, err
	}
	return s.Store.Delete(ctx, id)
}

func (s *countingStore) CycleID(ctx context.Context, old session.ID) (session.ID, bool, error) {
	if err := s.record("cycle_id"); err != nil {
		return session.ID{}, false, err
	}
	return s.Store.CycleID(ctx, old)
}
