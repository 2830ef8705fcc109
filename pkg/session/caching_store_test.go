package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

var (
	errCacheDown = errors.New("cache down")
	errStoreDown = errors.New("store down")
)

// gatedStore holds CycleID and Delete until released, signalling entry first.
type gatedStore struct {
	session.Store[visit]
	entered chan struct{}
	release chan struct{}
}

func newGatedStore(inner session.Store[visit]) *gatedStore {
	return &gatedStore{Store: inner, entered: make(chan struct{}), release: make(chan struct{})}
}

func (s *gatedStore) wait() {
	close(s.entered)
	<-s.release
}

func (s *gatedStore) CycleID(ctx context.Context, old session.ID) (session.ID, bool, error) {
	s.wait()
	return s.Store.CycleID(ctx, old)
}

func (s *gatedStore) Delete(ctx context.Context, id session.ID) (bool, error) {
	s.wait()
	return s.Store.Delete(ctx, id)
}

// rehydrateDuring runs op against a store held at its gate, re-hydrating the
// cache under id from the store while op is in flight.
func rehydrateDuring(t *testing.T, op func(cs *session.CachingStore[visit], id session.ID)) (*session.LRUStore[visit], *session.CachingStore[visit], session.ID) {
	t.Helper()
	ctx := context.Background()

	mem := session.NewMemoryStore[visit](0)
	t.Cleanup(func() { _ = mem.Close() })
	cache := session.NewLRUStore[visit](8)
	store := newGatedStore(mem)
	cs := session.NewCachingStore[visit](cache, store)

	id, err := cs.Create(ctx, visit{Count: 7})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		op(cs, id)
	}()

	<-store.entered
	require.Eventually(t, func() bool {
		_, found, _ := cache.Load(ctx, id)
		return !found
	}, time.Second, time.Millisecond)

	_, found, err := cs.Load(ctx, id)
	require.NoError(t, err)
	require.True(t, found, "store still holds the record while the operation is gated")

	close(store.release)
	<-done
	return cache, cs, id
}

func newTiers(t *testing.T) (*countingStore, *countingStore, *session.CachingStore[visit]) {
	t.Helper()
	cache := newCountingStore(session.NewLRUStore[visit](64))
	mem := session.NewMemoryStore[visit](0)
	t.Cleanup(func() { _ = mem.Close() })
	store := newCountingStore(mem)
	return cache, store, session.NewCachingStore[visit](cache, store)
}

func TestCachingStore_Create(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("store assigns id and cache mirrors it", func(t *testing.T) {
		t.Parallel()
		cache, store, cs := newTiers(t)

		id, err := cs.Create(ctx, visit{Count: 1})
		require.NoError(t, err)

		assert.Equal(t, 1, store.count("create"))
		assert.Zero(t, cache.count("create"))
		assert.Equal(t, 1, cache.count("save_or_create"))

		got, found, err := cache.Store.Load(ctx, id)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, 1, got.Count)
	})

	t.Run("store failure leaves cache untouched", func(t *testing.T) {
		t.Parallel()
		cache, store, cs := newTiers(t)
		store.failOn("create", errStoreDown)

		_, err := cs.Create(ctx, visit{})
		require.Error(t, err)
		assert.True(t, session.IsStoreError(err))
		assert.ErrorIs(t, err, errStoreDown)
		assert.Zero(t, cache.total())
	})

	t.Run("cache failure is tagged", func(t *testing.T) {
		t.Parallel()
		cache, _, cs := newTiers(t)
		cache.failOn("save_or_create", errCacheDown)

		_, err := cs.Create(ctx, visit{})
		require.Error(t, err)
		assert.True(t, session.IsCacheError(err))
		assert.False(t, session.IsStoreError(err))
	})
}

func TestCachingStore_Load(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("hit does not touch store", func(t *testing.T) {
		t.Parallel()
		_, store, cs := newTiers(t)

		id, err := cs.Create(ctx, visit{Count: 4})
		require.NoError(t, err)

		got, found, err := cs.Load(ctx, id)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, 4, got.Count)
		assert.Zero(t, store.count("load"))
	})

	t.Run("miss hydrates cache once", func(t *testing.T) {
		t.Parallel()
		cache, store, cs := newTiers(t)

		id, err := store.Store.Create(ctx, visit{Count: 9})
		require.NoError(t, err)

		got, found, err := cs.Load(ctx, id)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, 9, got.Count)
		assert.Equal(t, 1, store.count("load"))
		assert.Equal(t, 1, cache.count("save_or_create"))

		again, found, err := cs.Load(ctx, id)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, got, again)
		assert.Equal(t, 1, store.count("load"))
	})

	t.Run("miss in both tiers", func(t *testing.T) {
		t.Parallel()
		cache, store, cs := newTiers(t)

		id, err := session.NewID()
		require.NoError(t, err)

		_, found, err := cs.Load(ctx, id)
		require.NoError(t, err)
		assert.False(t, found)
		assert.Equal(t, 1, store.count("load"))
		assert.Zero(t, cache.count("save_or_create"))
	})

	t.Run("cache error skips store", func(t *testing.T) {
		t.Parallel()
		cache, store, cs := newTiers(t)
		cache.failOn("load", errCacheDown)

		id, err := session.NewID()
		require.NoError(t, err)

		_, _, err = cs.Load(ctx, id)
		require.Error(t, err)
		assert.True(t, session.IsCacheError(err))
		assert.ErrorIs(t, err, errCacheDown)
		assert.Zero(t, store.count("load"))
	})

	t.Run("store error", func(t *testing.T) {
		t.Parallel()
		_, store, cs := newTiers(t)
		store.failOn("load", errStoreDown)

		id, err := session.NewID()
		require.NoError(t, err)

		_, _, err = cs.Load(ctx, id)
		assert.True(t, session.IsStoreError(err))
	})
}

func TestCachingStore_Save(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("updates both tiers", func(t *testing.T) {
		t.Parallel()
		cache, store, cs := newTiers(t)

		id, err := cs.Create(ctx, visit{Count: 1})
		require.NoError(t, err)

		ok, err := cs.Save(ctx, id, visit{Count: 2})
		require.NoError(t, err)
		assert.True(t, ok)

		fromCache, _, _ := cache.Store.Load(ctx, id)
		fromStore, _, _ := store.Store.Load(ctx, id)
		assert.Equal(t, 2, fromCache.Count)
		assert.Equal(t, 2, fromStore.Count)
	})

	t.Run("stale cache entry is purged", func(t *testing.T) {
		t.Parallel()
		cache, store, cs := newTiers(t)

		id, err := cs.Create(ctx, visit{Count: 1})
		require.NoError(t, err)

		// Deleted behind the decorator's back.
		_, err = store.Store.Delete(ctx, id)
		require.NoError(t, err)

		ok, err := cs.Save(ctx, id, visit{Count: 2})
		require.NoError(t, err)
		assert.False(t, ok)

		_, found, _ := cache.Store.Load(ctx, id)
		assert.False(t, found)

		_, found, err = cs.Load(ctx, id)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("store failure purges cache", func(t *testing.T) {
		t.Parallel()
		cache, store, cs := newTiers(t)

		id, err := cs.Create(ctx, visit{Count: 1})
		require.NoError(t, err)
		store.failOn("save", errStoreDown)

		ok, err := cs.Save(ctx, id, visit{Count: 2})
		assert.False(t, ok)
		assert.True(t, session.IsStoreError(err))
		assert.False(t, session.IsCacheError(err))

		_, found, _ := cache.Store.Load(ctx, id)
		assert.False(t, found)
	})

	t.Run("cache failure keeps store answer", func(t *testing.T) {
		t.Parallel()
		cache, _, cs := newTiers(t)

		id, err := cs.Create(ctx, visit{Count: 1})
		require.NoError(t, err)
		cache.failOn("save", errCacheDown)

		ok, err := cs.Save(ctx, id, visit{Count: 2})
		assert.True(t, ok)
		assert.True(t, session.IsCacheError(err))
		assert.False(t, session.IsStoreError(err))
	})

	t.Run("both tiers fail", func(t *testing.T) {
		t.Parallel()
		cache, store, cs := newTiers(t)

		id, err := cs.Create(ctx, visit{Count: 1})
		require.NoError(t, err)
		cache.failOn("save", errCacheDown)
		store.failOn("save", errStoreDown)

		ok, err := cs.Save(ctx, id, visit{Count: 2})
		assert.False(t, ok)
		assert.True(t, session.IsStoreError(err))
		assert.True(t, session.IsCacheError(err))
		assert.ErrorIs(t, err, errCacheDown)
		assert.ErrorIs(t, err, errStoreDown)
	})
}

func TestCachingStore_SaveOrCreate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cache, store, cs := newTiers(t)

	id, err := session.NewID()
	require.NoError(t, err)

	require.NoError(t, cs.SaveOrCreate(ctx, id, visit{Count: 3}))
	assert.Equal(t, 1, cache.count("save_or_create"))
	assert.Equal(t, 1, store.count("save_or_create"))

	store.failOn("save_or_create", errStoreDown)
	err = cs.SaveOrCreate(ctx, id, visit{Count: 4})
	assert.True(t, session.IsStoreError(err))
}

func TestCachingStore_Delete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("removes from both tiers", func(t *testing.T) {
		t.Parallel()
		cache, _, cs := newTiers(t)

		id, err := cs.Create(ctx, visit{})
		require.NoError(t, err)

		deleted, err := cs.Delete(ctx, id)
		require.NoError(t, err)
		assert.True(t, deleted)

		_, found, _ := cache.Store.Load(ctx, id)
		assert.False(t, found)

		deleted, err = cs.Delete(ctx, id)
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("returns store answer", func(t *testing.T) {
		t.Parallel()
		cache, _, cs := newTiers(t)

		id, err := session.NewID()
		require.NoError(t, err)
		require.NoError(t, cache.Store.SaveOrCreate(ctx, id, visit{}))

		deleted, err := cs.Delete(ctx, id)
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("load during delete does not revive record", func(t *testing.T) {
		t.Parallel()
		cache, cs, id := rehydrateDuring(t, func(cs *session.CachingStore[visit], id session.ID) {
			deleted, err := cs.Delete(ctx, id)
			assert.NoError(t, err)
			assert.True(t, deleted)
		})

		_, found, _ := cache.Load(ctx, id)
		assert.False(t, found)
		_, found, err := cs.Load(ctx, id)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("cache failure", func(t *testing.T) {
		t.Parallel()
		cache, _, cs := newTiers(t)
		cache.failOn("delete", errCacheDown)

		id, err := cs.Create(ctx, visit{})
		require.NoError(t, err)

		_, err = cs.Delete(ctx, id)
		assert.True(t, session.IsCacheError(err))
	})
}

func TestCachingStore_CycleID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("old id leaves cache, new id hydrates lazily", func(t *testing.T) {
		t.Parallel()
		cache, store, cs := newTiers(t)

		old, err := cs.Create(ctx, visit{Count: 6})
		require.NoError(t, err)

		newID, ok, err := cs.CycleID(ctx, old)
		require.NoError(t, err)
		require.True(t, ok)
		assert.NotEqual(t, old, newID)
		assert.Equal(t, 1, store.count("cycle_id"))

		_, found, _ := cache.Store.Load(ctx, old)
		assert.False(t, found)
		_, found, _ = cs.Load(ctx, old)
		assert.False(t, found)

		got, found, err := cs.Load(ctx, newID)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, 6, got.Count)
	})

	t.Run("missing record", func(t *testing.T) {
		t.Parallel()
		_, _, cs := newTiers(t)

		id, err := session.NewID()
		require.NoError(t, err)

		_, ok, err := cs.CycleID(ctx, id)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("load during cycle does not revive old id", func(t *testing.T) {
		t.Parallel()
		var newID session.ID
		cache, cs, old := rehydrateDuring(t, func(cs *session.CachingStore[visit], id session.ID) {
			var ok bool
			var err error
			newID, ok, err = cs.CycleID(ctx, id)
			assert.NoError(t, err)
			assert.True(t, ok)
		})

		_, found, _ := cache.Load(ctx, old)
		assert.False(t, found)
		_, found, err := cs.Load(ctx, old)
		require.NoError(t, err)
		assert.False(t, found)

		got, found, err := cs.Load(ctx, newID)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, 7, got.Count)
	})

	t.Run("store failure", func(t *testing.T) {
		t.Parallel()
		_, store, cs := newTiers(t)
		store.failOn("cycle_id", errStoreDown)

		id, err := cs.Create(ctx, visit{})
		require.NoError(t, err)

		_, _, err = cs.CycleID(ctx, id)
		assert.True(t, session.IsStoreError(err))
	})
}
