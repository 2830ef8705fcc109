package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

func TestLRUStore_Eviction(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := session.NewLRUStore[visit](2)

	var evicted []session.ID
	store.SetEvictCallback(func(id session.ID, _ visit) {
		evicted = append(evicted, id)
	})

	first, err := store.Create(ctx, visit{Count: 1})
	require.NoError(t, err)
	second, err := store.Create(ctx, visit{Count: 2})
	require.NoError(t, err)

	// Touch first so second becomes the eviction candidate.
	_, found, _ := store.Load(ctx, first)
	require.True(t, found)

	third, err := store.Create(ctx, visit{Count: 3})
	require.NoError(t, err)

	assert.Equal(t, 2, store.Len())
	assert.Equal(t, []session.ID{second}, evicted)

	_, found, _ = store.Load(ctx, second)
	assert.False(t, found)
	_, found, _ = store.Load(ctx, first)
	assert.True(t, found)
	_, found, _ = store.Load(ctx, third)
	assert.True(t, found)
}

func TestLRUStore_ExpiredEntriesAreEvicted(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := newFakeClock()
	store := session.NewLRUStore[visit](8, session.WithClock(clock.Now))

	var evicted int
	store.SetEvictCallback(func(session.ID, visit) { evicted++ })

	id, err := store.Create(ctx, visit{expiry: session.OnInactivity(time.Second)})
	require.NoError(t, err)

	clock.Advance(time.Minute)
	_, found, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 1, evicted)
	assert.Zero(t, store.Len())
}

func TestLRUStore_CycleKeepsCapacity(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := session.NewLRUStore[visit](2)

	old, err := store.Create(ctx, visit{Count: 1})
	require.NoError(t, err)

	newID, ok, err := store.CycleID(ctx, old)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, store.Len())

	got, found, _ := store.Load(ctx, newID)
	require.True(t, found)
	assert.Equal(t, 1, got.Count)
}

func TestNewLRUStore_InvalidCapacity(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { session.NewLRUStore[visit](0) })
}
