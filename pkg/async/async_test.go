package async_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/async"
)

func TestAsync(t *testing.T) {
	t.Parallel()

	t.Run("returns result of callback", func(t *testing.T) {
		t.Parallel()
		f := async.Async(context.Background(), 21, func(_ context.Context, n int) (int, error) {
			return n * 2, nil
		})

		res, err := f.Await()
		require.NoError(t, err)
		assert.Equal(t, 42, res)
		assert.True(t, f.IsComplete())
	})

	t.Run("propagates callback error", func(t *testing.T) {
		t.Parallel()
		want := errors.New("tier down")
		f := async.Async(context.Background(), "id", func(_ context.Context, _ string) (bool, error) {
			return false, want
		})

		_, err := f.Await()
		assert.ErrorIs(t, err, want)
	})

	t.Run("skips callback when context already cancelled", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var called atomic.Bool
		f := async.Async(ctx, 1, func(_ context.Context, n int) (int, error) {
			called.Store(true)
			return n, nil
		})

		_, err := f.Await()
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called.Load())
	})

	t.Run("recovers panics", func(t *testing.T) {
		t.Parallel()
		f := async.Async(context.Background(), 0, func(_ context.Context, _ int) (int, error) {
			panic("boom")
		})

		_, err := f.Await()
		assert.ErrorIs(t, err, async.ErrPanicked)
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("await is repeatable", func(t *testing.T) {
		t.Parallel()
		f := async.Async(context.Background(), "x", func(_ context.Context, s string) (string, error) {
			return s + s, nil
		})

		first, _ := f.Await()
		second, _ := f.Await()
		assert.Equal(t, first, second)
	})
}

func TestFuture_Done(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	f := async.Async(context.Background(), 0, func(_ context.Context, _ int) (int, error) {
		<-release
		return 1, nil
	})

	assert.False(t, f.IsComplete())
	close(release)

	select {
	case <-f.Done():
	case <-time.After(time.Second):
		t.Fatal("future did not complete")
	}
	assert.True(t, f.IsComplete())
}

func TestAsync_RunsConcurrently(t *testing.T) {
	t.Parallel()

	// Each callback waits for the other one to start; sequential execution would deadlock.
	started := make(chan struct{}, 2)
	fn := func(_ context.Context, _ int) (int, error) {
		started <- struct{}{}
		for len(started) < 2 {
			time.Sleep(time.Millisecond)
		}
		return 1, nil
	}

	a := async.Async(context.Background(), 0, fn)
	b := async.Async(context.Background(), 0, fn)

	done := make(chan struct{})
	go func() {
		_, _ = async.WaitAll(a, b)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("futures did not run concurrently")
	}
}

func TestWaitAll(t *testing.T) {
	t.Parallel()

	t.Run("collects results in order", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		sleepy := func(_ context.Context, ms int) (int, error) {
			time.Sleep(time.Duration(ms) * time.Millisecond)
			return ms, nil
		}

		results, err := async.WaitAll(
			async.Async(ctx, 30, sleepy),
			async.Async(ctx, 10, sleepy),
			async.Async(ctx, 20, sleepy),
		)
		require.NoError(t, err)
		assert.Equal(t, []int{30, 10, 20}, results)
	})

	t.Run("waits for every future even after an error", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		want := errors.New("first")

		var slowDone atomic.Bool
		failing := async.Async(ctx, 0, func(_ context.Context, _ int) (int, error) {
			return 0, want
		})
		slow := async.Async(ctx, 0, func(_ context.Context, _ int) (int, error) {
			time.Sleep(30 * time.Millisecond)
			slowDone.Store(true)
			return 7, nil
		})

		results, err := async.WaitAll(failing, slow)
		assert.ErrorIs(t, err, want)
		assert.True(t, slowDone.Load())
		assert.Equal(t, 7, results[1])
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		results, err := async.WaitAll[int]()
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}
