package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrymomot/sessionkit/pkg/async"
)

// CacheError is a failure of the cache tier of a CachingStore.
// Cache failures are often survivable: the authoritative store still holds the truth.
type CacheError struct {
	Op  string
	Err error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("session: cache tier %s: %v", e.Op, e.Err)
}

func (e *CacheError) Unwrap() error { return e.Err }

// StoreError is a failure of the authoritative tier of a CachingStore.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("session: store tier %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsCacheError reports whether err carries a cache-tier failure.
func IsCacheError(err error) bool {
	var ce *CacheError
	return errors.As(err, &ce)
}

// IsStoreError reports whether err carries a store-tier failure.
// Check it before IsCacheError: when both tiers fail, both are reported.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

// CachingStore composes a fast cache Store in front of an authoritative Store.
//
// The store assigns identifiers and decides existence; the cache only mirrors
// it. A cache hit never outlives authoritative absence observed by this layer.
// Operations touching both tiers run them concurrently and have no defined
// relative completion order.
type CachingStore[R Record] struct {
	cache Store[R]
	store Store[R]
}

// NewCachingStore layers cache in front of store.
func NewCachingStore[R Record](cache, store Store[R]) *CachingStore[R] {
	return &CachingStore[R]{cache: cache, store: store}
}

// Create writes to the store first and mirrors the record into the cache under
// the assigned identifier. A store failure leaves the cache untouched.
func (c *CachingStore[R]) Create(ctx context.Context, record R) (ID, error) {
	id, err := c.store.Create(ctx, record)
	if err != nil {
		return ID{}, &StoreError{Op: "create", Err: err}
	}

	if err := c.cache.SaveOrCreate(ctx, id, record); err != nil {
		return ID{}, &CacheError{Op: "create", Err: err}
	}
	return id, nil
}

// Save updates both tiers and returns the store's answer. When the store no
// longer holds the record (or fails), a cached copy is purged. A cache-only
// failure is reported together with the store's answer of true.
func (c *CachingStore[R]) Save(ctx context.Context, id ID, record R) (bool, error) {
	cacheF := async.Async(ctx, id, func(ctx context.Context, id ID) (bool, error) {
		return c.cache.Save(ctx, id, record)
	})
	storeF := async.Async(ctx, id, func(ctx context.Context, id ID) (bool, error) {
		return c.store.Save(ctx, id, record)
	})

	inCache, cacheErr := cacheF.Await()
	inStore, storeErr := storeF.Await()

	if storeErr == nil && inStore {
		if cacheErr != nil {
			return true, &CacheError{Op: "save", Err: cacheErr}
		}
		return true, nil
	}

	if cacheErr == nil && inCache {
		if _, err := c.cache.Delete(ctx, id); err != nil {
			cacheErr = err
		}
	}

	if err := tierErrors("save", cacheErr, storeErr); err != nil {
		return false, err
	}
	return false, nil
}

// SaveOrCreate writes both tiers unconditionally.
func (c *CachingStore[R]) SaveOrCreate(ctx context.Context, id ID, record R) error {
	cacheF := async.Async(ctx, id, func(ctx context.Context, id ID) (struct{}, error) {
		return struct{}{}, c.cache.SaveOrCreate(ctx, id, record)
	})
	storeF := async.Async(ctx, id, func(ctx context.Context, id ID) (struct{}, error) {
		return struct{}{}, c.store.SaveOrCreate(ctx, id, record)
	})

	_, cacheErr := cacheF.Await()
	_, storeErr := storeF.Await()
	return tierErrors("save_or_create", cacheErr, storeErr)
}

// Load serves from the cache when it can. On a miss it reads the store and
// hydrates the cache with what it found. A cache failure is returned without
// consulting the store.
func (c *CachingStore[R]) Load(ctx context.Context, id ID) (R, bool, error) {
	var zero R

	record, ok, err := c.cache.Load(ctx, id)
	if err != nil {
		return zero, false, &CacheError{Op: "load", Err: err}
	}
	if ok {
		return record, true, nil
	}

	record, ok, err = c.store.Load(ctx, id)
	if err != nil {
		return zero, false, &StoreError{Op: "load", Err: err}
	}
	if !ok {
		return zero, false, nil
	}

	if err := c.cache.SaveOrCreate(ctx, id, record); err != nil {
		return zero, false, &CacheError{Op: "load", Err: err}
	}
	return record, true, nil
}

// Delete removes the record from both tiers and returns the store's answer.
// The cache entry is purged again after the store answers so that a Load
// racing with the deletion cannot leave it behind.
func (c *CachingStore[R]) Delete(ctx context.Context, id ID) (bool, error) {
	cacheF := async.Async(ctx, id, c.cache.Delete)
	storeF := async.Async(ctx, id, c.store.Delete)

	_, cacheErr := cacheF.Await()
	inStore, storeErr := storeF.Await()
	if storeErr == nil {
		cacheErr = c.purge(ctx, id, cacheErr)
	}
	if err := tierErrors("delete", cacheErr, storeErr); err != nil {
		return false, err
	}
	return inStore, nil
}

// CycleID purges the old identifier from the cache while the store rebinds the
// record, and once more after the store answers, since a concurrent Load may
// have re-hydrated it in between. The new identifier is populated in the
// cache lazily on the next Load.
func (c *CachingStore[R]) CycleID(ctx context.Context, old ID) (ID, bool, error) {
	type cycled struct {
		id ID
		ok bool
	}

	cacheF := async.Async(ctx, old, c.cache.Delete)
	storeF := async.Async(ctx, old, func(ctx context.Context, old ID) (cycled, error) {
		id, ok, err := c.store.CycleID(ctx, old)
		return cycled{id: id, ok: ok}, err
	})

	_, cacheErr := cacheF.Await()
	res, storeErr := storeF.Await()
	if storeErr == nil {
		cacheErr = c.purge(ctx, old, cacheErr)
	}
	if err := tierErrors("cycle_id", cacheErr, storeErr); err != nil {
		return ID{}, false, err
	}
	return res.id, res.ok, nil
}

// purge removes id from the cache after the store reported it gone. The first
// cache failure seen for the operation is kept.
func (c *CachingStore[R]) purge(ctx context.Context, id ID, cacheErr error) error {
	if _, err := c.cache.Delete(ctx, id); err != nil && cacheErr == nil {
		return err
	}
	return cacheErr
}

// tierErrors tags each non-nil tier failure and joins them.
func tierErrors(op string, cacheErr, storeErr error) error {
	switch {
	case cacheErr == nil && storeErr == nil:
		return nil
	case cacheErr == nil:
		return &StoreError{Op: op, Err: storeErr}
	case storeErr == nil:
		return &CacheError{Op: op, Err: cacheErr}
	default:
		return errors.Join(&StoreError{Op: op, Err: storeErr}, &CacheError{Op: op, Err: cacheErr})
	}
}
