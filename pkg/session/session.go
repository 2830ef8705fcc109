package session

import (
	"context"
	"sync/atomic"
)

// Session is the unresolved, request-scoped handle to a visitor's session.
//
// It holds the identifier the visitor presented (if any), the store, and the
// request's Updater. Resolve it with Load or Create. A Session is a cheap lazy
// reference: resolving it does not consume it, so a handler may Load and then
// fall back to Create.
type Session[R Record] struct {
	id      ID
	hasID   bool
	store   Store[R]
	updater *Updater
}

// New creates a Session. id is nil when the request presented no valid identifier.
func New[R Record](id *ID, store Store[R], updater *Updater) *Session[R] {
	if updater == nil {
		updater = NewUpdater()
	}
	s := &Session[R]{store: store, updater: updater}
	if id != nil {
		s.id = *id
		s.hasID = true
	}
	return s
}

// ID returns the presented identifier, if any.
func (s *Session[R]) ID() (ID, bool) {
	return s.id, s.hasID
}

// Load resolves the session from the store.
//
// It returns (nil, nil) when no identifier was presented (no store call is made)
// or when the record is absent or lapsed. A non-nil error is the store's hard
// error, returned unchanged.
func (s *Session[R]) Load(ctx context.Context) (*State[R], error) {
	if !s.hasID {
		return nil, nil
	}

	data, ok, err := s.store.Load(ctx, s.id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	return newState(s.id, s.store, data, s.updater), nil
}

// Create persists data as a new record and binds the request to its identifier.
// It may be called even when an identifier was presented; the new binding
// replaces any earlier disposition.
func (s *Session[R]) Create(ctx context.Context, data R) (*State[R], error) {
	id, err := s.store.Create(ctx, data)
	if err != nil {
		return nil, err
	}

	s.updater.setID(id, data.Expires())
	return newState(id, s.store, data, s.updater), nil
}

// State is a resolved session: a record confirmed present as of the last store
// interaction. Concurrent deletion or expiry elsewhere may invalidate it at any
// time after that; the next store call reports it.
//
// DataMut, Delete and Cycle consume the State. Any consuming call on a spent
// State fails with ErrConsumed without touching the store.
type State[R Record] struct {
	id      ID
	store   Store[R]
	data    R
	updater *Updater
	spent   atomic.Bool
}

func newState[R Record](id ID, store Store[R], data R, updater *Updater) *State[R] {
	return &State[R]{id: id, store: store, data: data, updater: updater}
}

// ID returns the identifier the state is bound to.
func (s *State[R]) ID() ID {
	return s.id
}

// Data returns the session data. Treat it as read-only; use DataMut to change it.
func (s *State[R]) Data() R {
	return s.data
}

// DataMut consumes the state and returns the mutation guard.
// Nothing reaches the store until the guard is saved; dropping the guard
// discards the mutation.
func (s *State[R]) DataMut() *DataMut[R] {
	if !s.spent.CompareAndSwap(false, true) {
		return &DataMut[R]{err: ErrConsumed}
	}
	return &DataMut[R]{id: s.id, store: s.store, data: s.data, updater: s.updater}
}

// Delete consumes the state and removes the record.
//
// The boolean reports whether the store still held an active record; it is
// false when the record was deleted or expired elsewhere in the meantime.
// Either way the Updater is set to clear the identifier, so an outstanding
// cookie is still removed.
func (s *State[R]) Delete(ctx context.Context) (bool, error) {
	if !s.spent.CompareAndSwap(false, true) {
		return false, ErrConsumed
	}

	deleted, err := s.store.Delete(ctx, s.id)
	if err != nil {
		return false, err
	}

	s.updater.setDelete()
	return deleted, nil
}

// Cycle consumes the state and rebinds the record to a new identifier.
// Use it when privileges change (for example, at login) to prevent session fixation.
//
// It returns (nil, nil) when the record vanished before the call; the Updater
// is left untouched in that case.
func (s *State[R]) Cycle(ctx context.Context) (*State[R], error) {
	if !s.spent.CompareAndSwap(false, true) {
		return nil, ErrConsumed
	}

	newID, ok, err := s.store.CycleID(ctx, s.id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	s.updater.setID(newID, s.data.Expires())
	return newState(newID, s.store, s.data, s.updater), nil
}

// DataMut exclusively owns session data while it is being changed.
// It must be resolved with Save; there is no implicit save.
type DataMut[R Record] struct {
	id      ID
	store   Store[R]
	data    R
	updater *Updater
	err     error
	spent   atomic.Bool
}

// Data returns a pointer for in-place mutation.
func (m *DataMut[R]) Data() *R {
	return &m.data
}

// Set replaces the session data.
func (m *DataMut[R]) Set(data R) {
	m.data = data
}

// Save persists the mutation and returns a fresh State.
//
// It returns (nil, nil) when the record was deleted or expired since it was
// loaded; the mutation is discarded. The Updater is not touched.
func (m *DataMut[R]) Save(ctx context.Context) (*State[R], error) {
	if m.err != nil {
		return nil, m.err
	}
	if !m.spent.CompareAndSwap(false, true) {
		return nil, ErrConsumed
	}

	ok, err := m.store.Save(ctx, m.id, m.data)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	return newState(m.id, m.store, m.data, m.updater), nil
}
