package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/logger"
)

// CreateAttempts bounds how many fresh identifiers a store tries before
// giving up with ErrIDCollision.
const CreateAttempts = 8

// Record is the capability every stored payload must provide.
type Record interface {
	Expires() Expiry
}

// Cloner is implemented by records that hold reference types (maps, slices,
// pointers). In-memory stores clone such records on the way in and out so
// callers never share state with the stored copy.
type Cloner[R any] interface {
	Clone() R
}

// Store defines the contract every session backend must satisfy.
//
// Absence is never an error: a missing or lapsed record is reported through
// the boolean results. Errors are reserved for hard failures (connection,
// protocol, timeout, corruption). Implementations must be safe for concurrent use.
type Store[R Record] interface {
	// Create persists a brand-new record and returns its identifier.
	// It must never return an identifier that already names an active record;
	// on collision it regenerates rather than overwrites.
	Create(ctx context.Context, record R) (ID, error)

	// Save updates an existing active record. It returns false and writes
	// nothing if no active record exists for id.
	Save(ctx context.Context, id ID, record R) (bool, error)

	// SaveOrCreate persists the record under id unconditionally.
	// It exists for layers mirroring an identifier already minted by an
	// authoritative store. Using it elsewhere can revive a lapsed session or
	// extend its lifetime.
	SaveOrCreate(ctx context.Context, id ID, record R) error

	// Load returns the active record for id. The boolean is false when the
	// record is absent or lapsed.
	Load(ctx context.Context, id ID) (R, bool, error)

	// Delete removes the record and reports whether an active one existed.
	Delete(ctx context.Context, id ID) (bool, error)

	// CycleID rebinds the record to a new identifier and invalidates the old one.
	// The boolean is false when nothing was found under old.
	CycleID(ctx context.Context, old ID) (ID, bool, error)
}

// DefaultCycleID implements CycleID as load, create, delete.
//
// The sequence is not atomic. Two concurrent cyclers of the same identifier
// (or a cycle racing a delete) can leave two live copies under different
// identifiers. Backends that can rename atomically should do so instead.
func DefaultCycleID[R Record](ctx context.Context, s Store[R], old ID) (ID, bool, error) {
	record, ok, err := s.Load(ctx, old)
	if err != nil || !ok {
		return ID{}, false, err
	}

	newID, err := s.Create(ctx, record)
	if err != nil {
		return ID{}, false, err
	}

	if _, err := s.Delete(ctx, old); err != nil {
		return ID{}, false, err
	}
	return newID, true, nil
}

// StoreOptions holds settings shared by the bundled backends.
type StoreOptions struct {
	// Now is the clock used to compute and check deadlines.
	Now func() time.Time
	// SessionEndTTL, when positive, bounds how long OnSessionEnd records are kept.
	SessionEndTTL time.Duration
}

// StoreOption configures a bundled backend.
type StoreOption func(*StoreOptions)

// WithClock overrides the clock used for expiry decisions.
func WithClock(now func() time.Time) StoreOption {
	return func(o *StoreOptions) {
		if now != nil {
			o.Now = now
		}
	}
}

// WithSessionEndTTL bounds the storage lifetime of OnSessionEnd records.
func WithSessionEndTTL(ttl time.Duration) StoreOption {
	return func(o *StoreOptions) {
		o.SessionEndTTL = ttl
	}
}

// ApplyStoreOptions resolves options over the defaults.
func ApplyStoreOptions(opts ...StoreOption) StoreOptions {
	o := StoreOptions{Now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Deadline computes the storage deadline of a record written at now,
// applying SessionEndTTL to OnSessionEnd records.
func (o StoreOptions) Deadline(e Expiry, now time.Time) (time.Time, bool) {
	if deadline, ok := e.Deadline(now); ok {
		return deadline, true
	}
	if o.SessionEndTTL > 0 {
		return now.Add(o.SessionEndTTL), true
	}
	return time.Time{}, false
}

// Codec converts records to and from bytes for byte-oriented backends.
type Codec[R any] interface {
	Marshal(record R) ([]byte, error)
	Unmarshal(data []byte) (R, error)
}

// JSONCodec encodes records with encoding/json.
type JSONCodec[R any] struct{}

func (JSONCodec[R]) Marshal(record R) ([]byte, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, errors.Join(ErrCodec, err)
	}
	return data, nil
}

func (JSONCodec[R]) Unmarshal(data []byte) (R, error) {
	var record R
	if err := json.Unmarshal(data, &record); err != nil {
		return record, errors.Join(ErrCodec, err)
	}
	return record, nil
}

// ExpiredDeleter is implemented by backends that keep lapsed records until
// they are explicitly purged.
type ExpiredDeleter interface {
	// DeleteExpired removes lapsed records and returns how many were removed.
	DeleteExpired(ctx context.Context) (int64, error)
}

// RunExpiredDeletion purges lapsed records every interval until ctx is done.
// Failures are logged and the loop keeps going.
func RunExpiredDeletion(ctx context.Context, d ExpiredDeleter, interval time.Duration, log *slog.Logger) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			n, err := d.DeleteExpired(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.ErrorContext(ctx, "failed to delete expired sessions", logger.Error(err))
				continue
			}
			if n > 0 {
				log.DebugContext(ctx, "deleted expired sessions",
					slog.Int64("count", n), logger.Duration(time.Since(start)))
			}
		}
	}
}
