package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

// DBTX is the part of pgxpool.Pool, pgx.Conn and pgx.Tx the store needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// active is the predicate for a live row; $now is always bound from the
// store clock so tests and the database agree on time.
const active = "(expires_at IS NULL OR expires_at > %s)"

type sessionQueries struct {
	create, save, saveOrCreate, load, delete, cycle, deleteExpired string
}

func newSessionQueries(table string) sessionQueries {
	t := pgx.Identifier{table}.Sanitize()
	return sessionQueries{
		// A lapsed row under the same id does not block creation.
		create: fmt.Sprintf(`INSERT INTO %s AS s (id, data, expires_at) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, expires_at = EXCLUDED.expires_at
			WHERE s.expires_at IS NOT NULL AND s.expires_at <= $4`, t),
		save: fmt.Sprintf(`UPDATE %s SET data = $2, expires_at = $3 WHERE id = $1 AND `+active, t, "$4"),
		saveOrCreate: fmt.Sprintf(`INSERT INTO %s (id, data, expires_at) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, expires_at = EXCLUDED.expires_at`, t),
		load:          fmt.Sprintf(`SELECT data FROM %s WHERE id = $1 AND `+active, t, "$2"),
		delete:        fmt.Sprintf(`DELETE FROM %s WHERE id = $1 RETURNING `+active, t, "$2"),
		cycle:         fmt.Sprintf(`UPDATE %s SET id = $2 WHERE id = $1 AND `+active, t, "$3"),
		deleteExpired: fmt.Sprintf(`DELETE FROM %s WHERE expires_at IS NOT NULL AND expires_at <= $1`, t),
	}
}

// SessionStore implements session.Store on a PostgreSQL table created by
// SessionMigrations. Lapsed rows stay invisible until DeleteExpired removes them.
type SessionStore[R session.Record] struct {
	db    DBTX
	q     sessionQueries
	codec session.Codec[R]
	opts  session.StoreOptions
}

// NewSessionStore creates a store over cfg.SessionTable.
func NewSessionStore[R session.Record](db DBTX, cfg Config, opts ...session.StoreOption) *SessionStore[R] {
	table := cfg.SessionTable
	if table == "" {
		table = "sessions"
	}
	return &SessionStore[R]{
		db:    db,
		q:     newSessionQueries(table),
		codec: session.JSONCodec[R]{},
		opts:  session.ApplyStoreOptions(opts...),
	}
}

// WithCodec returns a copy of the store using codec for the data column.
func (s *SessionStore[R]) WithCodec(codec session.Codec[R]) *SessionStore[R] {
	c := *s
	c.codec = codec
	return &c
}

func (s *SessionStore[R]) Create(ctx context.Context, record R) (session.ID, error) {
	data, expires, now, err := s.row(record)
	if err != nil {
		return session.ID{}, err
	}

	for range session.CreateAttempts {
		id, err := session.NewID()
		if err != nil {
			return session.ID{}, err
		}

		tag, err := s.db.Exec(ctx, s.q.create, id.String(), data, expires, now)
		if err != nil {
			return session.ID{}, err
		}
		if tag.RowsAffected() > 0 {
			return id, nil
		}
	}
	return session.ID{}, session.ErrIDCollision
}

func (s *SessionStore[R]) Save(ctx context.Context, id session.ID, record R) (bool, error) {
	data, expires, now, err := s.row(record)
	if err != nil {
		return false, err
	}

	tag, err := s.db.Exec(ctx, s.q.save, id.String(), data, expires, now)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *SessionStore[R]) SaveOrCreate(ctx context.Context, id session.ID, record R) error {
	data, expires, _, err := s.row(record)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, s.q.saveOrCreate, id.String(), data, expires)
	return err
}

func (s *SessionStore[R]) Load(ctx context.Context, id session.ID) (R, bool, error) {
	var zero R

	var data []byte
	err := s.db.QueryRow(ctx, s.q.load, id.String(), s.opts.Now()).Scan(&data)
	if IsNotFoundError(err) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}

	record, err := s.codec.Unmarshal(data)
	if err != nil {
		return zero, false, err
	}
	return record, true, nil
}

// Delete removes the row, lapsed or not, and reports whether it was active.
func (s *SessionStore[R]) Delete(ctx context.Context, id session.ID) (bool, error) {
	var wasActive bool
	err := s.db.QueryRow(ctx, s.q.delete, id.String(), s.opts.Now()).Scan(&wasActive)
	if IsNotFoundError(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return wasActive, nil
}

// CycleID rewrites the primary key in a single UPDATE, so the record moves
// atomically. A unique violation means the new id is taken and another is drawn.
func (s *SessionStore[R]) CycleID(ctx context.Context, old session.ID) (session.ID, bool, error) {
	for range session.CreateAttempts {
		id, err := session.NewID()
		if err != nil {
			return session.ID{}, false, err
		}

		tag, err := s.db.Exec(ctx, s.q.cycle, old.String(), id.String(), s.opts.Now())
		if IsDuplicateKeyError(err) {
			continue
		}
		if err != nil {
			return session.ID{}, false, err
		}
		if tag.RowsAffected() == 0 {
			return session.ID{}, false, nil
		}
		return id, true, nil
	}
	return session.ID{}, false, session.ErrIDCollision
}

// DeleteExpired removes lapsed rows. Run it periodically with
// session.RunExpiredDeletion.
func (s *SessionStore[R]) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, s.q.deleteExpired, s.opts.Now())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// row encodes record and computes its expires_at, nil meaning no deadline.
func (s *SessionStore[R]) row(record R) (data []byte, expires *time.Time, now time.Time, err error) {
	data, err = s.codec.Marshal(record)
	if err != nil {
		return nil, nil, time.Time{}, err
	}

	now = s.opts.Now()
	if deadline, ok := s.opts.Deadline(record.Expires(), now); ok {
		expires = &deadline
	}
	return data, expires, now, nil
}
