package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

// cycleScript renames KEYS[1] to KEYS[2] unless KEYS[2] is taken.
// Replies 1 on success, 0 when KEYS[1] is missing and -1 on collision.
// RENAMENX keeps the remaining TTL.
var cycleScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
if redis.call('RENAMENX', KEYS[1], KEYS[2]) == 0 then
	return -1
end
return 1
`)

// SessionStore implements session.Store on Redis. Each record is one string
// key holding the encoded record; expiry is enforced by the key TTL, so no
// cleanup job is needed.
type SessionStore[R session.Record] struct {
	client redis.UniversalClient
	prefix string
	codec  session.Codec[R]
	opts   session.StoreOptions
}

// NewSessionStore creates a store using cfg.SessionPrefix for its keys and
// JSON for its values.
func NewSessionStore[R session.Record](client redis.UniversalClient, cfg Config, opts ...session.StoreOption) *SessionStore[R] {
	return &SessionStore[R]{
		client: client,
		prefix: cfg.SessionPrefix,
		codec:  session.JSONCodec[R]{},
		opts:   session.ApplyStoreOptions(opts...),
	}
}

// WithCodec returns a copy of the store using codec for values.
func (s *SessionStore[R]) WithCodec(codec session.Codec[R]) *SessionStore[R] {
	c := *s
	c.codec = codec
	return &c
}

// Create writes the record with SET NX, drawing a new identifier on collision.
// A record whose deadline has already passed gets an identifier but is not written.
func (s *SessionStore[R]) Create(ctx context.Context, record R) (session.ID, error) {
	data, err := s.codec.Marshal(record)
	if err != nil {
		return session.ID{}, err
	}
	ttl, lapsed := s.ttl(record)

	for range session.CreateAttempts {
		id, err := session.NewID()
		if err != nil {
			return session.ID{}, err
		}
		if lapsed {
			return id, nil
		}

		ok, err := s.client.SetNX(ctx, s.key(id), data, ttl).Result()
		if err != nil {
			return session.ID{}, err
		}
		if ok {
			return id, nil
		}
	}
	return session.ID{}, session.ErrIDCollision
}

// Save overwrites an existing key with SET XX and refreshes its TTL.
func (s *SessionStore[R]) Save(ctx context.Context, id session.ID, record R) (bool, error) {
	data, err := s.codec.Marshal(record)
	if err != nil {
		return false, err
	}

	ttl, lapsed := s.ttl(record)
	if lapsed {
		n, err := s.client.Del(ctx, s.key(id)).Result()
		return n > 0, err
	}

	return s.client.SetXX(ctx, s.key(id), data, ttl).Result()
}

func (s *SessionStore[R]) SaveOrCreate(ctx context.Context, id session.ID, record R) error {
	data, err := s.codec.Marshal(record)
	if err != nil {
		return err
	}

	ttl, lapsed := s.ttl(record)
	if lapsed {
		return s.client.Del(ctx, s.key(id)).Err()
	}
	return s.client.Set(ctx, s.key(id), data, ttl).Err()
}

func (s *SessionStore[R]) Load(ctx context.Context, id session.ID) (R, bool, error) {
	var zero R

	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
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

func (s *SessionStore[R]) Delete(ctx context.Context, id session.ID) (bool, error) {
	n, err := s.client.Del(ctx, s.key(id)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CycleID renames the key atomically on the server, keeping its TTL.
func (s *SessionStore[R]) CycleID(ctx context.Context, old session.ID) (session.ID, bool, error) {
	for range session.CreateAttempts {
		id, err := session.NewID()
		if err != nil {
			return session.ID{}, false, err
		}

		reply, err := cycleScript.Run(ctx, s.client, []string{s.key(old), s.key(id)}).Int()
		if err != nil {
			return session.ID{}, false, err
		}

		switch reply {
		case 1:
			return id, true, nil
		case 0:
			return session.ID{}, false, nil
		case -1:
			continue
		default:
			return session.ID{}, false, fmt.Errorf("%w: %d", ErrUnexpectedScriptReply, reply)
		}
	}
	return session.ID{}, false, session.ErrIDCollision
}

func (s *SessionStore[R]) key(id session.ID) string {
	return s.prefix + id.String()
}

// ttl returns the key TTL for record, zero meaning none. lapsed is true
// when the record's deadline has already passed.
func (s *SessionStore[R]) ttl(record R) (ttl time.Duration, lapsed bool) {
	now := s.opts.Now()
	deadline, ok := s.opts.Deadline(record.Expires(), now)
	if !ok {
		return 0, false
	}

	ttl = deadline.Sub(now)
	if ttl <= 0 {
		return 0, true
	}
	// Redis TTLs have millisecond resolution; never round down to "no TTL".
	return max(ttl, time.Millisecond), false
}
