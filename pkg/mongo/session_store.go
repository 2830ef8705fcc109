package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

type sessionDoc struct {
	ID        string     `bson:"_id"`
	Data      bson.Raw   `bson:"data"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty"`
}

// SessionStore implements session.Store on a MongoDB collection. Each
// record is embedded as a BSON document next to its optional deadline.
//
// MongoDB cannot change an _id in place, so CycleID falls back to
// session.DefaultCycleID and is not atomic.
type SessionStore[R session.Record] struct {
	coll *mongo.Collection
	opts session.StoreOptions
}

// NewSessionStore creates a store over db's cfg.SessionCollection.
// Call EnsureIndexes once at startup.
func NewSessionStore[R session.Record](db *mongo.Database, cfg Config, opts ...session.StoreOption) *SessionStore[R] {
	name := cfg.SessionCollection
	if name == "" {
		name = "sessions"
	}
	return &SessionStore[R]{
		coll: db.Collection(name),
		opts: session.ApplyStoreOptions(opts...),
	}
}

// EnsureIndexes creates the TTL index that lets the server drop lapsed
// documents on its own. Documents without expires_at are never dropped.
func (s *SessionStore[R]) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetName("expires_at_ttl").SetExpireAfterSeconds(0),
	})
	if err != nil {
		return errors.Join(ErrFailedToCreateIndexes, err)
	}
	return nil
}

func (s *SessionStore[R]) Create(ctx context.Context, record R) (session.ID, error) {
	doc, err := s.doc(session.ID{}, record)
	if err != nil {
		return session.ID{}, err
	}

	for range session.CreateAttempts {
		id, err := session.NewID()
		if err != nil {
			return session.ID{}, err
		}
		doc.ID = id.String()

		_, err = s.coll.InsertOne(ctx, doc)
		if mongo.IsDuplicateKeyError(err) {
			continue
		}
		if err != nil {
			return session.ID{}, err
		}
		return id, nil
	}
	return session.ID{}, session.ErrIDCollision
}

func (s *SessionStore[R]) Save(ctx context.Context, id session.ID, record R) (bool, error) {
	doc, err := s.doc(id, record)
	if err != nil {
		return false, err
	}

	res, err := s.coll.ReplaceOne(ctx, s.activeFilter(id), doc)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (s *SessionStore[R]) SaveOrCreate(ctx context.Context, id session.ID, record R) error {
	doc, err := s.doc(id, record)
	if err != nil {
		return err
	}

	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

func (s *SessionStore[R]) Load(ctx context.Context, id session.ID) (R, bool, error) {
	var zero R

	var doc sessionDoc
	err := s.coll.FindOne(ctx, s.activeFilter(id)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}

	var record R
	if err := bson.Unmarshal(doc.Data, &record); err != nil {
		return zero, false, errors.Join(session.ErrCodec, err)
	}
	return record, true, nil
}

// Delete removes the document and reports whether it was still active.
func (s *SessionStore[R]) Delete(ctx context.Context, id session.ID) (bool, error) {
	var doc sessionDoc
	err := s.coll.FindOneAndDelete(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return doc.ExpiresAt == nil || doc.ExpiresAt.After(s.opts.Now()), nil
}

func (s *SessionStore[R]) CycleID(ctx context.Context, old session.ID) (session.ID, bool, error) {
	return session.DefaultCycleID[R](ctx, s, old)
}

// DeleteExpired removes lapsed documents. The TTL index does the same in
// the background; this gives callers a deterministic purge.
func (s *SessionStore[R]) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": s.opts.Now()}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *SessionStore[R]) activeFilter(id session.ID) bson.M {
	return bson.M{
		"_id": id.String(),
		"$or": bson.A{
			bson.M{"expires_at": nil},
			bson.M{"expires_at": bson.M{"$gt": s.opts.Now()}},
		},
	}
}

func (s *SessionStore[R]) doc(id session.ID, record R) (sessionDoc, error) {
	data, err := bson.Marshal(record)
	if err != nil {
		return sessionDoc{}, errors.Join(session.ErrCodec, err)
	}

	doc := sessionDoc{ID: id.String(), Data: data}
	now := s.opts.Now()
	if deadline, ok := s.opts.Deadline(record.Expires(), now); ok {
		doc.ExpiresAt = &deadline
	}
	return doc, nil
}
