// Package mongo connects to MongoDB and stores sessions in it.
//
// New and NewWithDatabase open a client from Config (MONGODB_* environment
// variables) and ping it with retries; Healthcheck adapts the client to a
// liveness probe.
//
// SessionStore keeps one document per session:
//
//	{ _id: <session id>, data: <record as BSON>, expires_at: <deadline, optional> }
//
// Reads and conditional writes filter out documents whose deadline has
// passed, so a lapsed session is invisible at once. EnsureIndexes adds a TTL
// index on expires_at so the server removes such documents later; call
// DeleteExpired for an immediate purge.
//
// # Usage
//
//	db, err := mongo.NewWithDatabase(ctx, cfg, "")
//	if err != nil {
//	    return err
//	}
//	store := mongo.NewSessionStore[Visit](db, cfg)
//	if err := store.EnsureIndexes(ctx); err != nil {
//	    return err
//	}
//
// Record types must marshal to a BSON document, so use structs.
//
// CycleID is implemented with session.DefaultCycleID because MongoDB cannot
// rewrite _id. It is not atomic: a concurrent cycle of the same session can
// leave two live copies.
package mongo
