// Package session is a backend-agnostic session state engine.
//
// A session is a record of application-defined type R stored under an opaque,
// unguessable ID. R declares its own expiration policy by implementing Record:
//
//	type Visit struct {
//	    Count int `json:"count"`
//	}
//
//	func (Visit) Expires() session.Expiry { return session.OnInactivity(30 * time.Minute) }
//
// # Stores
//
// Store is the contract every backend satisfies: Create, Save, SaveOrCreate,
// Load, Delete and CycleID. Absence is reported through boolean results and
// never as an error; errors mean the backend failed. MemoryStore and LRUStore
// ship here; Redis, PostgreSQL and MongoDB backends live in sibling packages.
//
// CachingStore layers a fast cache Store in front of an authoritative one.
// The authoritative store assigns identifiers and decides existence; the
// cache mirrors it. Tier failures come back as *CacheError or *StoreError so
// callers can decide which ones are survivable.
//
// # Lifecycle
//
// A request starts with an unresolved Session. Load resolves it to a State
// (or nil when there is nothing to load), Create makes a new one. A State can
// be read, turned into a DataMut for changes, deleted or cycled to a new ID.
// DataMut must be saved explicitly; Save returns nil when the session was
// deleted or expired elsewhere in the meantime.
//
//	sess, _ := session.FromContext[Visit](r.Context())
//	state, err := sess.Load(ctx)
//	if err != nil {
//	    return err
//	}
//	if state == nil {
//	    state, err = sess.Create(ctx, Visit{Count: 1})
//	} else {
//	    mut := state.DataMut()
//	    mut.Data().Count++
//	    state, err = mut.Save(ctx)
//	}
//
// DataMut, Delete and Cycle consume their receiver. A second consuming call
// fails with ErrConsumed and does not reach the store.
//
// Every operation that changes which identifier the client should present
// (Create, Cycle, Delete) records it in the request's Updater. Saving data
// never does.
//
// # HTTP
//
// Manager reads the presented identifier through a Transport (CookieTransport
// or HeaderTransport), hands handlers a Session via the request context, and
// writes the Updater's final disposition to the response before headers are
// sent. A malformed identifier is logged as suspicious and treated as absent.
package session
