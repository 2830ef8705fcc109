package session

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/sessionkit/pkg/logger"
)

// Manager connects a Store to HTTP: it reads the presented identifier from
// each request and writes the request's final disposition back to the client.
type Manager[R Record] struct {
	store     Store[R]
	transport Transport
	log       *slog.Logger
}

// NewManager creates a Manager over store. Without WithTransport it builds a
// cookie transport from the config (DefaultConfig unless WithConfig is given).
func NewManager[R Record](store Store[R], opts ...Option) (*Manager[R], error) {
	o := managerOptions{
		config: DefaultConfig(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if store == nil {
		return nil, errors.New("session: manager requires a store")
	}

	transport := o.transport
	if transport == nil {
		var err error
		if transport, err = o.config.NewTransport(); err != nil {
			return nil, err
		}
	}

	return &Manager[R]{store: store, transport: transport, log: o.logger}, nil
}

// Session builds the unresolved session for r together with the Updater the
// lifecycle operations will report to. A malformed identifier is logged and
// treated as absent.
func (m *Manager[R]) Session(r *http.Request) (*Session[R], *Updater) {
	updater := NewUpdater()
	return New(m.presentedID(r), m.store, updater), updater
}

// Apply writes the recorded disposition to w. It does nothing when the
// session was left unchanged. It must run before the response headers are sent.
func (m *Manager[R]) Apply(w http.ResponseWriter, updater *Updater) error {
	update, ok := updater.Get()
	if !ok {
		return nil
	}

	switch update.Kind {
	case UpdateSet:
		return m.transport.Bind(w, update.ID, update.Expiry)
	case UpdateDelete:
		return m.transport.Clear(w)
	default:
		return nil
	}
}

func (m *Manager[R]) presentedID(r *http.Request) *ID {
	raw, err := m.transport.ID(r)
	if err != nil {
		if !errors.Is(err, ErrNoIDPresented) {
			m.log.WarnContext(r.Context(), "possibly suspicious activity: malformed session id", logger.Error(err))
		}
		return nil
	}

	id, err := ParseID(raw)
	if err != nil {
		m.log.WarnContext(r.Context(), "possibly suspicious activity: malformed session id", logger.Error(err))
		return nil
	}
	return &id
}
