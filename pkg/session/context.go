package session

import "context"

type sessionContextKey struct{}

// WithSession adds a session handle to the context
func WithSession[R Record](ctx context.Context, session *Session[R]) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, session)
}

// FromContext retrieves the session handle placed by Manager.Middleware.
// It returns ErrNoSession when the context carries none, or one for another record type.
func FromContext[R Record](ctx context.Context) (*Session[R], error) {
	session, ok := ctx.Value(sessionContextKey{}).(*Session[R])
	if !ok || session == nil {
		return nil, ErrNoSession
	}
	return session, nil
}

// MustFromContext is like FromContext but panics when no session is present.
func MustFromContext[R Record](ctx context.Context) *Session[R] {
	session, err := FromContext[R](ctx)
	if err != nil {
		panic("session: not found in context")
	}
	return session
}
