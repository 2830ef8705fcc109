package session

import (
	"net/http"

	"github.com/dmitrymomot/sessionkit/pkg/logger"
)

// Middleware places an unresolved Session in the request context and applies
// the handler's disposition to the response. The disposition is written right
// before the first byte of the response, or after the handler returns if it
// wrote nothing.
func (m *Manager[R]) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, updater := m.Session(r)

		sw := &sessionResponseWriter{
			ResponseWriter: w,
			apply: func(w http.ResponseWriter) {
				if err := m.Apply(w, updater); err != nil {
					m.log.ErrorContext(r.Context(), "failed to write session disposition", logger.Error(err))
				}
			},
		}

		next.ServeHTTP(sw, r.WithContext(WithSession(r.Context(), sess)))
		sw.flushSession()
	})
}

// sessionResponseWriter wraps http.ResponseWriter to emit the session
// disposition before headers go out.
type sessionResponseWriter struct {
	http.ResponseWriter
	apply   func(w http.ResponseWriter)
	applied bool
}

func (w *sessionResponseWriter) WriteHeader(statusCode int) {
	w.flushSession()
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *sessionResponseWriter) Write(b []byte) (int, error) {
	w.flushSession()
	return w.ResponseWriter.Write(b)
}

func (w *sessionResponseWriter) Flush() {
	w.flushSession()
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *sessionResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *sessionResponseWriter) flushSession() {
	if w.applied {
		return
	}
	w.applied = true
	w.apply(w.ResponseWriter)
}
