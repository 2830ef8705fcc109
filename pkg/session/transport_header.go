package session

import (
	"net/http"
	"strings"
	"time"
)

// HeaderTransport implements Transport using HTTP headers, for API clients
// that do not keep cookies.
type HeaderTransport struct {
	headerName string
	prefix     string
	now        func() time.Time
}

// HeaderOption is a functional option for HeaderTransport
type HeaderOption func(*HeaderTransport)

// WithHeaderPrefix sets a prefix for the header value, such as "Bearer ".
func WithHeaderPrefix(prefix string) HeaderOption {
	return func(t *HeaderTransport) {
		t.prefix = prefix
	}
}

// NewHeaderTransport creates a new header-based transport
func NewHeaderTransport(headerName string, opts ...HeaderOption) *HeaderTransport {
	t := &HeaderTransport{
		headerName: http.CanonicalHeaderKey(headerName),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// ID returns the header value with the configured prefix removed. A value
// without the prefix, or with nothing after it, presents no identifier.
func (t *HeaderTransport) ID(r *http.Request) (string, error) {
	value := r.Header.Get(t.headerName)
	if t.prefix != "" {
		rest, ok := strings.CutPrefix(value, t.prefix)
		if !ok {
			return "", ErrNoIDPresented
		}
		value = rest
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", ErrNoIDPresented
	}
	return value, nil
}

// Bind sets the identifier header and, when the record has a deadline, an
// "<header>-Expires" header in RFC 3339.
func (t *HeaderTransport) Bind(w http.ResponseWriter, id ID, expiry Expiry) error {
	w.Header().Set(t.headerName, t.prefix+id.String())

	if deadline, ok := expiry.Deadline(t.now()); ok {
		w.Header().Set(t.headerName+"-Expires", deadline.UTC().Format(time.RFC3339))
	} else {
		w.Header().Del(t.headerName + "-Expires")
	}
	return nil
}

// Clear sends the header with an empty value so clients can tell removal
// apart from an unchanged session.
func (t *HeaderTransport) Clear(w http.ResponseWriter) error {
	w.Header().Set(t.headerName, "")
	w.Header().Del(t.headerName + "-Expires")
	return nil
}
