package session

import (
	"net/http"
)

// Transport carries the session identifier between client and server.
type Transport interface {
	// ID returns the raw identifier presented by the request.
	// It returns ErrNoIDPresented when there is none, and ErrMalformedID when
	// the carrier itself is invalid (for example, a bad signature).
	ID(r *http.Request) (string, error)

	// Bind tells the client to present id from now on, for as long as expiry allows.
	Bind(w http.ResponseWriter, id ID, expiry Expiry) error

	// Clear tells the client to forget any identifier it holds.
	Clear(w http.ResponseWriter) error
}
