package session

import (
	"errors"
	"net/http"
)

// CompositeTransport reads the identifier from the first transport that
// carries one and binds or clears it on all of them. It lets browsers use
// the cookie while API clients use a header.
type CompositeTransport struct {
	transports []Transport
}

// NewCompositeTransport combines transports in lookup order.
func NewCompositeTransport(transports ...Transport) *CompositeTransport {
	return &CompositeTransport{transports: transports}
}

// ID returns the first identifier presented. A malformed carrier stops the
// lookup so a forged cookie cannot be masked by a valid header.
func (t *CompositeTransport) ID(r *http.Request) (string, error) {
	for _, transport := range t.transports {
		id, err := transport.ID(r)
		if errors.Is(err, ErrNoIDPresented) {
			continue
		}
		return id, err
	}
	return "", ErrNoIDPresented
}

func (t *CompositeTransport) Bind(w http.ResponseWriter, id ID, expiry Expiry) error {
	var errs []error
	for _, transport := range t.transports {
		errs = append(errs, transport.Bind(w, id, expiry))
	}
	return errors.Join(errs...)
}

func (t *CompositeTransport) Clear(w http.ResponseWriter) error {
	var errs []error
	for _, transport := range t.transports {
		errs = append(errs, transport.Clear(w))
	}
	return errors.Join(errs...)
}
