package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/cookie"
)

// CookieTransport implements Transport using a cookie.
// When the cookie manager holds secrets the value is signed.
type CookieTransport struct {
	cookieMgr  *cookie.Manager
	cookieName string
	now        func() time.Time
}

// NewCookieTransport creates a new cookie-based transport
func NewCookieTransport(cookieMgr *cookie.Manager, cookieName string) *CookieTransport {
	return &CookieTransport{
		cookieMgr:  cookieMgr,
		cookieName: cookieName,
		now:        time.Now,
	}
}

func (t *CookieTransport) ID(r *http.Request) (string, error) {
	var (
		value string
		err   error
	)
	if t.cookieMgr.CanSign() {
		value, err = t.cookieMgr.GetSigned(r, t.cookieName)
	} else {
		value, err = t.cookieMgr.Get(r, t.cookieName)
	}

	switch {
	case err == nil:
		return value, nil
	case errors.Is(err, cookie.ErrCookieNotFound):
		return "", ErrNoIDPresented
	default:
		return "", errors.Join(ErrMalformedID, err)
	}
}

// Bind writes the session cookie. OnSessionEnd produces a browser-session
// cookie; a deadline that has already passed removes the cookie instead.
func (t *CookieTransport) Bind(w http.ResponseWriter, id ID, expiry Expiry) error {
	now := t.now()
	maxAge, persistent := expiry.MaxAge(now)
	if persistent && maxAge == 0 {
		return t.Clear(w)
	}

	opts := []cookie.Option{cookie.WithMaxAge(maxAge)}
	if deadline, ok := expiry.Deadline(now); ok {
		opts = append(opts, cookie.WithExpires(deadline))
	}
	if t.cookieMgr.CanSign() {
		return t.cookieMgr.SetSigned(w, t.cookieName, id.String(), opts...)
	}
	t.cookieMgr.Set(w, t.cookieName, id.String(), opts...)
	return nil
}

func (t *CookieTransport) Clear(w http.ResponseWriter) error {
	t.cookieMgr.Delete(w, t.cookieName)
	return nil
}
