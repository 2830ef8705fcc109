package session

import (
	"github.com/dmitrymomot/sessionkit/pkg/cookie"
)

// Config holds the HTTP-facing session settings.
type Config struct {
	// CookieName is the name of the session cookie.
	CookieName   string `env:"SESSION_COOKIE_NAME" envDefault:"id"`
	CookiePath   string `env:"SESSION_COOKIE_PATH" envDefault:"/"`
	CookieDomain string `env:"SESSION_COOKIE_DOMAIN" envDefault:""`
	Secure       bool   `env:"SESSION_COOKIE_SECURE" envDefault:"true"`
	HttpOnly     bool   `env:"SESSION_COOKIE_HTTP_ONLY" envDefault:"true"`
	// SameSite is one of "strict", "lax" or "none".
	SameSite string `env:"SESSION_COOKIE_SAME_SITE" envDefault:"strict"`

	// Secrets, when set, sign the cookie value. Comma-separated, newest first.
	Secrets string `env:"SESSION_SECRETS" envDefault:""`

	// Header additionally carries the identifier in this header, for clients
	// without a cookie jar. The cookie is still read first.
	Header string `env:"SESSION_HEADER" envDefault:""`
}

// DefaultConfig returns default session configuration
func DefaultConfig() Config {
	return Config{
		CookieName: "id",
		CookiePath: "/",
		Secure:     true,
		HttpOnly:   true,
		SameSite:   "strict",
	}
}

// NewTransport builds the transport described by the config.
func (c Config) NewTransport() (Transport, error) {
	name := c.CookieName
	if name == "" {
		name = DefaultConfig().CookieName
	}

	mgr, err := cookie.NewFromConfig(cookie.Config{
		Secrets:  c.Secrets,
		Path:     c.CookiePath,
		Domain:   c.CookieDomain,
		Secure:   c.Secure,
		HttpOnly: c.HttpOnly,
		SameSite: c.SameSite,
	})
	if err != nil {
		return nil, err
	}
	cookies := NewCookieTransport(mgr, name)

	if c.Header != "" {
		return NewCompositeTransport(cookies, NewHeaderTransport(c.Header)), nil
	}
	return cookies, nil
}
