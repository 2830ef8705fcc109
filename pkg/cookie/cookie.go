package cookie

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"
)

const minSecretLength = 32

// Manager writes and reads cookies with shared default attributes.
// With secrets configured it also signs values; the first secret signs and
// every secret verifies, so keys can be rotated without logging anyone out.
type Manager struct {
	secrets  []string
	defaults Options
}

// New creates a Manager. secrets may be empty, in which case only plain
// cookies are available and the signed helpers return ErrNoSecret.
func New(secrets []string, opts ...Option) (*Manager, error) {
	secrets = slices.DeleteFunc(slices.Clone(secrets), func(s string) bool { return s == "" })

	for i, s := range secrets {
		if len(s) < minSecretLength {
			return nil, fmt.Errorf("%w: secret %d has %d chars, need at least %d", ErrSecretTooShort, i, len(s), minSecretLength)
		}
	}

	defaults := Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}

	return &Manager{
		secrets:  secrets,
		defaults: applyOptions(defaults, opts),
	}, nil
}

// CanSign reports whether the manager holds at least one signing secret.
func (m *Manager) CanSign() bool {
	return len(m.secrets) > 0
}

// Defaults returns a copy of the default cookie attributes.
func (m *Manager) Defaults() Options {
	return m.defaults
}

func (m *Manager) Set(w http.ResponseWriter, name, value string, opts ...Option) {
	options := applyOptions(m.defaults, opts)

	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     options.Path,
		Domain:   options.Domain,
		MaxAge:   options.MaxAge,
		Secure:   options.Secure,
		HttpOnly: options.HttpOnly,
		SameSite: options.SameSite,
	}
	// Old clients ignore Max-Age.
	switch {
	case options.MaxAge < 0:
		cookie.Expires = time.Unix(0, 0)
	case !options.Expires.IsZero():
		cookie.Expires = options.Expires
	}

	http.SetCookie(w, cookie)
}

func (m *Manager) Get(r *http.Request, name string) (string, error) {
	cookie, err := r.Cookie(name)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrCookieNotFound
		}
		return "", err
	}
	return cookie.Value, nil
}

// Delete emits a removal cookie. The removal carries the same path and domain
// as the cookie it replaces, otherwise browsers keep the original.
func (m *Manager) Delete(w http.ResponseWriter, name string, opts ...Option) {
	opts = append(opts, WithMaxAge(-1))
	m.Set(w, name, "", opts...)
}

func (m *Manager) SetSigned(w http.ResponseWriter, name, value string, opts ...Option) error {
	signed, err := m.Sign(value)
	if err != nil {
		return err
	}
	m.Set(w, name, signed, opts...)
	return nil
}

func (m *Manager) GetSigned(r *http.Request, name string) (string, error) {
	signed, err := m.Get(r, name)
	if err != nil {
		return "", err
	}

	return m.Verify(signed)
}

// Sign returns value followed by its HMAC-SHA256 signature under the first secret.
func (m *Manager) Sign(value string) (string, error) {
	if !m.CanSign() {
		return "", ErrNoSecret
	}

	mac := hmac.New(sha256.New, []byte(m.secrets[0]))
	mac.Write([]byte(value))
	signature := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))

	return base64.RawURLEncoding.EncodeToString([]byte(value)) + "." + signature, nil
}

// Verify checks a value produced by Sign against every configured secret.
func (m *Manager) Verify(signed string) (string, error) {
	if !m.CanSign() {
		return "", ErrNoSecret
	}

	encodedValue, signature, ok := strings.Cut(signed, ".")
	if !ok {
		return "", ErrInvalidFormat
	}

	value, err := base64.RawURLEncoding.DecodeString(encodedValue)
	if err != nil {
		return "", ErrInvalidFormat
	}

	for _, secret := range m.secrets {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(value)
		expectedSig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))

		if subtle.ConstantTimeCompare([]byte(signature), []byte(expectedSig)) == 1 {
			return string(value), nil
		}
	}

	return "", ErrInvalidSignature
}
