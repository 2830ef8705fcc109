package session_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/cookie"
	"github.com/dmitrymomot/sessionkit/pkg/session"
)

func newComposite(t *testing.T) *session.CompositeTransport {
	t.Helper()
	mgr, err := cookie.New([]string{testSecret})
	require.NoError(t, err)
	return session.NewCompositeTransport(
		session.NewCookieTransport(mgr, "id"),
		session.NewHeaderTransport("X-Session-ID"),
	)
}

func TestCompositeTransport(t *testing.T) {
	t.Parallel()

	id, err := session.NewID()
	require.NoError(t, err)

	t.Run("binds on every transport", func(t *testing.T) {
		t.Parallel()
		tr := newComposite(t)

		rec := httptest.NewRecorder()
		require.NoError(t, tr.Bind(rec, id, session.OnSessionEnd()))

		assert.Equal(t, id.String(), rec.Header().Get("X-Session-ID"))
		assert.NotNil(t, sessionCookie(t, rec, "id"))
	})

	t.Run("reads header when no cookie", func(t *testing.T) {
		t.Parallel()
		tr := newComposite(t)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Session-ID", id.String())

		got, err := tr.ID(req)
		require.NoError(t, err)
		assert.Equal(t, id.String(), got)
	})

	t.Run("forged cookie is not masked by header", func(t *testing.T) {
		t.Parallel()
		tr := newComposite(t)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "id", Value: id.String() + ".forged"})
		req.Header.Set("X-Session-ID", id.String())

		_, err := tr.ID(req)
		assert.ErrorIs(t, err, session.ErrMalformedID)
	})

	t.Run("nothing presented", func(t *testing.T) {
		t.Parallel()
		tr := newComposite(t)

		_, err := tr.ID(httptest.NewRequest(http.MethodGet, "/", nil))
		assert.ErrorIs(t, err, session.ErrNoIDPresented)
	})

	t.Run("clears every transport", func(t *testing.T) {
		t.Parallel()
		tr := newComposite(t)

		rec := httptest.NewRecorder()
		require.NoError(t, tr.Clear(rec))

		values, present := rec.Header()["X-Session-Id"]
		require.True(t, present)
		assert.Equal(t, []string{""}, values)

		c := sessionCookie(t, rec, "id")
		require.NotNil(t, c)
		assert.Equal(t, -1, c.MaxAge)
	})
}

func TestConfig_NewTransport(t *testing.T) {
	t.Parallel()

	tr, err := session.DefaultConfig().NewTransport()
	require.NoError(t, err)
	assert.IsType(t, &session.CookieTransport{}, tr)

	cfg := session.DefaultConfig()
	cfg.Header = "X-Session-ID"
	tr, err = cfg.NewTransport()
	require.NoError(t, err)
	assert.IsType(t, &session.CompositeTransport{}, tr)

	cfg.Secrets = "short"
	_, err = cfg.NewTransport()
	assert.ErrorIs(t, err, cookie.ErrSecretTooShort)
}
