package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cookiesByName(t *testing.T, rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	t.Helper()

	out := make(map[string]*http.Cookie)
	for _, c := range rec.Result().Cookies() {
		out[c.Name] = c
	}

	return out
}

func TestCookieSaveLoadRoundTrip(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	sess := &Session{
		InternalToken: "internal-1",
		PublicToken:   "public-1",
		RefreshToken:  "rt-1",
		ExpiresAt:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	require.NoError(t, NewCookieBackend(rec, req, false).Save(sess))

	// Replay the response cookies on a new request, as a browser would.
	next := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		next.AddCookie(c)
	}

	loaded, err := NewCookieBackend(httptest.NewRecorder(), next, false).Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, sess.InternalToken, loaded.InternalToken)
	assert.Equal(t, sess.PublicToken, loaded.PublicToken)
	assert.Equal(t, sess.RefreshToken, loaded.RefreshToken)
	assert.True(t, sess.ExpiresAt.Equal(loaded.ExpiresAt))
}

func TestCookieAttributes(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	require.NoError(t, NewCookieBackend(rec, req, true).Save(&Session{
		InternalToken: "i",
		PublicToken:   "p",
		RefreshToken:  "r",
		ExpiresAt:     time.Now(),
	}))

	byName := cookiesByName(t, rec)
	require.Len(t, byName, 4)

	for name, c := range byName {
		assert.True(t, c.HttpOnly, "%s must be HttpOnly", name)
		assert.True(t, c.Secure, "%s must be Secure", name)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite, "%s SameSite", name)
		assert.Equal(t, "/", c.Path, "%s path", name)
	}

	day := 24 * 60 * 60

	assert.Equal(t, day, byName["internal_token"].MaxAge)
	assert.Equal(t, day, byName["public_token"].MaxAge)
	assert.Equal(t, day, byName["expires_at"].MaxAge)
	// The refresh cookie outlives the access tokens.
	assert.Equal(t, 7*day, byName["refresh_token"].MaxAge)
}

func TestCookieLoadMissingRefresh(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "internal_token", Value: "i"})
	req.AddCookie(&http.Cookie{Name: "public_token", Value: "p"})
	req.AddCookie(&http.Cookie{Name: "expires_at", Value: "1767225600000"})

	sess, err := NewCookieBackend(httptest.NewRecorder(), req, false).Load()
	require.NoError(t, err)
	assert.Nil(t, sess, "session without a refresh token is not a session")
}

func TestCookieLoadNoCookies(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	sess, err := NewCookieBackend(httptest.NewRecorder(), req, false).Load()
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestCookieLoadBadExpiry(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "r"})
	req.AddCookie(&http.Cookie{Name: "expires_at", Value: "not-a-number"})

	_, err := NewCookieBackend(httptest.NewRecorder(), req, false).Load()
	assert.Error(t, err)
}

func TestCookieClear(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	require.NoError(t, NewCookieBackend(rec, req, false).Clear())

	byName := cookiesByName(t, rec)
	require.Len(t, byName, 4)

	for name, c := range byName {
		assert.Negative(t, c.MaxAge, "%s must be expired", name)
		assert.Empty(t, c.Value, "%s must be emptied", name)
	}
}
