package session

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Cookie names. One cookie per session field so the refresh cookie can
// outlive the access tokens.
const (
	cookieInternalToken = "internal_token"
	cookiePublicToken   = "public_token"
	cookieRefreshToken  = "refresh_token"
	cookieExpiresAt     = "expires_at"
)

// Cookie lifetimes. Access tokens and the expiry instant live a day; the
// refresh cookie lives a week so a returning user renews silently.
const (
	tokenCookieMaxAge   = 24 * 60 * 60
	refreshCookieMaxAge = 7 * 24 * 60 * 60
)

// CookieBackend persists a session as four HttpOnly same-site cookies on a
// single request/response pair. Save writes all four in one response, so
// the client never observes a partial update.
type CookieBackend struct {
	w      http.ResponseWriter
	r      *http.Request
	secure bool
}

// NewCookieBackend wraps one request/response pair. secure marks the
// cookies Secure (set it behind TLS).
func NewCookieBackend(w http.ResponseWriter, r *http.Request, secure bool) *CookieBackend {
	return &CookieBackend{w: w, r: r, secure: secure}
}

// Load reconstructs the session from the request's cookies. Returns
// (nil, nil) when the refresh token or expiry cookie is missing — the
// access-token cookies alone cannot be renewed.
func (c *CookieBackend) Load() (*Session, error) {
	refresh, err := c.r.Cookie(cookieRefreshToken)
	if err != nil {
		return nil, nil
	}

	expiresAt, err := c.r.Cookie(cookieExpiresAt)
	if err != nil {
		return nil, nil
	}

	// Epoch milliseconds, stored as a string.
	ms, err := strconv.ParseInt(expiresAt.Value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("session: invalid expires_at cookie: %w", err)
	}

	sess := &Session{
		RefreshToken: refresh.Value,
		ExpiresAt:    time.UnixMilli(ms),
	}

	if internal, err := c.r.Cookie(cookieInternalToken); err == nil {
		sess.InternalToken = internal.Value
	}

	if public, err := c.r.Cookie(cookiePublicToken); err == nil {
		sess.PublicToken = public.Value
	}

	return sess, nil
}

// Save writes all four session cookies to the response.
func (c *CookieBackend) Save(s *Session) error {
	c.set(cookieInternalToken, s.InternalToken, tokenCookieMaxAge)
	c.set(cookiePublicToken, s.PublicToken, tokenCookieMaxAge)
	c.set(cookieRefreshToken, s.RefreshToken, refreshCookieMaxAge)
	c.set(cookieExpiresAt, strconv.FormatInt(s.ExpiresAt.UnixMilli(), 10), tokenCookieMaxAge)

	return nil
}

// Clear expires all four session cookies.
func (c *CookieBackend) Clear() error {
	c.set(cookieInternalToken, "", -1)
	c.set(cookiePublicToken, "", -1)
	c.set(cookieRefreshToken, "", -1)
	c.set(cookieExpiresAt, "", -1)

	return nil
}

func (c *CookieBackend) set(name, value string, maxAge int) {
	http.SetCookie(c.w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
