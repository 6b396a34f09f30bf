package server

import (
	"log/slog"
	"net/http"

	"github.com/hubview/hubview/internal/session"
)

// handleLogin redirects the browser to the authorization server.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, s.auth.AuthorizeURL(""), http.StatusFound)
}

// handleCallback exchanges the authorization code, persists the session
// cookies in one response, and sends the browser back to the app root.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "authorization code is missing")

		return
	}

	tokens, err := s.auth.Login(r.Context(), code)
	if err != nil {
		s.logger.Error("code exchange failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "authentication failed")

		return
	}

	sess := &session.Session{
		InternalToken: tokens.InternalToken,
		PublicToken:   tokens.PublicToken,
		RefreshToken:  tokens.RefreshToken,
		ExpiresAt:     tokens.ExpiresAt,
	}

	if err := s.cookies(w, r).Save(sess); err != nil {
		s.logger.Error("persisting session failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "authentication failed")

		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// handleLogout clears the session cookies and sends the browser home.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.cookies(w, r).Clear(); err != nil {
		s.logger.Warn("clearing session failed", slog.String("error", err.Error()))
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// handleProfile returns the signed-in user's name and email.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.validSession(w, r)
	if !ok {
		return
	}

	profile, err := s.auth.UserInfo(r.Context(), sess.InternalToken)
	if err != nil {
		s.logger.Error("fetching profile failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to get user profile")

		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// tokenEnvelope is the shape the rendering engine's token callback expects.
type tokenEnvelope struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// handleToken hands the viewer its access token. Only the public
// (viewables-only) token crosses this boundary; the internal token must
// never appear here.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.validSession(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, tokenEnvelope{
		AccessToken: sess.PublicToken,
		ExpiresIn:   sess.TTL(s.now()),
	})
}
