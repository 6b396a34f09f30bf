// Package server implements the HTTP surface consumed by the browser UI:
// the auth/session routes and the hierarchy listing routes.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hubview/hubview/internal/aps"
	"github.com/hubview/hubview/internal/session"
)

const shutdownTimeout = 5 * time.Second

// Server serves the explorer API and the embedded host page.
type Server struct {
	auth     *aps.AuthClient
	data     *aps.Client
	sessions *session.Store
	logger   *slog.Logger

	// secureCookies marks session cookies Secure; enable behind TLS.
	secureCookies bool

	// now is the clock used for token TTLs. Tests override it.
	now func() time.Time

	router chi.Router
}

// New assembles the server and its routes.
func New(auth *aps.AuthClient, data *aps.Client, sessions *session.Store, logger *slog.Logger, secureCookies bool) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		auth:          auth,
		data:          data,
		sessions:      sessions,
		logger:        logger,
		secureCookies: secureCookies,
		now:           time.Now,
	}
	s.router = s.setupRouter()

	return s
}

func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Route("/api", func(r chi.Router) {
		r.Get("/auth/login", s.handleLogin)
		r.Get("/auth/callback", s.handleCallback)
		r.Get("/auth/logout", s.handleLogout)
		r.Get("/auth/profile", s.handleProfile)
		r.Get("/auth/token", s.handleToken)

		r.Get("/hubs", s.handleHubs)
		r.Get("/hubs/{hubID}/projects", s.handleProjects)
		r.Get("/hubs/{hubID}/projects/{projectID}/contents", s.handleContents)
		r.Get("/hubs/{hubID}/projects/{projectID}/contents/{itemID}/versions", s.handleVersions)
	})

	r.Get("/", s.handleIndex)

	return r
}

// Router returns the HTTP handler, for embedding and for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// ListenAndServe runs the server until ctx is canceled, then drains
// in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: shutdownTimeout,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("server shutdown error", slog.String("error", err.Error()))
		}
	}()

	s.logger.Info("listening", slog.String("addr", ln.Addr().String()))

	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// logRequests logs each request with its status and duration.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// cookies returns the session backend bound to this request/response pair.
func (s *Server) cookies(w http.ResponseWriter, r *http.Request) *session.CookieBackend {
	return session.NewCookieBackend(w, r, s.secureCookies)
}

// validSession ensures the request carries a valid session, refreshing it
// if stale. Writes a 401 and returns false when the user is logged out.
func (s *Server) validSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.EnsureValid(r.Context(), s.cookies(w, r))
	if err != nil {
		if errors.Is(err, session.ErrUnauthenticated) {
			writeError(w, http.StatusUnauthorized, "unauthorized")

			return nil, false
		}

		s.logger.Error("session validation failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "session validation failed")

		return nil, false
	}

	return sess, true
}
