package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// RefreshFunc exchanges a refresh token for a new session. The session
// store never talks to the authorization server directly.
type RefreshFunc func(ctx context.Context, refreshToken string) (*Session, error)

// Store validates and renews sessions. Concurrent validations of the same
// stale session share a single in-flight refresh exchange: the refresh token
// is single-use on the server side, so a duplicate exchange would both waste
// a round trip and invalidate the winner's rotation.
type Store struct {
	refresh RefreshFunc
	logger  *slog.Logger
	group   singleflight.Group

	// now is the clock used for staleness checks. Tests override it.
	now func() time.Time
}

// NewStore creates a session store backed by the given refresh exchange.
func NewStore(refresh RefreshFunc, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		refresh: refresh,
		logger:  logger,
		now:     time.Now,
	}
}

// Current returns the persisted session without validating it.
// Returns ErrUnauthenticated when the backend has no session.
func (s *Store) Current(b Backend) (*Session, error) {
	sess, err := b.Load()
	if err != nil {
		return nil, fmt.Errorf("session: loading: %w", err)
	}

	if sess == nil {
		return nil, ErrUnauthenticated
	}

	return sess, nil
}

// EnsureValid returns a session whose tokens are valid right now. A fresh
// session is returned unchanged. A stale one triggers exactly one refresh
// exchange even under concurrent callers; every caller persists the full
// new session to its own backend before seeing it. A rejected refresh
// surfaces as ErrUnauthenticated.
func (s *Store) EnsureValid(ctx context.Context, b Backend) (*Session, error) {
	sess, err := s.Current(b)
	if err != nil {
		return nil, err
	}

	if !sess.Stale(s.now()) {
		return sess, nil
	}

	s.logger.Info("session stale, refreshing",
		slog.Time("expired_at", sess.ExpiresAt),
	)

	// Key by refresh token so unrelated sessions refresh independently
	// while concurrent callers on the same session share one exchange.
	v, err, shared := s.group.Do(sess.RefreshToken, func() (any, error) {
		return s.refresh(ctx, sess.RefreshToken)
	})
	if err != nil {
		s.logger.Warn("refresh exchange rejected", slog.String("error", err.Error()))

		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	fresh, ok := v.(*Session)
	if !ok || fresh == nil {
		return nil, fmt.Errorf("%w: refresh returned no session", ErrUnauthenticated)
	}

	if err := b.Save(fresh); err != nil {
		return nil, fmt.Errorf("session: persisting refreshed session: %w", err)
	}

	s.logger.Info("session refreshed",
		slog.Time("expires_at", fresh.ExpiresAt),
		slog.Bool("shared", shared),
	)

	return fresh, nil
}
