package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vidfriends/feedclient/internal/logging"
	"github.com/vidfriends/feedclient/internal/models"
)

// ErrInvalidSession is returned by Save for a session missing either half.
var ErrInvalidSession = errors.New("session requires both token and user")

// Store owns the persisted identity. It is the only writer of the token and
// user fields.
type Store struct {
	backend Backend
}

// NewStore constructs a Store over the provided backend.
func NewStore(backend Backend) *Store {
	if backend == nil {
		panic("session: backend must not be nil")
	}
	return &Store{backend: backend}
}

// Restore loads the persisted session. Anything short of two present,
// decodable and consistent fields counts as logged out, and whatever partial
// state was found is cleared. A restored session is unverified.
func (s *Store) Restore(ctx context.Context) (models.Session, bool) {
	logger := logging.FromContext(ctx)

	token, hasToken, err := s.backend.Get(ctx, KeyToken)
	if err != nil {
		logger.Warn("read persisted token", slog.String("error", err.Error()))
		s.clearQuietly(ctx)
		return models.Session{}, false
	}
	rawUser, hasUser, err := s.backend.Get(ctx, KeyUser)
	if err != nil {
		logger.Warn("read persisted user", slog.String("error", err.Error()))
		s.clearQuietly(ctx)
		return models.Session{}, false
	}

	if !hasToken && !hasUser {
		return models.Session{}, false
	}
	if !hasToken || !hasUser {
		logger.Info("discarding partial session", slog.Bool("hasToken", hasToken), slog.Bool("hasUser", hasUser))
		s.clearQuietly(ctx)
		return models.Session{}, false
	}

	var user models.UserProfile
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		logger.Warn("decode persisted user", slog.String("error", err.Error()))
		s.clearQuietly(ctx)
		return models.Session{}, false
	}

	sess := models.Session{Token: token, User: user}
	if !sess.Valid() || !user.Role.Valid() {
		logger.Info("discarding inconsistent session", slog.String("username", user.Username), slog.String("role", string(user.Role)))
		s.clearQuietly(ctx)
		return models.Session{}, false
	}
	return sess, true
}

// Save persists both fields.
func (s *Store) Save(ctx context.Context, sess models.Session) error {
	if !sess.Valid() {
		return ErrInvalidSession
	}
	rawUser, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.backend.Set(ctx, KeyToken, sess.Token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	if err := s.backend.Set(ctx, KeyUser, string(rawUser)); err != nil {
		s.clearQuietly(ctx)
		return fmt.Errorf("persist user: %w", err)
	}
	return nil
}

// Clear removes both fields together.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.backend.Delete(ctx, KeyToken, KeyUser); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *Store) clearQuietly(ctx context.Context) {
	if err := s.Clear(ctx); err != nil {
		logging.FromContext(ctx).Error("clear session", slog.String("error", err.Error()))
	}
}
