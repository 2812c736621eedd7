// Package sessionstore persists the signed-in session so it survives restarts.
//
// The session is two entries written and cleared together: an opaque token and
// the JSON-encoded user. Anything other than both entries present and decodable
// is treated as "no session" and wiped.
package sessionstore

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/clipnest/clipnest/internal/models"
)

const (
	TokenKey = "clipnest_token"
	UserKey  = "clipnest_user"
)

// Session is a persisted token and the user it belongs to
type Session struct {
	Token string
	User  models.User
}

// Store reads and writes the session through a Backend
type Store struct {
	backend Backend
	logger  zerolog.Logger
}

// New creates a store on top of backend
func New(backend Backend, logger zerolog.Logger) *Store {
	return &Store{
		backend: backend,
		logger:  logger.With().Str("component", "sessionstore").Logger(),
	}
}

// Write stores token and user, replacing any previous session
func (s *Store) Write(token string, user models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	if err := s.backend.Set(TokenKey, token); err != nil {
		return fmt.Errorf("failed to save session token: %w", err)
	}

	if err := s.backend.Set(UserKey, string(data)); err != nil {
		// Never leave a token behind without its user
		if delErr := s.backend.Delete(TokenKey); delErr != nil {
			s.logger.Warn().Err(delErr).Msg("Failed to roll back session token")
		}
		return fmt.Errorf("failed to save session user: %w", err)
	}

	return nil
}

// Read returns the persisted session. Missing, partial or corrupt state
// reports false and is cleared.
func (s *Store) Read() (Session, bool) {
	token, err := s.backend.Get(TokenKey)
	if err != nil {
		return s.invalidate(err, "token")
	}

	raw, err := s.backend.Get(UserKey)
	if err != nil {
		return s.invalidate(err, "user")
	}

	if token == "" {
		return s.invalidate(errors.New("empty token"), "token")
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return s.invalidate(err, "user")
	}
	if user.Email == "" {
		return s.invalidate(errors.New("user has no email"), "user")
	}

	return Session{Token: token, User: user}, true
}

// Clear removes both entries. Absent entries are not an error.
func (s *Store) Clear() error {
	return errors.Join(
		s.backend.Delete(TokenKey),
		s.backend.Delete(UserKey),
	)
}

func (s *Store) invalidate(cause error, entry string) (Session, bool) {
	if errors.Is(cause, ErrNotFound) {
		s.logger.Debug().Str("entry", entry).Msg("No persisted session")
	} else {
		s.logger.Warn().Err(cause).Str("entry", entry).Msg("Discarding unreadable persisted session")
	}

	if err := s.Clear(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to clear persisted session")
	}
	return Session{}, false
}
