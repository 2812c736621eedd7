// Package session holds the signed-in state of the local installation.
//
// A Service is created once per process and handed to every consumer. It
// starts in StatusLoading, settles on Authenticated or Unauthenticated when
// Initialize has read the persisted session, and only changes afterwards
// through Login and Logout. Token and user are always set and cleared together.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/clipnest/clipnest/internal/models"
	"github.com/clipnest/clipnest/internal/sessionstore"
)

// Store is the persistence the service writes through
type Store interface {
	Write(token string, user models.User) error
	Read() (sessionstore.Session, bool)
	Clear() error
}

type subscriber struct {
	id int
	fn func(State)
}

// Service is the session state container
type Service struct {
	store     Store
	auth      Authenticator
	logger    zerolog.Logger
	validator *validator.Validate
	now       func() time.Time

	initOnce sync.Once
	ready    chan struct{}

	mu          sync.RWMutex
	status      Status
	token       string
	user        *models.User
	loggingIn   bool
	closed      bool
	subscribers []subscriber
	nextSubID   int
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides the time source used for generated user ids
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a service in the loading state. Call Initialize before use.
func NewService(store Store, auth Authenticator, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		store:     store,
		auth:      auth,
		logger:    logger.With().Str("component", "session").Logger(),
		validator: validator.New(),
		now:       time.Now,
		ready:     make(chan struct{}),
		status:    StatusLoading,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize loads the persisted session. Only the first call has an effect.
// A cancelled context settles the service as signed out without reading storage.
func (s *Service) Initialize(ctx context.Context) error {
	var err error
	s.initOnce.Do(func() {
		err = s.initialize(ctx)
	})
	return err
}

func (s *Service) initialize(ctx context.Context) error {
	defer close(s.ready)

	var (
		stored sessionstore.Session
		ok     bool
	)
	err := ctx.Err()
	if err == nil {
		stored, ok = s.store.Read()
	}

	s.mu.Lock()
	if ok {
		user := stored.User
		s.status = StatusAuthenticated
		s.token = stored.Token
		s.user = &user
	} else {
		s.status = StatusUnauthenticated
	}
	state, subs := s.snapshotLocked()
	s.mu.Unlock()

	if ok {
		s.logger.Info().Str("email", stored.User.Email).Msg("Restored persisted session")
	} else {
		s.logger.Debug().Msg("No persisted session, starting signed out")
	}
	notify(subs, state)
	return err
}

// Ready is closed once Initialize has completed
func (s *Service) Ready() <-chan struct{} {
	return s.ready
}

// Login authenticates creds, persists the new session and returns the user.
// On any error the current state is left untouched.
func (s *Service) Login(ctx context.Context, creds Credentials) (models.User, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if err := s.validator.Struct(creds); err != nil {
		return models.User{}, &LoginError{Reason: "a valid email address is required", Err: ErrInvalidCredentials}
	}

	if err := s.waitReady(ctx); err != nil {
		return models.User{}, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return models.User{}, ErrClosed
	}
	if s.loggingIn {
		s.mu.Unlock()
		return models.User{}, ErrLoginInProgress
	}
	s.loggingIn = true
	s.mu.Unlock()

	identity, err := s.auth.Authenticate(ctx, creds)
	if err == nil {
		// The caller may have gone away while the authenticator was working
		err = ctx.Err()
	}
	if err != nil {
		s.releaseLogin()
		return models.User{}, loginFailure(ctx, err)
	}
	if identity.Token == "" {
		s.releaseLogin()
		return models.User{}, &LoginError{Reason: "no session token was issued"}
	}

	user := buildUser(creds, identity.User, s.now())
	if err := s.store.Write(identity.Token, user); err != nil {
		s.releaseLogin()
		s.logger.Error().Err(err).Msg("Failed to persist session")
		return models.User{}, &LoginError{Reason: "the session could not be saved", Err: err}
	}

	s.mu.Lock()
	s.loggingIn = false
	s.status = StatusAuthenticated
	s.token = identity.Token
	s.user = &user
	state, subs := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info().Int64("user_id", user.ID).Str("email", user.Email).Msg("User logged in")
	notify(subs, state)

	return user, nil
}

// Logout clears the session from memory and storage. Logging out while
// signed out is a no-op apart from re-clearing storage.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.waitReady(ctx); err != nil {
		return err
	}

	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	clearErr := s.store.Clear()
	if clearErr != nil {
		s.logger.Warn().Err(clearErr).Msg("Failed to clear persisted session")
	}

	s.mu.Lock()
	wasAuthenticated := s.status == StatusAuthenticated
	s.status = StatusUnauthenticated
	s.token = ""
	s.user = nil
	state, subs := s.snapshotLocked()
	s.mu.Unlock()

	if wasAuthenticated {
		s.logger.Info().Msg("User logged out")
		notify(subs, state)
	}

	return clearErr
}

// Status returns the current authentication status
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// IsAuthenticated reports whether a user is loaded
func (s *Service) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// CurrentUser returns a copy of the signed-in user
func (s *Service) CurrentUser() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

// Token returns the current session token, empty when signed out
func (s *Service) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// State returns the current status and user
func (s *Service) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, _ := s.snapshotLocked()
	return state
}

// Subscribe registers fn to be called after every state change, in the
// goroutine that made the change. The returned func unsubscribes.
func (s *Service) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers = append(s.subscribers, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subscribers {
			if sub.id == id {
				s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
				return
			}
		}
	}
}

// Close drops all subscribers; later Login and Logout calls fail with ErrClosed
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.subscribers = nil
}

func (s *Service) waitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) releaseLogin() {
	s.mu.Lock()
	s.loggingIn = false
	s.mu.Unlock()
}

func (s *Service) snapshotLocked() (State, []subscriber) {
	state := State{Status: s.status}
	if s.user != nil {
		user := *s.user
		state.User = &user
	}
	subs := make([]subscriber, len(s.subscribers))
	copy(subs, s.subscribers)
	return state, subs
}

func notify(subs []subscriber, state State) {
	for _, sub := range subs {
		sub.fn(state)
	}
}

func loginFailure(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return ctxErr
	}
	var loginErr *LoginError
	if errors.As(err, &loginErr) {
		return loginErr
	}
	if errors.Is(err, ErrInvalidCredentials) {
		return &LoginError{Reason: "invalid email or password", Err: err}
	}
	return &LoginError{Reason: "could not reach the sign-in service", Err: err}
}
