// Package bootstrap assembles the session service from configuration. The
// server and the CLI share it so they read and write the same store.
package bootstrap

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/clipnest/clipnest/internal/auth"
	"github.com/clipnest/clipnest/internal/config"
	"github.com/clipnest/clipnest/internal/session"
	"github.com/clipnest/clipnest/internal/sessionstore"
)

// Backend opens the configured storage backend. The returned func releases it.
func Backend(cfg config.SessionConfig) (sessionstore.Backend, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case config.BackendKeyring:
		return sessionstore.NewKeyringBackend(cfg.KeyringService), noop, nil
	case config.BackendSQLite:
		backend, err := sessionstore.OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return backend, backend.Close, nil
	case config.BackendMemory:
		return sessionstore.NewMemoryBackend(), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}
}

// Session builds a session service backed by the configured store and the
// mock authenticator. It still has to be initialized.
func Session(cfg config.SessionConfig, log zerolog.Logger) (*session.Service, func() error, error) {
	backend, release, err := Backend(cfg)
	if err != nil {
		return nil, nil, err
	}

	issuer, err := auth.NewTokenIssuer(cfg.TokenSecret)
	if err != nil {
		_ = release()
		return nil, nil, err
	}

	store := sessionstore.New(backend, log)
	sessions := session.NewService(store, auth.NewMockAuthenticator(issuer, cfg.LoginDelay), log)

	log.Debug().Str("backend", cfg.Backend).Dur("login_delay", cfg.LoginDelay).Msg("Session service ready")

	closeFn := func() error {
		sessions.Close()
		return release()
	}
	return sessions, closeFn, nil
}
