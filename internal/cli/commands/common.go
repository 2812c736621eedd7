package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/clipnest/clipnest/internal/bootstrap"
	"github.com/clipnest/clipnest/internal/config"
	"github.com/clipnest/clipnest/internal/feed"
	"github.com/clipnest/clipnest/internal/logger"
	"github.com/clipnest/clipnest/internal/session"
)

// SessionOpener builds the session service a command works against
type SessionOpener func(cfg config.SessionConfig, log zerolog.Logger) (*session.Service, func() error, error)

// Option customizes how commands run. Production uses the defaults.
type Option func(*runner)

// WithOutput redirects command output
func WithOutput(w io.Writer) Option {
	return func(r *runner) { r.out = w }
}

// WithConfig skips loading configuration from the environment
func WithConfig(cfg *config.Config) Option {
	return func(r *runner) { r.loadConfig = func() (*config.Config, error) { return cfg, nil } }
}

// WithSessionOpener replaces the configured session store
func WithSessionOpener(open SessionOpener) Option {
	return func(r *runner) { r.openSession = open }
}

// WithBrowser replaces the function used to open URLs
func WithBrowser(open func(url string) error) Option {
	return func(r *runner) { r.openBrowser = open }
}

// WithVerbose points at the root --verbose flag
func WithVerbose(verbose *bool) Option {
	return func(r *runner) { r.verbose = verbose }
}

// WithInteractive forces interactive prompts on or off
func WithInteractive(interactive bool) Option {
	return func(r *runner) { r.interactive = func() bool { return interactive } }
}

type runner struct {
	out         io.Writer
	loadConfig  func() (*config.Config, error)
	openSession SessionOpener
	openBrowser func(url string) error
	loadFeed    func() (*feed.Feed, error)
	interactive func() bool
	verbose     *bool
}

func newRunner(opts ...Option) *runner {
	r := &runner{
		out:         os.Stdout,
		loadConfig:  config.Load,
		openSession: bootstrap.Session,
		openBrowser: openBrowser,
		loadFeed:    feed.Load,
		interactive: stdinIsTerminal,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *runner) logger() zerolog.Logger {
	level := "warn"
	if r.verbose != nil && *r.verbose {
		level = "debug"
	}
	return logger.New(os.Stderr, level, "console")
}

// withSession runs fn against an initialized session service and closes it afterwards
func (r *runner) withSession(ctx context.Context, fn func(*session.Service) error) error {
	cfg, err := r.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	sessions, closeFn, err := r.openSession(cfg.Session, r.logger())
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer func() { _ = closeFn() }()

	if err := sessions.Initialize(ctx); err != nil {
		return err
	}

	return fn(sessions)
}
