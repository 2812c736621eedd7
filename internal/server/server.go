// Package server is the Clipnest web app: HTML pages, the session API and
// the route guard wiring.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/clipnest/clipnest/internal/config"
	"github.com/clipnest/clipnest/internal/feed"
	"github.com/clipnest/clipnest/internal/guard"
	"github.com/clipnest/clipnest/internal/metrics"
	"github.com/clipnest/clipnest/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// Server represents the HTTP server
type Server struct {
	router   *gin.Engine
	config   *config.Config
	logger   zerolog.Logger
	sessions *session.Service
	feed     *feed.Feed
	version  string
}

// New creates a new server instance. The session service is initialized by Start.
func New(cfg *config.Config, zlog zerolog.Logger, sessions *session.Service, content *feed.Feed, version string) (*Server, error) {
	server := &Server{
		config:   cfg,
		logger:   zlog,
		sessions: sessions,
		feed:     content,
		version:  version,
	}

	if err := server.setupRouter(); err != nil {
		return nil, err
	}

	return server, nil
}

// parseTemplates loads the embedded page templates
func parseTemplates() (*template.Template, error) {
	funcs := template.FuncMap{
		"lower": strings.ToLower,
		"join":  strings.Join,
	}

	tmpl, err := template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() error {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	tmpl, err := parseTemplates()
	if err != nil {
		return err
	}
	s.router.SetHTMLTemplate(tmpl)

	// Add middleware
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	// CORS middleware, for browser clients of the JSON API on other origins
	if len(s.config.Server.CORSOrigins) > 0 {
		s.router.Use(cors.New(cors.Config{
			AllowOrigins:     s.config.Server.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Public pages
	s.router.GET("/", s.landingPage)
	s.router.GET("/about", s.aboutPage)
	s.router.GET("/home", s.homePage)
	s.router.GET("/explore", s.explorePage)
	s.router.GET("/post/:id", s.postPage)

	// Authentication pages
	s.router.GET("/login", s.loginPage)
	s.router.POST("/login", s.login)
	s.router.POST("/login/google", s.googleLogin)
	s.router.GET("/signup", s.signupPage)
	s.router.POST("/signup", s.signup)
	s.router.POST("/logout", s.logout)

	// Pages behind the route guard
	protected := s.router.Group("/")
	protected.Use(guard.Require(s.sessions, s.logger, observeGuard))
	{
		protected.GET("/profile", s.profilePage)
		protected.GET("/create", s.createPostPage)
		protected.POST("/create", s.createPost)
		protected.POST("/post/:id/like", s.likePost)
		protected.POST("/post/:id/save", s.savePost)
		protected.POST("/post/:id/comments", s.addComment)
		protected.POST("/post/:id/comments/:cid/like", s.likeComment)
	}

	// JSON API
	api := s.router.Group("/api")
	{
		api.GET("/session", s.getSession)
		api.POST("/session", s.createSession)
		api.DELETE("/session", s.deleteSession)
		api.GET("/session/events", s.sessionEvents)
		api.GET("/posts", s.listPosts)
	}

	s.router.NoRoute(s.notFound)

	return nil
}

func observeGuard(d guard.Decision) {
	metrics.GuardDecisionsTotal.WithLabelValues(d.Action.String()).Inc()
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"session":   s.sessions.Status().String(),
		"timestamp": time.Now().UTC(),
		"service":   "clipnest",
		"version":   s.version,
	})
}

// Handler returns the HTTP handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start loads the persisted session in the background, serves HTTP and
// blocks until SIGINT/SIGTERM
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Pages behind the guard show a placeholder until this completes
	go func() {
		if err := s.sessions.Initialize(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("Session initialization interrupted")
		}
	}()

	srv := &http.Server{
		Addr:              s.config.Server.ListenAddr,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", srv.Addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.sessions.Close()
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	s.sessions.Close()
	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
