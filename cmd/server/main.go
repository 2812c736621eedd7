package main

import (
	"fmt"
	"os"

	"github.com/common-nighthawk/go-figure"

	"github.com/clipnest/clipnest/internal/bootstrap"
	"github.com/clipnest/clipnest/internal/config"
	"github.com/clipnest/clipnest/internal/feed"
	"github.com/clipnest/clipnest/internal/logger"
	"github.com/clipnest/clipnest/internal/server"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.GetLogger()

	if cfg.Logging.Format == "console" {
		displayAppname("clipnest")
	}

	sessions, closeSessions, err := bootstrap.Session(cfg.Session, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open session store")
	}
	defer func() {
		if err := closeSessions(); err != nil {
			log.Error().Err(err).Msg("Failed to close session store")
		}
	}()

	content, err := feed.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load feed")
	}

	// Create server
	srv, err := server.New(cfg, log, sessions, content, version)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	log.Info().Str("version", version).Str("session_backend", cfg.Session.Backend).Msg("Starting Clipnest server...")

	// Start HTTP server (this blocks)
	if err := srv.Start(); err != nil {
		log.Error().Err(err).Msg("Server failed")
		_ = closeSessions()
		os.Exit(1)
	}
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
