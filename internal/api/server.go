// Package api exposes the HTTP surface of the upgrade engine.
package api

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/polishrr/polishrr/internal/config"
	"github.com/polishrr/polishrr/internal/events"
	"github.com/polishrr/polishrr/internal/scheduler"
	"github.com/polishrr/polishrr/internal/settings"
	"github.com/polishrr/polishrr/internal/upgrade"
	"github.com/polishrr/polishrr/internal/websocket"
)

// Server handles HTTP requests for the polishrr API.
type Server struct {
	echo        *echo.Echo
	cfg         *config.Config
	logger      zerolog.Logger
	engine      *upgrade.Engine
	coordinator *upgrade.Coordinator
	settings    *settings.Store
	broker      *events.Broker
	hub         *websocket.Hub
	scheduler   *scheduler.Scheduler
}

// NewServer creates a new API server instance. scheduler may be nil when
// periodic runs are disabled.
func NewServer(
	cfg *config.Config,
	engine *upgrade.Engine,
	coordinator *upgrade.Coordinator,
	settingsStore *settings.Store,
	broker *events.Broker,
	hub *websocket.Hub,
	sched *scheduler.Scheduler,
	logger zerolog.Logger,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:        e,
		cfg:         cfg,
		logger:      logger.With().Str("component", "api").Logger(),
		engine:      engine,
		coordinator: coordinator,
		settings:    settingsStore,
		broker:      broker,
		hub:         hub,
		scheduler:   sched,
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Start begins serving on the configured address. It blocks until the
// server stops.
func (s *Server) Start() error {
	return s.echo.Start(s.cfg.Server.Address())
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
