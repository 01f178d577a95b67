package api

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	apimw "github.com/polishrr/polishrr/internal/api/middleware"
)

func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())
	s.echo.Use(apimw.SecurityHeaders())
	s.echo.Use(middleware.BodyLimit("1M"))

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogMethod:   true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Err(v.Error).
					Msg("request error")
			} else {
				s.logger.Info().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Msg("request")
			}
			return nil
		},
	}))
}

// setupRoutes configures API routes. Everything except the liveness probe
// sits behind the bearer-token middleware.
func (s *Server) setupRoutes() {
	s.echo.GET("/healthz", s.healthz)

	api := s.echo.Group("/api")
	api.Use(apimw.TokenAuth(s.cfg.Auth.Token, s.cfg.Auth.AllowedIPs, s.logger))

	api.GET("/status", s.getStatus)
	api.GET("/upgrade-summary", s.getUpgradeSummary)
	api.POST("/trigger", s.trigger)
	api.GET("/events", s.streamEvents)
	api.GET("/events/ws", s.hub.HandleWebSocket)
	api.GET("/recent-upgrades", s.getRecentUpgrades)
	api.GET("/download-queue", s.getDownloadQueue)
	api.GET("/eligible", s.getEligible)
	api.POST("/upgrade-item", s.upgradeItem)
	api.POST("/force-upgrade-item", s.forceUpgradeItem)
	api.GET("/settings", s.getSettings)
	api.PUT("/settings", s.updateSettings)
}
