package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/polishrr/polishrr/internal/events"
	"github.com/polishrr/polishrr/internal/settings"
	"github.com/polishrr/polishrr/internal/upgrade"
)

// healthz is the liveness probe.
// GET /healthz
func (s *Server) healthz(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// getStatus returns the current run status.
// GET /api/status
func (s *Server) getStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, s.coordinator.Status())
}

// getUpgradeSummary returns eligibility counts, with per-item detail when
// requested.
// GET /api/upgrade-summary?detailed=true
func (s *Server) getUpgradeSummary(c echo.Context) error {
	detailed := c.QueryParam("detailed") == "true"
	return c.JSON(http.StatusOK, s.engine.UpgradeSummary(c.Request().Context(), detailed))
}

type triggerRequest struct {
	Target string `json:"target"`
}

type triggerResponse struct {
	Accepted bool   `json:"accepted"`
	RunID    string `json:"runId"`
}

// trigger accepts an upgrade run and executes it in the background.
// POST /api/trigger {"target": "movies"|"episodes"|"both"}
func (s *Server) trigger(c echo.Context) error {
	var req triggerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	target, err := upgrade.ParseTarget(req.Target)
	if err != nil {
		return s.httpError(c, err)
	}

	runID, err := s.coordinator.Trigger(target)
	if err != nil {
		if errors.Is(err, upgrade.ErrRunInProgress) {
			return echo.NewHTTPError(http.StatusConflict, "run already in progress")
		}
		return s.httpError(c, err)
	}

	return c.JSON(http.StatusAccepted, triggerResponse{Accepted: true, RunID: runID})
}

// getRecentUpgrades returns the items tagged by the most recent run.
// GET /api/recent-upgrades
func (s *Server) getRecentUpgrades(c echo.Context) error {
	return c.JSON(http.StatusOK, s.engine.Recent().Snapshot())
}

// getDownloadQueue returns the live download queues of both services.
// tagged=true short-circuits to the recent-upgrades cache, eligible=true to
// the current eligibility listing.
// GET /api/download-queue?tagged=&eligible=
func (s *Server) getDownloadQueue(c echo.Context) error {
	ctx := c.Request().Context()
	switch {
	case c.QueryParam("tagged") == "true":
		return c.JSON(http.StatusOK, s.engine.Recent().Snapshot())
	case c.QueryParam("eligible") == "true":
		return c.JSON(http.StatusOK, s.engine.EligibleItems(ctx))
	default:
		return c.JSON(http.StatusOK, s.engine.DownloadQueue(ctx))
	}
}

// getEligible lists the below-cutoff, untagged items per kind.
// GET /api/eligible
func (s *Server) getEligible(c echo.Context) error {
	return c.JSON(http.StatusOK, s.engine.EligibleItems(c.Request().Context()))
}

type itemRequest struct {
	Target string `json:"target"`
	ID     int64  `json:"id"`
}

func (s *Server) parseItemRequest(c echo.Context) (upgrade.Target, int64, error) {
	var req itemRequest
	if err := c.Bind(&req); err != nil {
		return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	target, err := upgrade.ParseTarget(req.Target)
	if err != nil {
		return 0, 0, s.httpError(c, err)
	}
	if req.ID == 0 {
		return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "id is required")
	}
	return target, req.ID, nil
}

// upgradeItem tags a single item and triggers a search for it.
// POST /api/upgrade-item {"target": ..., "id": ...}
func (s *Server) upgradeItem(c echo.Context) error {
	target, id, err := s.parseItemRequest(c)
	if err != nil {
		return err
	}
	if err := s.engine.UpgradeItem(c.Request().Context(), target, id); err != nil {
		return s.httpError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// forceUpgradeItem deletes the item's current file and triggers a search.
// POST /api/force-upgrade-item {"target": ..., "id": ...}
func (s *Server) forceUpgradeItem(c echo.Context) error {
	target, id, err := s.parseItemRequest(c)
	if err != nil {
		return err
	}
	if err := s.engine.ForceUpgradeItem(c.Request().Context(), target, id); err != nil {
		return s.httpError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// getSettings returns the runtime settings.
// GET /api/settings
func (s *Server) getSettings(c echo.Context) error {
	return c.JSON(http.StatusOK, s.settings.Get())
}

// updateSettings validates, persists and applies new runtime settings,
// rescheduling the periodic run when the cron expression changed.
// PUT /api/settings
func (s *Server) updateSettings(c echo.Context) error {
	var req settings.Settings
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := s.settings.Update(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if s.scheduler != nil {
		if err := s.scheduler.Reschedule(req.Cron); err != nil {
			s.logger.Error().Err(err).Msg("failed to reschedule upgrade job")
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("settings saved but schedule rejected: %v", err))
		}
	}
	return c.JSON(http.StatusOK, s.settings.Get())
}

// httpError maps engine errors to HTTP responses and publishes them on the
// event stream.
func (s *Server) httpError(c echo.Context, err error) error {
	s.broker.Publish(events.Event{Type: events.TypeError, Message: err.Error()})

	var vErr *upgrade.ValidationError
	if errors.As(err, &vErr) {
		return echo.NewHTTPError(http.StatusBadRequest, vErr.Msg)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
