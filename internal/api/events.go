package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// streamEvents streams run progress as server-sent events. The stream stays
// open until the client disconnects.
// GET /api/events
func (s *Server) streamEvents(c echo.Context) error {
	h := c.Response().Header()
	h.Set(echo.HeaderContentType, "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(http.StatusOK)

	// Comment line forces proxies to commit to the streaming response.
	if _, err := fmt.Fprint(c.Response(), ": stream start\n\n"); err != nil {
		return nil
	}
	c.Response().Flush()

	sub := s.broker.Subscribe()
	defer s.broker.Unsubscribe(sub)

	ctx := c.Request().Context()
	for {
		ev, ok := sub.Next(ctx)
		if !ok {
			return nil
		}
		data, err := json.Marshal(ev)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to encode event")
			continue
		}
		if _, err := fmt.Fprintf(c.Response(), "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
			return nil
		}
		c.Response().Flush()
	}
}
