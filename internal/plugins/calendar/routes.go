package calendar

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up the public calendar routes. Nothing here needs a
// session; personal views live under /api/v1/me in the dashboard plugin.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.GET("/calendar", h.Show)

	api := e.Group("/api/v1")
	api.GET("/events", h.ListEventsAPI)
	api.GET("/events.ics", h.FeedICS)
	api.GET("/events/:eid", h.GetEventAPI)
}
