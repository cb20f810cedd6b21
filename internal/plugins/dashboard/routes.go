package dashboard

import (
	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/eventhub/internal/plugins/auth"
)

// RegisterRoutes sets up the session dashboard. Every route requires a
// bearer token; the token's jti selects the workspace.
func RegisterRoutes(e *echo.Echo, h *Handler, authSvc auth.AuthService) {
	me := e.Group("/api/v1/me", auth.RequireAuth(authSvc))

	me.GET("/calendar", h.Calendar)
	me.POST("/calendar/navigate", h.Navigate)
	me.PUT("/calendar/mode", h.SetViewMode)
	me.POST("/calendar/select-date", h.SelectDate)

	me.GET("/events.ics", h.FeedICS)
	me.POST("/events/:eid/select", h.SelectEvent)
	me.GET("/events/:eid/registration", h.Registration)
	me.POST("/events/:eid/register", h.Register)
	me.POST("/events/:eid/unregister", h.Unregister)
	me.PUT("/events/:eid/reminder-offset", h.SelectReminderOffset)
	me.POST("/events/:eid/reminder", h.SetReminder)
	me.GET("/events/:eid/export", h.Export)

	me.DELETE("/session", h.EndSession)
}
