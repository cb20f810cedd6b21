package dashboard

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/eventhub/internal/apperror"
	"github.com/keyxmakerx/eventhub/internal/plugins/auth"
	"github.com/keyxmakerx/eventhub/internal/plugins/calendar"
	"github.com/keyxmakerx/eventhub/internal/plugins/registration"
)

// Localizer picks a session locale and renders labels in it.
type Localizer interface {
	Match(acceptLanguage string) string
	T(locale, key string, data map[string]any) string
}

// Handler serves the authenticated dashboard under /api/v1/me. Every
// request resolves the caller's workspace from the token's session id.
type Handler struct {
	store *Store
	cal   calendar.CalendarService
	tr    Localizer
}

// NewHandler creates a new dashboard handler.
func NewHandler(store *Store, cal calendar.CalendarService, tr Localizer) *Handler {
	return &Handler{store: store, cal: cal, tr: tr}
}

// Calendar returns the current page (GET /api/v1/me/calendar).
func (h *Handler) Calendar(c echo.Context) error {
	ws, err := h.workspace(c)
	if err != nil {
		return err
	}
	page, err := ws.Page()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// Navigate moves one month back, forward or to today
// (POST /api/v1/me/calendar/navigate).
func (h *Handler) Navigate(c echo.Context) error {
	var req NavigateRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	ws, err := h.workspace(c)
	if err != nil {
		return err
	}
	page, err := ws.Navigate(calendar.Direction(req.Direction))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// SetViewMode switches the layout (PUT /api/v1/me/calendar/mode).
func (h *Handler) SetViewMode(c echo.Context) error {
	var req ModeRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	ws, err := h.workspace(c)
	if err != nil {
		return err
	}
	page, err := ws.SetViewMode(calendar.ViewMode(req.Mode))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// SelectDate picks a day and returns its cell
// (POST /api/v1/me/calendar/select-date).
func (h *Handler) SelectDate(c echo.Context) error {
	var req SelectDateRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	d, err := calendar.ParseDate(req.Date)
	if err != nil {
		return err
	}
	ws, err := h.workspace(c)
	if err != nil {
		return err
	}
	cell, err := ws.SelectDate(d)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cell)
}

// SelectEvent opens an event's registration panel
// (POST /api/v1/me/events/:eid/select). Selecting the open event again
// reports opened=false.
func (h *Handler) SelectEvent(c echo.Context) error {
	ws, e, err := h.workspaceAndEvent(c)
	if err != nil {
		return err
	}
	opened, snap := ws.SelectEvent(e)
	return c.JSON(http.StatusOK, SelectEventResponse{
		Opened:       opened,
		Registration: h.registrationResponse(ws, e, snap, opened),
	})
}

// Registration returns the panel state (GET /api/v1/me/events/:eid/registration).
func (h *Handler) Registration(c echo.Context) error {
	ws, e, err := h.workspaceAndEvent(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.registrationResponse(ws, e, ws.Registration(e), false))
}

// Register signs up (POST /api/v1/me/events/:eid/register).
func (h *Handler) Register(c echo.Context) error {
	ws, e, err := h.workspaceAndEvent(c)
	if err != nil {
		return err
	}
	snap, changed := ws.Register(c.Request().Context(), e)
	return c.JSON(http.StatusOK, h.registrationResponse(ws, e, snap, changed))
}

// Unregister backs out (POST /api/v1/me/events/:eid/unregister).
func (h *Handler) Unregister(c echo.Context) error {
	ws, e, err := h.workspaceAndEvent(c)
	if err != nil {
		return err
	}
	snap, changed := ws.Unregister(e)
	return c.JSON(http.StatusOK, h.registrationResponse(ws, e, snap, changed))
}

// SelectReminderOffset picks a lead time
// (PUT /api/v1/me/events/:eid/reminder-offset).
func (h *Handler) SelectReminderOffset(c echo.Context) error {
	var req OffsetRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	offset, err := registration.ParseReminderOffset(req.Offset)
	if err != nil {
		return err
	}
	ws, e, err := h.workspaceAndEvent(c)
	if err != nil {
		return err
	}
	snap, changed := ws.SelectReminderOffset(e, offset)
	return c.JSON(http.StatusOK, h.registrationResponse(ws, e, snap, changed))
}

// SetReminder confirms the reminder (POST /api/v1/me/events/:eid/reminder).
func (h *Handler) SetReminder(c echo.Context) error {
	ws, e, err := h.workspaceAndEvent(c)
	if err != nil {
		return err
	}
	snap, changed := ws.SetReminder(e)
	return c.JSON(http.StatusOK, h.registrationResponse(ws, e, snap, changed))
}

// Export returns the "add to calendar" link, available in any state
// (GET /api/v1/me/events/:eid/export).
func (h *Handler) Export(c echo.Context) error {
	_, e, err := h.workspaceAndEvent(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"url": h.cal.ExportURL(e)})
}

// FeedICS serves the session's registered events with reminder alarms
// (GET /api/v1/me/events.ics).
func (h *Handler) FeedICS(c echo.Context) error {
	ws, err := h.workspace(c)
	if err != nil {
		return err
	}
	body := h.cal.Feed(ws.RegisteredFeed(), "My events")
	c.Response().Header().Set(echo.HeaderContentDisposition, `inline; filename="my-events.ics"`)
	return c.Blob(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}

// EndSession drops the workspace (DELETE /api/v1/me/session). The token
// stays valid; the next request starts a fresh workspace.
func (h *Handler) EndSession(c echo.Context) error {
	claims := auth.GetClaims(c)
	if claims == nil {
		return apperror.NewMissingContext()
	}
	if !h.store.Drop(claims.SessionID()) {
		return apperror.NewNotFound("no active workspace")
	}
	return c.NoContent(http.StatusNoContent)
}

// --- Helpers ---

// workspace resolves the caller's workspace, opening it on first use.
func (h *Handler) workspace(c echo.Context) (*Workspace, error) {
	claims := auth.GetClaims(c)
	if claims == nil {
		return nil, apperror.NewMissingContext()
	}
	locale := ""
	if accept := c.Request().Header.Get("Accept-Language"); accept != "" {
		locale = h.tr.Match(accept)
	}
	owner := registration.Owner{UserID: claims.UserID, Email: claims.Email}
	return h.store.Open(claims.SessionID(), owner, locale), nil
}

func (h *Handler) workspaceAndEvent(c echo.Context) (*Workspace, calendar.Event, error) {
	e, err := h.cal.GetEvent(c.Request().Context(), c.Param("eid"))
	if err != nil {
		return nil, calendar.Event{}, err
	}
	ws, err := h.workspace(c)
	if err != nil {
		return nil, calendar.Event{}, err
	}
	return ws, e, nil
}

func (h *Handler) registrationResponse(ws *Workspace, e calendar.Event, snap registration.Snapshot, changed bool) RegistrationResponse {
	locale := ws.Locale()
	snap.OffsetLabel = h.tr.T(locale, snap.ReminderOffset.LabelKey(), nil)

	offsets := make([]OffsetOption, 0, len(registration.Offsets))
	for _, o := range registration.Offsets {
		offsets = append(offsets, OffsetOption{Value: o, Label: h.tr.T(locale, o.LabelKey(), nil)})
	}

	return RegistrationResponse{
		Snapshot:  snap,
		Event:     e,
		ExportURL: h.cal.ExportURL(e),
		Offsets:   offsets,
		Changed:   changed,
	}
}
