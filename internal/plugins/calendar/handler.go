package calendar

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/eventhub/internal/apperror"
	"github.com/keyxmakerx/eventhub/internal/middleware"
)

// Handler processes HTTP requests for the public calendar.
type Handler struct {
	svc CalendarService
}

// NewHandler creates a new calendar Handler.
func NewHandler(svc CalendarService) *Handler {
	return &Handler{svc: svc}
}

// EventResponse is the JSON shape of one event, with its export link.
type EventResponse struct {
	Event
	ExportURL string `json:"export_url"`
}

// Show renders the calendar page for an optional date and mode.
// GET /calendar?date=YYYY-MM-DD&mode=month
func (h *Handler) Show(c echo.Context) error {
	var opts []ViewOption
	if q := c.QueryParam("date"); q != "" {
		d, err := ParseDate(q)
		if err != nil {
			return err
		}
		opts = append(opts, WithReference(d))
	}

	view := h.svc.NewView(opts...)
	if q := c.QueryParam("mode"); q != "" {
		if err := view.SetViewMode(ViewMode(q)); err != nil {
			return err
		}
	}

	page, err := view.Render()
	if err != nil {
		return err
	}
	return middleware.Render(c, http.StatusOK, CalendarPage(h.pageData(page)))
}

// pageData bundles a page with the service's presentation settings.
func (h *Handler) pageData(page Page) PageData {
	s := h.svc.Settings()
	return PageData{
		Page:       page,
		Theme:      s.Theme,
		WeekStart:  s.WeekStart,
		MaxPerCell: s.MaxEventsPerCell,
		Location:   s.Location,
	}
}

// ListEventsAPI returns events between two dates. Both default to the
// current month.
// GET /api/v1/events?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *Handler) ListEventsAPI(c echo.Context) error {
	today := DateOf(time.Now(), h.svc.Settings().Location)
	from, to := today.StartOfMonth(), today.EndOfMonth()

	if q := c.QueryParam("from"); q != "" {
		d, err := ParseDate(q)
		if err != nil {
			return err
		}
		from = d
	}
	if q := c.QueryParam("to"); q != "" {
		d, err := ParseDate(q)
		if err != nil {
			return err
		}
		to = d
	}

	events, err := h.svc.ListEvents(c.Request().Context(), from, to)
	if err != nil {
		return err
	}
	out := make([]EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, EventResponse{Event: e, ExportURL: h.svc.ExportURL(e)})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"from":   from,
		"to":     to,
		"events": out,
	})
}

// GetEventAPI returns one event.
// GET /api/v1/events/:eid
func (h *Handler) GetEventAPI(c echo.Context) error {
	e, err := h.svc.GetEvent(c.Request().Context(), c.Param("eid"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, EventResponse{Event: e, ExportURL: h.svc.ExportURL(e)})
}

// FeedICS serves every loaded event as an iCalendar feed.
// GET /api/v1/events.ics
func (h *Handler) FeedICS(c echo.Context) error {
	all := h.svc.Index().All()
	if len(all) == 0 && h.svc.LoadedAt().IsZero() {
		return apperror.NewNotFound("no events loaded")
	}
	feed := make([]FeedEvent, 0, len(all))
	for _, e := range all {
		feed = append(feed, FeedEvent{Event: e})
	}
	body := h.svc.Feed(feed, "Events")
	c.Response().Header().Set(echo.HeaderContentDisposition, `inline; filename="events.ics"`)
	return c.Blob(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}
