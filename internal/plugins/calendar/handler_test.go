package calendar

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func newTestHandler(t *testing.T) (*echo.Echo, *Handler) {
	t.Helper()
	svc := newTestService(t, []Event{
		{
			ID:       "a",
			Title:    "Go <Night>",
			Category: "meetup",
			Start:    at(2026, time.October, 20, 18, 0),
			End:      at(2026, time.October, 20, 19, 0),
		},
		evt("b", at(2026, time.November, 3, 9, 0)),
	})
	return echo.New(), NewHandler(svc)
}

func TestHandler_Show(t *testing.T) {
	e, h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/calendar?date=2026-10-01&mode=month", nil)
	rec := httptest.NewRecorder()
	if err := h.Show(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "October 2026") {
		t.Error("missing page title")
	}
	if !strings.Contains(body, "Go &lt;Night&gt;") || strings.Contains(body, "<Night>") {
		t.Error("event title should be escaped")
	}
	if !strings.Contains(body, "#059669") {
		t.Error("meetup color missing")
	}
}

func TestHandler_ShowRejectsBadInput(t *testing.T) {
	e, h := newTestHandler(t)
	for _, target := range []string{"/calendar?date=2026-02-30", "/calendar?mode=year"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		err := h.Show(e.NewContext(req, httptest.NewRecorder()))
		assertAppError(t, err, http.StatusBadRequest)
	}
}

func TestHandler_ListEventsAPI(t *testing.T) {
	e, h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events?from=2026-10-01&to=2026-10-31", nil)
	rec := httptest.NewRecorder()
	if err := h.ListEventsAPI(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp struct {
		From   string          `json:"from"`
		Events []EventResponse `json:"events"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.From != "2026-10-01" || len(resp.Events) != 1 || resp.Events[0].ID != "a" {
		t.Errorf("unexpected response %+v", resp)
	}
	if !strings.HasPrefix(resp.Events[0].ExportURL, DefaultExportBaseURL) {
		t.Errorf("missing export url: %q", resp.Events[0].ExportURL)
	}
}

func TestHandler_ListEventsAPI_RangeBound(t *testing.T) {
	e, h := newTestHandler(t)

	tests := []struct {
		name  string
		query string
		code  int
	}{
		{"whole calendar", "from=0001-01-01&to=9999-12-31", http.StatusUnprocessableEntity},
		{"one day too long", "from=2026-01-01&to=2027-01-02", http.StatusUnprocessableEntity},
		{"leap year", "from=2028-01-01&to=2028-12-31", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/events?"+tt.query, nil)
			rec := httptest.NewRecorder()
			err := h.ListEventsAPI(e.NewContext(req, rec))
			if tt.code == http.StatusOK {
				if err != nil || rec.Code != http.StatusOK {
					t.Errorf("err = %v, status = %d", err, rec.Code)
				}
				return
			}
			assertAppError(t, err, tt.code)
		})
	}
}

func TestHandler_GetEventAPI(t *testing.T) {
	e, h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("eid")
	c.SetParamValues("b")
	if err := h.GetEventAPI(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"id":"b"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("eid")
	c.SetParamValues("nope")
	assertAppError(t, h.GetEventAPI(c), http.StatusNotFound)
}

func TestHandler_FeedICS(t *testing.T) {
	e, h := newTestHandler(t)

	rec := httptest.NewRecorder()
	if err := h.FeedICS(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("content type = %q", ct)
	}
	if strings.Count(rec.Body.String(), "BEGIN:VEVENT") != 2 {
		t.Errorf("expected 2 events in feed:\n%s", rec.Body.String())
	}
}
