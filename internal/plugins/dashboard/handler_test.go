package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/eventhub/internal/apperror"
	"github.com/keyxmakerx/eventhub/internal/i18n"
	"github.com/keyxmakerx/eventhub/internal/plugins/auth"
	"github.com/keyxmakerx/eventhub/internal/plugins/calendar"
	"github.com/keyxmakerx/eventhub/internal/plugins/registration"
)

type testServer struct {
	e      *echo.Echo
	store  *Store
	tokens *auth.TokenManager
	sink   *recordingSink
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cal := newTestCalendar(t, testEvents())
	sink := &recordingSink{}
	store := NewStore(cal, sink, time.Hour)
	tokens := auth.NewTokenManager("dashboard-test-secret-key-0123456789", time.Hour)

	e := echo.New()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		_ = c.JSON(apperror.SafeCode(err), map[string]string{"message": apperror.SafeMessage(err)})
	}
	RegisterRoutes(e, NewHandler(store, cal, i18n.NewTranslator("en")), auth.NewAuthService(nil, tokens))
	return &testServer{e: e, store: store, tokens: tokens, sink: sink}
}

func (s *testServer) token(t *testing.T) (string, string) {
	t.Helper()
	token, claims, err := s.tokens.Issue(&auth.User{ID: "user-1", Email: "ann@example.com"})
	if err != nil {
		t.Fatal(err)
	}
	return token, claims.SessionID()
}

func (s *testServer) do(t *testing.T, method, path, body, token string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding %s: %v", rec.Body.String(), err)
	}
	return v
}

func TestHandler_RequiresToken(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/v1/me/calendar", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d", rec.Code)
	}
	if s.store.Len() != 0 {
		t.Error("no workspace should be created for anonymous requests")
	}
}

func TestHandler_CalendarNavigation(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.token(t)

	rec := s.do(t, http.MethodGet, "/api/v1/me/calendar", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	start := decode[calendar.Page](t, rec)
	if start.Mode != calendar.ModeMonth || len(start.Weeks) == 0 {
		t.Fatalf("page = %+v", start)
	}

	rec = s.do(t, http.MethodPost, "/api/v1/me/calendar/navigate", `{"direction":"next"}`, token)
	next := decode[calendar.Page](t, rec)
	if next.Reference.SameMonth(start.Reference) {
		t.Error("navigate next should change month")
	}

	rec = s.do(t, http.MethodPost, "/api/v1/me/calendar/navigate", `{"direction":"previous"}`, token)
	back := decode[calendar.Page](t, rec)
	if !back.Reference.SameMonth(start.Reference) {
		t.Errorf("round trip landed on %s, want month of %s", back.Reference, start.Reference)
	}

	rec = s.do(t, http.MethodPost, "/api/v1/me/calendar/navigate", `{"direction":"sideways"}`, token)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad direction status = %d", rec.Code)
	}
}

func TestHandler_ModeAndSelectDate(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.token(t)

	rec := s.do(t, http.MethodPut, "/api/v1/me/calendar/mode", `{"mode":"agenda"}`, token)
	if page := decode[calendar.Page](t, rec); page.Mode != calendar.ModeAgenda {
		t.Errorf("mode = %s", page.Mode)
	}
	rec = s.do(t, http.MethodPut, "/api/v1/me/calendar/mode", `{"mode":"year"}`, token)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad mode status = %d", rec.Code)
	}

	rec = s.do(t, http.MethodPost, "/api/v1/me/calendar/select-date", `{"date":"2026-10-20"}`, token)
	cell := decode[calendar.Cell](t, rec)
	if len(cell.Events) != 1 || cell.Events[0].ID != "go-night" {
		t.Errorf("cell = %+v", cell)
	}
	rec = s.do(t, http.MethodPost, "/api/v1/me/calendar/select-date", `{"date":"2026-02-30"}`, token)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid date status = %d", rec.Code)
	}
}

func TestHandler_RegistrationFlow(t *testing.T) {
	s := newTestServer(t)
	token, session := s.token(t)
	base := "/api/v1/me/events/go-night"

	rec := s.do(t, http.MethodPost, base+"/select", "", token)
	sel := decode[SelectEventResponse](t, rec)
	if !sel.Opened || sel.Registration.State != registration.StateUnregistered {
		t.Fatalf("select = %+v", sel)
	}
	if len(sel.Registration.Offsets) != 3 || sel.Registration.OffsetLabel != "15 minutes before" {
		t.Errorf("offsets = %+v label = %q", sel.Registration.Offsets, sel.Registration.OffsetLabel)
	}
	if again := decode[SelectEventResponse](t, s.do(t, http.MethodPost, base+"/select", "", token)); again.Opened {
		t.Error("second select should not open a new panel")
	}

	// Reminder before registering is a no-op.
	reg := decode[RegistrationResponse](t, s.do(t, http.MethodPost, base+"/reminder", "", token))
	if reg.Changed || reg.ReminderSet {
		t.Errorf("reminder before register applied: %+v", reg)
	}

	reg = decode[RegistrationResponse](t, s.do(t, http.MethodPost, base+"/register", "", token))
	if !reg.Changed || !reg.IsRegistered {
		t.Fatalf("register = %+v", reg)
	}
	if reg = decode[RegistrationResponse](t, s.do(t, http.MethodPost, base+"/register", "", token)); reg.Changed {
		t.Error("second register should be a no-op")
	}
	if s.sink.count() != 1 {
		t.Errorf("sink calls = %d", s.sink.count())
	}

	reg = decode[RegistrationResponse](t, s.do(t, http.MethodPut, base+"/reminder-offset", `{"offset":"1d"}`, token, "Accept-Language", "fr-FR"))
	if reg.State != registration.StateReminderPending || reg.ReminderOffset != registration.Offset1Day || reg.OffsetLabel != "1 jour avant" {
		t.Errorf("offset = %+v", reg)
	}
	if rec := s.do(t, http.MethodPut, base+"/reminder-offset", `{"offset":"2h"}`, token); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad offset status = %d", rec.Code)
	}

	reg = decode[RegistrationResponse](t, s.do(t, http.MethodPost, base+"/reminder", "", token))
	if !reg.ReminderSet || reg.State != registration.StateReminderSet {
		t.Errorf("reminder = %+v", reg)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/me/events.ics", "", token)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "BEGIN:VALARM") {
		t.Errorf("feed status=%d body=%s", rec.Code, rec.Body.String())
	}

	reg = decode[RegistrationResponse](t, s.do(t, http.MethodPost, base+"/unregister", "", token))
	if reg.IsRegistered || reg.ReminderSet || reg.ReminderOffset != registration.DefaultOffset {
		t.Errorf("unregister = %+v", reg)
	}

	if ws, ok := s.store.Get(session); !ok || ws.Locale() != "fr" {
		t.Error("workspace should be keyed by the token's session id and keep the negotiated locale")
	}
}

func TestHandler_Export(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.token(t)

	rec := s.do(t, http.MethodGet, "/api/v1/me/events/go-night/export", "", token)
	body := decode[map[string]string](t, rec)
	if !strings.Contains(body["url"], "action=TEMPLATE") || !strings.Contains(body["url"], "dates=20261020T180000/20261020T200000") {
		t.Errorf("url = %q", body["url"])
	}
}

func TestHandler_UnknownEvent(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.token(t)
	if rec := s.do(t, http.MethodPost, "/api/v1/me/events/nope/register", "", token); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestHandler_EndSession(t *testing.T) {
	s := newTestServer(t)
	token, session := s.token(t)

	s.do(t, http.MethodPost, "/api/v1/me/events/go-night/register", "", token)
	if rec := s.do(t, http.MethodDelete, "/api/v1/me/session", "", token); rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if _, ok := s.store.Get(session); ok {
		t.Error("workspace should be dropped")
	}
	if rec := s.do(t, http.MethodDelete, "/api/v1/me/session", "", token); rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d", rec.Code)
	}

	reg := decode[RegistrationResponse](t, s.do(t, http.MethodGet, "/api/v1/me/events/go-night/registration", "", token))
	if reg.IsRegistered {
		t.Error("a new workspace starts unregistered")
	}
}
