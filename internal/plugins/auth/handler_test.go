package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/eventhub/internal/apperror"
)

// newAuthEcho wires the auth routes against a mock repository and converts
// returned AppErrors into JSON the way the application error handler does.
func newAuthEcho(repo *mockUserRepo) (*echo.Echo, AuthService) {
	e := echo.New()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		_ = c.JSON(apperror.SafeCode(err), map[string]string{"message": apperror.SafeMessage(err)})
	}
	svc := newTestAuthService(repo)
	RegisterRoutes(e, NewHandler(svc), svc)
	return e, svc
}

func doJSON(e *echo.Echo, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandler_RegisterAndVerify(t *testing.T) {
	e, _ := newAuthEcho(&mockUserRepo{})

	rec := doJSON(e, http.MethodPost, "/api/auth/register",
		`{"email":"ann@example.com","name":"Ann","password":"secure-password-123"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp AuthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if resp.Token == "" || resp.User == nil || resp.User.Email != "ann@example.com" {
		t.Fatalf("response = %+v", resp)
	}
	if strings.Contains(rec.Body.String(), "password_hash") || strings.Contains(rec.Body.String(), "argon2id") {
		t.Error("password hash leaked into the response")
	}

	rec = doJSON(e, http.MethodGet, "/api/auth/verify", "", resp.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("verify status = %d, body %s", rec.Code, rec.Body.String())
	}
	var verified map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &verified)
	if verified["id"] != resp.User.ID || verified["email"] != "ann@example.com" {
		t.Errorf("verify body = %v", verified)
	}
}

func TestHandler_RegisterConflict(t *testing.T) {
	e, _ := newAuthEcho(&mockUserRepo{
		emailExistsFn: func(ctx context.Context, email string) (bool, error) { return true, nil },
	})
	rec := doJSON(e, http.MethodPost, "/api/auth/register",
		`{"email":"ann@example.com","password":"secure-password-123"}`, "")
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestHandler_LoginBadCredentials(t *testing.T) {
	e, _ := newAuthEcho(&mockUserRepo{})
	rec := doJSON(e, http.MethodPost, "/api/auth/login",
		`{"email":"nobody@example.com","password":"secure-password-123"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestHandler_BadBody(t *testing.T) {
	e, _ := newAuthEcho(&mockUserRepo{})
	rec := doJSON(e, http.MethodPost, "/api/auth/login", `{"email":`, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestRequireAuth(t *testing.T) {
	e, svc := newAuthEcho(&mockUserRepo{})
	token, claims, _, err := svc.Register(context.Background(), RegisterInput{
		Email: "ann@example.com", Password: "secure-password-123",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	var seenSession, seenUser string
	e.GET("/api/ping", func(c echo.Context) error {
		seenSession = GetSessionID(c)
		seenUser = GetUserID(c)
		return c.NoContent(http.StatusNoContent)
	}, RequireAuth(svc))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"lowercase scheme", "bearer " + token, http.StatusNoContent},
		{"valid", "Bearer " + token, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}

	if seenSession != claims.SessionID() || seenUser != claims.UserID {
		t.Errorf("context session=%q user=%q", seenSession, seenUser)
	}
}

func TestGetters_Unauthenticated(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if GetClaims(c) != nil || GetUserID(c) != "" || GetSessionID(c) != "" {
		t.Error("expected empty getters without the middleware")
	}
}
