package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/eventhub/internal/apperror"
)

// Handler handles HTTP requests for authentication (register, login, verify).
// Handlers are thin: they bind the request, call the service, and render the
// response. No business logic lives here.
type Handler struct {
	service AuthService
}

// NewHandler creates a new auth handler with the given service.
func NewHandler(service AuthService) *Handler {
	return &Handler{service: service}
}

// Register creates an account (POST /api/auth/register).
func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	input := RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	}

	token, claims, user, err := h.service.Register(c.Request().Context(), input)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, authResponse(token, claims, user))
}

// Login exchanges credentials for a token (POST /api/auth/login).
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	input := LoginInput{
		Email:    req.Email,
		Password: req.Password,
	}

	token, claims, user, err := h.service.Login(c.Request().Context(), input)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, authResponse(token, claims, user))
}

// Verify echoes the claims of a valid token (GET /api/auth/verify). The
// RequireAuth middleware has already rejected bad tokens.
func (h *Handler) Verify(c echo.Context) error {
	claims := GetClaims(c)
	if claims == nil {
		return apperror.NewMissingContext()
	}

	return c.JSON(http.StatusOK, map[string]any{
		"id":         claims.UserID,
		"email":      claims.Email,
		"session_id": claims.SessionID(),
		"expires_at": claims.ExpiresAt.Time,
	})
}

func authResponse(token string, claims *Claims, user *User) AuthResponse {
	return AuthResponse{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		User:      user,
	}
}
