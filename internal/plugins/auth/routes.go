package auth

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/eventhub/internal/middleware"
)

// RegisterRoutes sets up all auth-related routes on the given Echo instance.
// Register and login are public -- the middleware is exported separately for
// other plugins to use on their route groups.
//
// POST endpoints are rate-limited to prevent brute-force and credential
// stuffing attacks: 10 attempts per IP per minute for login, 5 for register.
func RegisterRoutes(e *echo.Echo, h *Handler, service AuthService) {
	g := e.Group("/api/auth")
	g.POST("/login", h.Login, middleware.RateLimit(10, time.Minute))
	g.POST("/register", h.Register, middleware.RateLimit(5, time.Minute))
	g.GET("/verify", h.Verify, RequireAuth(service))
}
