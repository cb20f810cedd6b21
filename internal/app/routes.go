package app

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/eventhub/internal/middleware"
	"github.com/keyxmakerx/eventhub/internal/plugins/auth"
	"github.com/keyxmakerx/eventhub/internal/plugins/calendar"
	"github.com/keyxmakerx/eventhub/internal/plugins/dashboard"
	"github.com/keyxmakerx/eventhub/internal/templates/layouts"
)

// RegisterRoutes sets up all application routes. It registers public routes
// directly and delegates to each plugin's route registration function.
//
// This is the single place where all routes are aggregated. When a new
// plugin is added, its routes are registered here.
func (a *App) RegisterRoutes() {
	e := a.Echo

	// Copy theme and language into the templ context for every HTML page.
	theme := a.Calendar.Settings().Theme
	middleware.LayoutInjector = func(c echo.Context, ctx context.Context) context.Context {
		ctx = layouts.SetStylesheet(ctx, theme.Stylesheet)
		ctx = layouts.SetActivePath(ctx, c.Request().URL.Path)
		ctx = layouts.SetLocale(ctx, a.requestLocale(c))
		if claims := auth.GetClaims(c); claims != nil {
			ctx = layouts.SetUserEmail(ctx, claims.Email)
		}
		return ctx
	}

	// --- Public Routes (no auth required) ---

	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusSeeOther, "/calendar")
	})

	// Health check endpoint for container health monitoring.
	e.GET("/healthz", a.healthz)

	// --- Plugin Routes ---

	// calendar plugin (public HTML page and event API)
	calendar.RegisterRoutes(e, calendar.NewHandler(a.Calendar))

	// auth plugin (register, login, verify)
	auth.RegisterRoutes(e, auth.NewHandler(a.Auth), a.Auth)

	// dashboard plugin (per-session calendar and registrations)
	dashboard.RegisterRoutes(e, dashboard.NewHandler(a.Workspaces, a.Calendar, a.Translator), a.Auth)
}

// healthz reports whether the user store is reachable and how fresh the
// event collection is.
func (a *App) healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := map[string]any{
		"status":     "ok",
		"events":     a.Calendar.Index().Len(),
		"workspaces": a.Workspaces.Len(),
	}
	if loaded := a.Calendar.LoadedAt(); !loaded.IsZero() {
		body["events_loaded_at"] = loaded
	}

	if a.DB != nil {
		if err := a.DB.PingContext(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body["database"] = "unreachable"
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body["redis"] = "unreachable"
		}
	}

	return c.JSON(status, body)
}
