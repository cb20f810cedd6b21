// Package app is the application bootstrap and dependency injection root.
// It holds the shared infrastructure (DB pool, optional Redis client, Echo
// instance) and wires together the calendar, auth, registration and
// dashboard plugins.
package app

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/keyxmakerx/eventhub/internal/apperror"
	"github.com/keyxmakerx/eventhub/internal/config"
	"github.com/keyxmakerx/eventhub/internal/i18n"
	"github.com/keyxmakerx/eventhub/internal/middleware"
	"github.com/keyxmakerx/eventhub/internal/plugins/auth"
	"github.com/keyxmakerx/eventhub/internal/plugins/calendar"
	"github.com/keyxmakerx/eventhub/internal/plugins/dashboard"
	"github.com/keyxmakerx/eventhub/internal/plugins/registration"
	"github.com/keyxmakerx/eventhub/internal/plugins/smtp"
	"github.com/keyxmakerx/eventhub/internal/scheduler"
	"github.com/keyxmakerx/eventhub/internal/templates/pages"
)

// App holds all shared dependencies and the Echo HTTP server instance.
// Created once at startup in main.go and used to register all routes.
type App struct {
	// Config holds the loaded application configuration.
	Config *config.Config

	// DB is the user store connection pool.
	DB *sql.DB

	// Redis carries registrations and reminders when configured; nil
	// otherwise.
	Redis *redis.Client

	// Echo is the HTTP server instance.
	Echo *echo.Echo

	// Translator localizes error messages and labels.
	Translator *i18n.Translator

	Calendar   calendar.CalendarService
	Auth       auth.AuthService
	Workspaces *dashboard.Store
	Dispatcher *registration.Dispatcher
}

// New creates the App, its services and the Echo server with global
// middleware and error handling. source feeds the event collection; it is
// not loaded until LoadEvents is called.
func New(cfg *config.Config, db *sql.DB, rdb *redis.Client, source calendar.Source) (*App, error) {
	e := echo.New()

	// Disable Echo's default banner and startup message -- we log our own.
	e.HideBanner = true
	e.HidePort = true

	// Rate limiting keys on c.RealIP(), which must not trust arbitrary
	// forwarding headers.
	if err := middleware.TrustedProxies(e, cfg.TrustedProxies); err != nil {
		return nil, err
	}

	a := &App{
		Config:     cfg,
		DB:         db,
		Redis:      rdb,
		Echo:       e,
		Translator: i18n.NewTranslator(cfg.Locale),
	}
	a.wireServices(source)

	// Register global middleware in order of execution.
	a.setupMiddleware()

	// Register the custom error handler that maps AppErrors to HTTP responses.
	e.HTTPErrorHandler = a.errorHandler

	return a, nil
}

// wireServices builds the plugin services. Without Redis, registrations
// and reminders go to the log. Reminders are also emailed when SMTP is
// configured.
func (a *App) wireServices(source calendar.Source) {
	cfg := a.Config

	a.Calendar = calendar.NewCalendarService(source, calendar.Settings{
		Location:         cfg.Calendar.Location,
		WeekStart:        cfg.Calendar.WeekStart,
		MaxEventsPerCell: cfg.Calendar.MaxEventsPerCell,
		ExportBaseURL:    cfg.Calendar.ExportBaseURL,
		Theme:            calendar.DefaultTheme(),
	}, cfg.BaseURL)

	tokens := auth.NewTokenManager(cfg.Auth.SecretKey, cfg.Auth.TokenTTL)
	a.Auth = auth.NewAuthService(auth.NewUserRepository(a.DB), tokens)

	var (
		sink     registration.Sink     = registration.LogSink{}
		notifier registration.Notifier = registration.LogNotifier{}
	)
	if a.Redis != nil {
		sink = registration.NewRedisSink(a.Redis, registration.DefaultRegistrationsKey)
		notifier = registration.NewRedisNotifier(a.Redis, registration.DefaultRemindersChannel)
	}
	if cfg.Mail.Enabled() {
		mailer := registration.NewMailNotifier(smtp.NewSMTPService(cfg.Mail))
		notifier = registration.Notifiers{notifier, mailer}
	}

	a.Workspaces = dashboard.NewStore(a.Calendar, sink, cfg.Dashboard.IdleTTL)
	a.Dispatcher = registration.NewDispatcher(a.Workspaces, notifier, a.Translator, cfg.Calendar.Location)
}

// setupMiddleware registers global middleware on the Echo instance.
// Order matters: outermost (recovery) runs first.
func (a *App) setupMiddleware() {
	// Panic recovery -- must be outermost to catch panics from all other middleware.
	a.Echo.Use(middleware.Recovery())

	// Request logging -- log every request with method, path, status, latency.
	a.Echo.Use(middleware.RequestLogger())

	// Security headers -- CSP, X-Frame-Options, X-Content-Type-Options, etc.
	a.Echo.Use(middleware.SecurityHeaders(a.Config.IsProduction()))

	// CORS -- browser clients of the JSON API on other origins.
	a.Echo.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: a.Config.CORSOrigins,
	}))
}

// Jobs returns the background work to schedule.
func (a *App) Jobs() []scheduler.Job {
	var jobs []scheduler.Job
	if spec := a.Config.Calendar.RefreshSchedule; spec != "" {
		jobs = append(jobs, scheduler.RefreshEvents(spec, a.Calendar, a.Workspaces))
	}
	if spec := a.Config.Dashboard.ReminderSchedule; spec != "" {
		jobs = append(jobs, scheduler.DispatchReminders(spec, a.Dispatcher))
	}
	if a.Config.Dashboard.IdleTTL > 0 {
		jobs = append(jobs, scheduler.SweepWorkspaces("@every 5m", a.Workspaces))
	}
	return jobs
}

// errorHandler is the custom Echo error handler. It maps domain errors
// (AppError) to HTTP responses: JSON for API requests and the error page
// for browsers. The client sees the message for the error type in the
// request's language when a translation exists.
func (a *App) errorHandler(err error, c echo.Context) {
	// Don't double-write if response is already committed.
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	errType := apperror.TypeInternal
	message := "An unexpected error occurred"

	var appErr *apperror.AppError
	var echoErr *echo.HTTPError
	switch {
	case errors.As(err, &appErr):
		code = appErr.Code
		errType = appErr.Type
		message = appErr.Message

		// Log internal errors with the underlying cause.
		if appErr.Internal != nil && code >= 500 {
			slog.Error("internal error",
				slog.String("type", appErr.Type),
				slog.String("message", appErr.Message),
				slog.Any("internal", appErr.Internal),
				slog.String("path", c.Request().URL.Path),
				slog.String("request_id", middleware.RequestID(c)),
			)
		}
	case errors.As(err, &echoErr):
		// Echo's built-in HTTP errors (404 from the router, bind failures).
		code = echoErr.Code
		errType = typeForStatus(code)
		message = http.StatusText(code)
		if msg, ok := echoErr.Message.(string); ok {
			message = msg
		}
	default:
		slog.Error("unhandled error",
			slog.Any("error", err),
			slog.String("path", c.Request().URL.Path),
			slog.String("request_id", middleware.RequestID(c)),
		)
	}

	locale := a.requestLocale(c)
	localized, ok := a.Translator.Lookup(locale, "error."+errType, nil)
	if !ok {
		localized = message
	}

	var writeErr error
	if middleware.IsAPIRequest(c) {
		writeErr = c.JSON(code, map[string]string{
			"error":   errType,
			"message": message,
			"title":   localized,
		})
	} else {
		writeErr = middleware.Render(c, code, pages.ErrorPage(code, localized))
	}
	if writeErr != nil {
		slog.Warn("writing error response failed", slog.Any("error", writeErr))
	}
}

// typeForStatus classifies router and binder errors.
func typeForStatus(code int) string {
	switch code {
	case http.StatusNotFound:
		return apperror.TypeNotFound
	case http.StatusUnauthorized:
		return apperror.TypeUnauthorized
	case http.StatusForbidden:
		return apperror.TypeForbidden
	case http.StatusTooManyRequests:
		return apperror.TypeTooManyRequests
	case http.StatusInternalServerError:
		return apperror.TypeInternal
	default:
		return apperror.TypeBadRequest
	}
}

// requestLocale negotiates the response language from Accept-Language.
func (a *App) requestLocale(c echo.Context) string {
	return a.Translator.Match(c.Request().Header.Get("Accept-Language"))
}

// Start begins listening for HTTP requests on the configured port.
func (a *App) Start() error {
	addr := fmt.Sprintf(":%d", a.Config.Port)
	slog.Info("starting eventhub server",
		slog.String("addr", addr),
		slog.String("env", a.Config.Env),
	)
	return a.Echo.Start(addr)
}
