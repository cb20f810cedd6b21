// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. Sensible defaults are provided for development.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Supported database drivers.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Config holds all application configuration. Populated from environment
// variables at startup. Passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port (default: 8080).
	Port int

	// BaseURL is the public-facing URL used for links and CORS.
	BaseURL string

	// LogLevel controls log verbosity: "debug", "info", "warn", "error".
	LogLevel string

	// Locale is the default language for user-visible messages (default: "en").
	Locale string

	// TrustedProxies are the CIDRs whose X-Forwarded-For headers are honored.
	TrustedProxies []string

	// CORSOrigins are the origins allowed to call the JSON API from a browser.
	CORSOrigins []string

	// Database holds user store connection settings.
	Database DatabaseConfig

	// Redis holds Redis connection settings.
	Redis RedisConfig

	// Auth holds token settings.
	Auth AuthConfig

	// Calendar holds event source and calendar rendering settings.
	Calendar CalendarConfig

	// Dashboard holds per-session workspace settings.
	Dashboard DashboardConfig

	// Mail holds outgoing SMTP settings for reminder emails.
	Mail MailConfig
}

// DatabaseConfig holds user store connection parameters. Driver selects
// between MariaDB/MySQL (production) and SQLite (local development).
// If DATABASE_URL is set, it takes precedence over the individual fields.
type DatabaseConfig struct {
	// Driver is "mysql" (default) or "sqlite".
	Driver string

	// Host is the MariaDB address in host:port format (default: "localhost:3306").
	// If no port is specified, 3306 is appended automatically.
	Host string

	// User is the MariaDB username (default: "eventhub").
	User string

	// Password is the MariaDB password (default: "eventhub").
	Password string

	// Name is the database name (default: "eventhub").
	Name string

	// SQLitePath is the database file used with the sqlite driver.
	SQLitePath string

	// dsnOverride is set when DATABASE_URL is provided, bypassing individual fields.
	dsnOverride string

	// MaxOpenConns is the maximum number of open connections in the pool.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections in the pool.
	MaxIdleConns int

	// ConnMaxLifetime is how long a connection can be reused.
	ConnMaxLifetime time.Duration
}

// DSN returns the connection string for the configured driver. For MySQL
// it is built with the driver's Config.FormatDSN() so special characters in
// passwords are escaped.
func (d DatabaseConfig) DSN() string {
	if d.dsnOverride != "" {
		return d.dsnOverride
	}
	if d.Driver == DriverSQLite {
		return d.SQLitePath + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = ensurePort(d.Host, "3306")
	cfg.DBName = d.Name
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

// ensurePort appends the default port if the host string doesn't include one.
func ensurePort(host, defaultPort string) string {
	if _, _, err := net.SplitHostPort(host); err != nil {
		return net.JoinHostPort(host, defaultPort)
	}
	return host
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379").
	// Empty disables Redis; registrations and reminders are then only logged.
	URL string
}

// Enabled reports whether a Redis URL is configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != ""
}

// AuthConfig holds bearer token settings.
type AuthConfig struct {
	// SecretKey is the HS256 signing key for bearer tokens.
	SecretKey string

	// TokenTTL is how long an issued token stays valid (default: 30 days).
	TokenTTL time.Duration
}

// CalendarConfig holds event source and rendering settings.
type CalendarConfig struct {
	// EventsPath is the YAML or ICS file events are loaded from.
	EventsPath string

	// Location is the time zone event starts are bound to calendar dates in.
	Location *time.Location

	// WeekStart is the first column of the grid (default: Sunday).
	WeekStart time.Weekday

	// MaxEventsPerCell is how many events a grid cell shows before "+N more".
	MaxEventsPerCell int

	// ExportBaseURL is the external calendar template endpoint.
	ExportBaseURL string

	// RecurrenceHorizon bounds open-ended rrule expansion.
	RecurrenceHorizon time.Duration

	// RecurrenceLimit caps occurrences generated per recurring event.
	RecurrenceLimit int

	// RefreshSchedule is the cron spec for reloading the event source.
	// Empty disables periodic refresh.
	RefreshSchedule string
}

// DashboardConfig holds per-session workspace settings.
type DashboardConfig struct {
	// IdleTTL is how long an untouched workspace survives before it is dropped.
	IdleTTL time.Duration

	// ReminderSchedule is the cron spec for the reminder dispatcher.
	ReminderSchedule string
}

// Mail encryption modes.
const (
	MailStartTLS = "starttls"
	MailSSL      = "ssl"
	MailNone     = "none"
)

// MailConfig holds outgoing SMTP settings. An empty Host disables email
// reminders.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string

	// FromAddress and FromName form the From header.
	FromAddress string
	FromName    string

	// Encryption is "starttls" (default), "ssl" or "none".
	Encryption string
}

// Enabled reports whether an SMTP host is configured.
func (m MailConfig) Enabled() bool {
	return m.Host != ""
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first when present; values
// already in the environment win. Returns an error if required variables
// are missing or malformed.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("ignoring unreadable .env file", slog.Any("error", err))
	}

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		BaseURL:  getEnv("BASE_URL", "http://localhost:8080"),
		LogLevel: getEnv("LOG_LEVEL", "debug"),
		Locale:   getEnv("LOCALE", "en"),

		TrustedProxies: getEnvList("TRUSTED_PROXIES", "127.0.0.0/8,10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,fd00::/8"),
		CORSOrigins:    getEnvList("CORS_ORIGINS", ""),

		Database: DatabaseConfig{
			Driver:          strings.ToLower(getEnv("DB_DRIVER", DriverMySQL)),
			Host:            getEnv("DB_HOST", "localhost:3306"),
			User:            getEnv("DB_USER", "eventhub"),
			Password:        getEnv("DB_PASSWORD", "eventhub"),
			Name:            getEnv("DB_NAME", "eventhub"),
			SQLitePath:      getEnv("SQLITE_PATH", "eventhub.db"),
			dsnOverride:     getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},

		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},

		Auth: AuthConfig{
			SecretKey: getEnv("SECRET_KEY", ""),
			TokenTTL:  getEnvDuration("AUTH_TOKEN_TTL", 720*time.Hour),
		},

		Calendar: CalendarConfig{
			EventsPath:        getEnv("EVENTS_PATH", "data/events.yaml"),
			MaxEventsPerCell:  getEnvInt("CALENDAR_MAX_EVENTS_PER_CELL", 3),
			ExportBaseURL:     getEnv("CALENDAR_EXPORT_BASE_URL", "https://calendar.google.com/calendar/render"),
			RecurrenceHorizon: getEnvDuration("CALENDAR_RECURRENCE_HORIZON", 365*24*time.Hour),
			RecurrenceLimit:   getEnvInt("CALENDAR_RECURRENCE_LIMIT", 100),
			RefreshSchedule:   getEnv("EVENTS_REFRESH_SCHEDULE", "@every 15m"),
		},

		Dashboard: DashboardConfig{
			IdleTTL:          getEnvDuration("DASHBOARD_IDLE_TTL", 12*time.Hour),
			ReminderSchedule: getEnv("REMINDER_SCHEDULE", "@every 1m"),
		},

		Mail: MailConfig{
			Host:        getEnv("SMTP_HOST", ""),
			Port:        getEnvInt("SMTP_PORT", 587),
			Username:    getEnv("SMTP_USERNAME", ""),
			Password:    getEnv("SMTP_PASSWORD", ""),
			FromAddress: getEnv("SMTP_FROM", "eventhub@localhost"),
			FromName:    getEnv("SMTP_FROM_NAME", "Event Hub"),
			Encryption:  strings.ToLower(getEnv("SMTP_ENCRYPTION", MailStartTLS)),
		},
	}

	loc, err := time.LoadLocation(getEnv("CALENDAR_TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("CALENDAR_TIMEZONE: %w", err)
	}
	cfg.Calendar.Location = loc

	weekStart, err := ParseWeekStart(getEnv("CALENDAR_WEEK_START", "sunday"))
	if err != nil {
		return nil, err
	}
	cfg.Calendar.WeekStart = weekStart

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Provide a dev-only default secret so local dev works without .env.
	if cfg.Auth.SecretKey == "" {
		cfg.Auth.SecretKey = "dev-secret-key-do-not-use-in-production!!"
	}

	return cfg, nil
}

// validate applies cross-field rules to the loaded configuration.
func (c *Config) validate() error {
	if c.Database.Driver != DriverMySQL && c.Database.Driver != DriverSQLite {
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverMySQL, DriverSQLite, c.Database.Driver)
	}

	if c.IsProduction() {
		if c.Auth.SecretKey == "" {
			return fmt.Errorf("SECRET_KEY is required in production")
		}
		if len(c.Auth.SecretKey) < 32 {
			return fmt.Errorf("SECRET_KEY must be at least 32 characters in production")
		}
	}

	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("AUTH_TOKEN_TTL must be positive")
	}
	if c.Calendar.MaxEventsPerCell < 1 {
		return fmt.Errorf("CALENDAR_MAX_EVENTS_PER_CELL must be at least 1")
	}

	if c.Mail.Enabled() {
		switch c.Mail.Encryption {
		case MailStartTLS, MailSSL, MailNone:
		default:
			return fmt.Errorf("SMTP_ENCRYPTION must be starttls, ssl or none, got %q", c.Mail.Encryption)
		}
		if c.Mail.Port <= 0 || c.Mail.Port > 65535 {
			return fmt.Errorf("SMTP_PORT must be a valid port")
		}
	}

	for name, spec := range map[string]string{
		"EVENTS_REFRESH_SCHEDULE": c.Calendar.RefreshSchedule,
		"REMINDER_SCHEDULE":       c.Dashboard.ReminderSchedule,
	} {
		if spec == "" {
			continue
		}
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	return nil
}

// ParseWeekStart maps "sunday" or "monday" to a weekday. Empty means Sunday.
func ParseWeekStart(s string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sunday", "sun":
		return time.Sunday, nil
	case "monday", "mon":
		return time.Monday, nil
	default:
		return time.Sunday, fmt.Errorf("CALENDAR_WEEK_START must be sunday or monday, got %q", s)
	}
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// IsProduction returns true for "production" and common variants.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Env)
	return env == "production" || env == "prod"
}

// SlogLevel maps LogLevel to a slog level. Unknown values fall back to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// --- Helper functions for reading environment variables ---

// getEnv reads a string env var or returns the default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvInt reads an integer env var or returns the default.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvDuration reads a duration env var (e.g., "720h") or returns the default.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// getEnvList reads a comma-separated env var, dropping empty items.
func getEnvList(key, defaultVal string) []string {
	var out []string
	for _, item := range strings.Split(getEnv(key, defaultVal), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
