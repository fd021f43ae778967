// Package config loads scanlog settings from environment variables, applies
// defaults and validates the result once at startup. Values are then passed
// explicitly to the components that need them.
package config

import (
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	API      APIConfig
	Scanner  ScannerConfig
	Rate     RateLimitConfig
	CORS     CORSConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `env:"APP_ADDR" default:":8080"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"5s"`
	RequestTimeout  time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"30s"`

	// TimeZone interprets calendar-date filters and renders scan times.
	TimeZone string `env:"TZ_NAME" default:"Local"`
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string `env:"SQLITE_PATH" default:"scanlog.db"`

	// MigrationsDir overrides the embedded migrations when set.
	MigrationsDir string `env:"MIGRATIONS_DIR"`
}

// APIConfig describes how callers reach the backend API.
type APIConfig struct {
	// BaseURL is used by server-side and terminal callers. It may name an
	// internal host that browsers cannot resolve.
	BaseURL string `env:"API_BASE_URL" default:"http://localhost:8080"`

	// PublicBaseURL is handed to browsers. Empty means same origin.
	PublicBaseURL string `env:"PUBLIC_API_BASE_URL"`

	Timeout time.Duration `env:"API_TIMEOUT" default:"15s"`
}

// ScannerConfig holds scanning-station settings.
type ScannerConfig struct {
	Debounce      time.Duration `env:"SCAN_DEBOUNCE" default:"2s"`
	FocusInterval time.Duration `env:"SCAN_FOCUS_INTERVAL" default:"100ms"`
	ExportDir     string        `env:"EXPORT_DIR" default:"."`
}

// RateLimitConfig holds per-IP limits for the API.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"300"`
}

// CORSConfig lists browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" default:"info"`
	Format string `env:"LOG_FORMAT" default:"text"`

	// File redirects log output to an append-only file when set.
	File string `env:"LOG_FILE"`
}

// BrowserAPIBaseURL is the base URL embedded in pages served to browsers.
// It never falls back to API.BaseURL, which may be an internal service name.
func (c *Config) BrowserAPIBaseURL() string {
	return strings.TrimRight(strings.TrimSpace(c.API.PublicBaseURL), "/")
}

// Location resolves Server.TimeZone, defaulting to time.Local.
func (c *Config) Location() *time.Location {
	name := strings.TrimSpace(c.Server.TimeZone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local
	}
	return loc
}
