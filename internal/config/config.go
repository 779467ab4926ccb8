// Package config provides centralized configuration management for the repair
// service. It loads configuration from environment variables with sensible
// defaults and validates all settings on startup to fail fast on
// misconfiguration.
package config

import (
	"strconv"
	"time"

	"github.com/JonMunkholm/csvrepair/internal/repair"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Repair   RepairConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	History  HistoryConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading the request body (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing the response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds settings for the repair history store.
// When URL is empty, history is kept in memory and lost on restart.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// Enabled reports whether a database URL was configured.
func (c *DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// RepairConfig holds repair pipeline and request-handling settings.
type RepairConfig struct {
	// LineEnding is the output line terminator: lf or crlf (default: lf)
	LineEnding string `env:"REPAIR_LINE_ENDING" default:"lf"`

	// TranscodeUTF16 decodes UTF-16 input instead of dropping its NULs (default: false)
	TranscodeUTF16 bool `env:"REPAIR_TRANSCODE_UTF16" default:"false"`

	// StripNulls removes NUL bytes before UTF-8 decode (default: false)
	StripNulls bool `env:"REPAIR_STRIP_NULLS" default:"false"`

	// RiskSkipLeadingSpace ignores leading whitespace in the formula check (default: true)
	RiskSkipLeadingSpace bool `env:"REPAIR_RISK_SKIP_SPACE" default:"true"`

	// MaxInputSize is the maximum accepted input in bytes (default: 100MB)
	MaxInputSize int64 `env:"REPAIR_MAX_INPUT_SIZE" default:"104857600"`

	// MaxConcurrent is the maximum number of repairs held in memory at once (default: 5)
	MaxConcurrent int `env:"REPAIR_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long to wait for a repair slot (default: 30s)
	MaxWaitTime time.Duration `env:"REPAIR_MAX_WAIT_TIME" default:"30s"`
}

// PipelineOptions converts the settings into repair pipeline options.
// LineEnding must already have passed Validate.
func (c *RepairConfig) PipelineOptions() repair.Options {
	le, _ := repair.ParseLineEnding(c.LineEnding)
	return repair.Options{
		LineEnding:     le,
		TranscodeUTF16: c.TranscodeUTF16,
		StripNulls:     c.StripNulls,
		MaxInputSize:   c.MaxInputSize,
	}
}

// InjectionGuard returns the formula-injection policy.
func (c *RepairConfig) InjectionGuard() repair.InjectionGuard {
	return repair.InjectionGuard{SkipLeadingSpace: c.RiskSkipLeadingSpace}
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey enforces X-API-Key on /api routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// HistoryConfig holds repair history listing settings.
type HistoryConfig struct {
	// DefaultLimit is the page size when the client does not ask for one (default: 50)
	DefaultLimit int `env:"HISTORY_DEFAULT_LIMIT" default:"50"`

	// MaxLimit caps the page size a client may request (default: 500)
	MaxLimit int `env:"HISTORY_MAX_LIMIT" default:"500"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
