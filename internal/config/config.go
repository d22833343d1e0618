package config

import (
	"encoding/json"
	"os"
	"time"
)

// Config holds all configuration for the roi-sheet application.
// Values are loaded from environment variables; see printUsage() in cmd for
// the full list.
type Config struct {
	DatabaseURL string `json:"database_url"`
	RedisAddr   string `json:"redis_addr,omitempty"`
	HTTPAddr    string `json:"http_addr"`

	// AccountID is the tenant all management operations run under.
	// Webhook ingestion resolves its account from the presented API key.
	AccountID string `json:"account_id"`

	DBOpTimeout    time.Duration `json:"-"`
	DBOpTimeoutStr string        `json:"db_op_timeout"`

	DBMaxOpenConns       int           `json:"db_max_open_conns"`
	DBMaxIdleConns       int           `json:"db_max_idle_conns"`
	DBConnMaxLifetime    time.Duration `json:"-"`
	DBConnMaxLifetimeStr string        `json:"db_conn_max_lifetime"`
	DBConnMaxIdleTime    time.Duration `json:"-"`
	DBConnMaxIdleTimeStr string        `json:"db_conn_max_idle_time"`

	HTTPShutdownTimeout    time.Duration `json:"-"`
	HTTPShutdownTimeoutStr string        `json:"http_shutdown_timeout"`

	MetricsEnabled bool   `json:"metrics_enabled"`
	MetricsPath    string `json:"metrics_path"`
	MetricsPort    string `json:"metrics_port"`

	MigrationsPath string `json:"migrations_path"`

	WebhookMaxBodyBytes int `json:"webhook_max_body_bytes"`
}

// DefaultAccountID is the single-tenant account used when ACCOUNT_ID is not set.
const DefaultAccountID = "00000000-0000-0000-0000-000000000001"

// Load reads configuration from environment variables with defaults.
func Load() Config {
	cfg := Config{
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		HTTPAddr:               os.Getenv("HTTP_ADDR"),
		AccountID:              os.Getenv("ACCOUNT_ID"),
		DBOpTimeoutStr:         os.Getenv("DB_OP_TIMEOUT"),
		DBConnMaxLifetimeStr:   os.Getenv("DB_CONN_MAX_LIFETIME"),
		DBConnMaxIdleTimeStr:   os.Getenv("DB_CONN_MAX_IDLE_TIME"),
		HTTPShutdownTimeoutStr: os.Getenv("HTTP_SHUTDOWN_TIMEOUT"),
		MetricsEnabled:         os.Getenv("METRICS_ENABLED") == "true",
		MetricsPath:            os.Getenv("METRICS_PATH"),
		MetricsPort:            os.Getenv("METRICS_PORT"),
		MigrationsPath:         os.Getenv("MIGRATIONS_PATH"),
	}

	if maxOpenStr := os.Getenv("DB_MAX_OPEN_CONNS"); maxOpenStr != "" {
		if n, err := parseInt(maxOpenStr); err == nil && n > 0 {
			cfg.DBMaxOpenConns = n
		}
	}
	if cfg.DBMaxOpenConns == 0 {
		cfg.DBMaxOpenConns = 25
	}

	if maxIdleStr := os.Getenv("DB_MAX_IDLE_CONNS"); maxIdleStr != "" {
		if n, err := parseInt(maxIdleStr); err == nil && n > 0 {
			cfg.DBMaxIdleConns = n
		}
	}
	if cfg.DBMaxIdleConns == 0 {
		cfg.DBMaxIdleConns = 5
	}

	if bodyStr := os.Getenv("WEBHOOK_MAX_BODY_BYTES"); bodyStr != "" {
		if n, err := parseInt(bodyStr); err == nil && n > 0 {
			cfg.WebhookMaxBodyBytes = n
		}
	}
	if cfg.WebhookMaxBodyBytes == 0 {
		cfg.WebhookMaxBodyBytes = 1 << 20
	}

	// Support Railway's PORT variable as fallback for HTTP_ADDR.
	if cfg.HTTPAddr == "" {
		if port := os.Getenv("PORT"); port != "" {
			cfg.HTTPAddr = ":" + port
		} else {
			cfg.HTTPAddr = ":8080"
		}
	}
	if cfg.AccountID == "" {
		cfg.AccountID = DefaultAccountID
	}
	if cfg.DBOpTimeoutStr == "" {
		cfg.DBOpTimeoutStr = "5s"
	}
	if cfg.DBConnMaxLifetimeStr == "" {
		cfg.DBConnMaxLifetimeStr = "30m"
	}
	if cfg.DBConnMaxIdleTimeStr == "" {
		cfg.DBConnMaxIdleTimeStr = "5m"
	}
	if cfg.HTTPShutdownTimeoutStr == "" {
		cfg.HTTPShutdownTimeoutStr = "10s"
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	if cfg.MetricsPort == "" {
		cfg.MetricsPort = "9090"
	}
	if cfg.MigrationsPath == "" {
		cfg.MigrationsPath = "file://migrations"
	}

	// Parse durations; validation is handled separately by Validate().
	if d, err := time.ParseDuration(cfg.DBOpTimeoutStr); err == nil {
		cfg.DBOpTimeout = d
	}
	if d, err := time.ParseDuration(cfg.DBConnMaxLifetimeStr); err == nil {
		cfg.DBConnMaxLifetime = d
	}
	if d, err := time.ParseDuration(cfg.DBConnMaxIdleTimeStr); err == nil {
		cfg.DBConnMaxIdleTime = d
	}
	if d, err := time.ParseDuration(cfg.HTTPShutdownTimeoutStr); err == nil {
		cfg.HTTPShutdownTimeout = d
	}

	return cfg
}

// parseInt parses a string as a non-negative integer.
func parseInt(s string) (int, error) {
	if s == "" {
		return 0, os.ErrInvalid
	}
	var n int
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, os.ErrInvalid
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}

// MaskedJSON returns the configuration as JSON with secrets masked.
func (c Config) MaskedJSON() ([]byte, error) {
	masked := struct {
		DatabaseURL         string `json:"database_url"`
		RedisAddr           string `json:"redis_addr,omitempty"`
		HTTPAddr            string `json:"http_addr"`
		AccountID           string `json:"account_id"`
		DBOpTimeout         string `json:"db_op_timeout"`
		DBMaxOpenConns      int    `json:"db_max_open_conns"`
		DBMaxIdleConns      int    `json:"db_max_idle_conns"`
		DBConnMaxLifetime   string `json:"db_conn_max_lifetime"`
		DBConnMaxIdleTime   string `json:"db_conn_max_idle_time"`
		HTTPShutdownTimeout string `json:"http_shutdown_timeout"`
		MetricsEnabled      bool   `json:"metrics_enabled"`
		MetricsPath         string `json:"metrics_path"`
		MetricsPort         string `json:"metrics_port"`
		MigrationsPath      string `json:"migrations_path"`
		WebhookMaxBodyBytes int    `json:"webhook_max_body_bytes"`
	}{
		DatabaseURL:         maskSecret(c.DatabaseURL),
		RedisAddr:           c.RedisAddr,
		HTTPAddr:            c.HTTPAddr,
		AccountID:           c.AccountID,
		DBOpTimeout:         c.DBOpTimeoutStr,
		DBMaxOpenConns:      c.DBMaxOpenConns,
		DBMaxIdleConns:      c.DBMaxIdleConns,
		DBConnMaxLifetime:   c.DBConnMaxLifetimeStr,
		DBConnMaxIdleTime:   c.DBConnMaxIdleTimeStr,
		HTTPShutdownTimeout: c.HTTPShutdownTimeoutStr,
		MetricsEnabled:      c.MetricsEnabled,
		MetricsPath:         c.MetricsPath,
		MetricsPort:         c.MetricsPort,
		MigrationsPath:      c.MigrationsPath,
		WebhookMaxBodyBytes: c.WebhookMaxBodyBytes,
	}
	return json.MarshalIndent(masked, "", "  ")
}

// maskSecret masks a secret value, preserving only the URI scheme if present.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if len(s) >= len(scheme) && s[:len(scheme)] == scheme {
			return scheme + "***"
		}
	}
	return "***"
}
