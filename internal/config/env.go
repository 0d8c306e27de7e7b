package config

import (
	"os"
	"strconv"
	"time"
)

// Environment variables that override the config file.
const (
	EnvBackendURL    = "VCADMIN_BACKEND_URL"
	EnvBackendDriver = "VCADMIN_BACKEND_DRIVER"
	EnvAnonKey       = "VCADMIN_ANON_KEY"
	EnvAccessToken   = "VCADMIN_ACCESS_TOKEN"
	EnvDatabaseURL   = "VCADMIN_DATABASE_URL"
	EnvAdminEmail    = "VCADMIN_ADMIN_EMAIL"
	EnvNATSURL       = "VCADMIN_NATS_URL"
	EnvAdminAPIKey   = "VCADMIN_ADMIN_API_KEY"
	EnvPageSize      = "VCADMIN_PAGE_SIZE"
	EnvDebounce      = "VCADMIN_DEBOUNCE"
	EnvLogLevel      = "VCADMIN_LOG_LEVEL"
	EnvLogFormat     = "VCADMIN_LOG_FORMAT"
	EnvOutput        = "VCADMIN_OUTPUT"
)

// ApplyEnv overlays VCADMIN_* environment variables onto cfg. Malformed numeric or
// duration values are ignored.
func ApplyEnv(cfg *Config) {
	setString(&cfg.Backend.URL, EnvBackendURL)
	setString(&cfg.Backend.Driver, EnvBackendDriver)
	setString(&cfg.Backend.AnonKey, EnvAnonKey)
	setString(&cfg.Backend.AccessToken, EnvAccessToken)
	setString(&cfg.Backend.DatabaseURL, EnvDatabaseURL)
	setString(&cfg.Backend.AdminEmail, EnvAdminEmail)
	setString(&cfg.Notifications.APIKey, EnvAdminAPIKey)
	setString(&cfg.Logging.Level, EnvLogLevel)
	setString(&cfg.Logging.Format, EnvLogFormat)
	setString(&cfg.Output.DefaultFormat, EnvOutput)

	if v := os.Getenv(EnvNATSURL); v != "" {
		cfg.Events.URL = v
		cfg.Events.Enabled = true
	}
	if v := os.Getenv(EnvPageSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.PageSize = n
		}
	}
	if v := os.Getenv(EnvDebounce); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Search.Debounce = d
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
