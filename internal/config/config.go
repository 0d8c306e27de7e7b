// Package config loads the vcadmin configuration from ~/.vcadmin/config.yaml, an
// optional project overlay and VCADMIN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend drivers.
const (
	DriverHTTP     = "http"
	DriverPostgres = "postgres"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

const (
	outputTypeFile = "file"

	defaultTimeout       = 30 * time.Second
	defaultPageSize      = 20
	defaultDebounce      = 300 * time.Millisecond
	defaultStatsTTL      = 2 * time.Minute
	defaultSubjectPrefix = "vcadmin"
	defaultBatchSize     = 100
	maxBatchSize         = 1000
)

// Config is the complete vcadmin configuration.
type Config struct {
	Version       string              `yaml:"version"`
	Backend       BackendConfig       `yaml:"backend"`
	Search        SearchConfig        `yaml:"search"`
	Cache         CacheConfig         `yaml:"cache"`
	Events        EventsConfig        `yaml:"events"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Output        OutputConfig        `yaml:"output"`
	Logging       LoggingConfig       `yaml:"logging"`

	configPath string
}

// BackendConfig selects and configures the RPC transport.
type BackendConfig struct {
	// Driver is "http" (PostgREST RPC endpoint) or "postgres" (direct stored-function calls).
	Driver string `yaml:"driver"`

	// URL is the hosted backend base URL, e.g. https://xyz.supabase.co.
	URL string `yaml:"url"`

	// AnonKey is the public API key sent with every HTTP request.
	AnonKey string `yaml:"anon_key"`

	// AccessToken is an already-issued bearer token. It is passed through verbatim.
	AccessToken string `yaml:"access_token,omitempty"`

	// DatabaseURL is the lib/pq connection string used by the postgres driver.
	DatabaseURL string `yaml:"database_url,omitempty"`

	Timeout time.Duration `yaml:"timeout"`

	// AdminEmail, when set, is checked with the admin access procedure before mutations.
	AdminEmail string `yaml:"admin_email,omitempty"`
}

// SearchConfig tunes every search screen.
type SearchConfig struct {
	PageSize        int            `yaml:"page_size"`
	Debounce        time.Duration  `yaml:"debounce"`
	WildcardMarkers string         `yaml:"wildcard_markers"`
	PatternChar     string         `yaml:"pattern_char"`
	PageSizes       map[string]int `yaml:"page_sizes,omitempty"`
}

// PageSizeFor returns the page size configured for screen.
func (s SearchConfig) PageSizeFor(screen string) int {
	if n, ok := s.PageSizes[screen]; ok && n > 0 {
		return n
	}
	return s.PageSize
}

// CacheConfig configures the statistics cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Directory string        `yaml:"directory,omitempty"`
	StatsTTL  time.Duration `yaml:"stats_ttl"`
}

// EventsConfig configures mutation events.
type EventsConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// NotificationsConfig configures the push-notification edge function.
type NotificationsConfig struct {
	// BaseURL defaults to Backend.URL.
	BaseURL     string `yaml:"base_url,omitempty"`
	APIKey      string `yaml:"api_key,omitempty"`
	BatchSize   int    `yaml:"batch_size"`
	Concurrency int    `yaml:"concurrency"`
}

// OutputConfig configures CLI rendering.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	Locale        string `yaml:"locale,omitempty"`
}

// LoggingConfig configures zerolog output.
type LoggingConfig struct {
	Level  string      `yaml:"level"`
	Format string      `yaml:"format"`
	File   string      `yaml:"file,omitempty"`
	Audit  AuditConfig `yaml:"audit"`
}

// AuditConfig configures the mutation audit log.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	File    string `yaml:"file,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{
		Version: CurrentVersion,
		Backend: BackendConfig{
			Driver:  DriverHTTP,
			Timeout: defaultTimeout,
		},
		Search: SearchConfig{
			PageSize:        defaultPageSize,
			Debounce:        defaultDebounce,
			WildcardMarkers: "*%",
			PatternChar:     "%",
		},
		Cache: CacheConfig{
			Enabled:  true,
			StatsTTL: defaultStatsTTL,
		},
		Events: EventsConfig{
			SubjectPrefix: defaultSubjectPrefix,
		},
		Notifications: NotificationsConfig{
			BatchSize:   defaultBatchSize,
			Concurrency: 1,
		},
		Output: OutputConfig{
			DefaultFormat: FormatTable,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}

	if dir, err := GetConfigDir(); err == nil {
		cfg.Cache.Directory = filepath.Join(dir, "cache")
		cfg.Logging.Audit.File = filepath.Join(dir, "logs", "audit.log")
		cfg.configPath = filepath.Join(dir, "config.yaml")
	}
	return cfg
}

// New returns the effective configuration: defaults, then the config file if present,
// then environment overrides. A broken config file is ignored in favour of defaults.
func New() *Config {
	path, err := ConfigPath()
	if err != nil {
		cfg := Default()
		ApplyEnv(cfg)
		return cfg
	}

	cfg, err := Load(path)
	if err != nil {
		cfg = Default()
	}
	ApplyEnv(cfg)
	return cfg
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	cfg.configPath = path

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration as YAML to its path, creating parent directories.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.New("config has no file path")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration as YAML to path.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err = os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file %s: %w", path, err)
	}
	c.configPath = path
	return nil
}

// Path returns the file the configuration was loaded from or will be saved to.
func (c *Config) Path() string {
	return c.configPath
}

// ConfigPath returns VCADMIN_CONFIG, or config.yaml in the config directory.
func ConfigPath() (string, error) {
	if p := os.Getenv("VCADMIN_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// NotificationsBaseURL returns the edge-function base URL.
func (c *Config) NotificationsBaseURL() string {
	if c.Notifications.BaseURL != "" {
		return c.Notifications.BaseURL
	}
	return c.Backend.URL
}

// ValidationError lists every problem found by Validate.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// Validate checks the configuration for use.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if err := CheckVersion(c.Version); err != nil {
		add("%v", err)
	}

	switch c.Backend.Driver {
	case DriverHTTP:
		if c.Backend.URL == "" {
			add("backend.url is required for the http driver")
		}
		if c.Backend.AnonKey == "" {
			add("backend.anon_key is required for the http driver")
		}
	case DriverPostgres:
		if c.Backend.DatabaseURL == "" {
			add("backend.database_url is required for the postgres driver")
		}
	default:
		add("backend.driver must be %q or %q, got %q", DriverHTTP, DriverPostgres, c.Backend.Driver)
	}
	if c.Backend.Timeout < 0 {
		add("backend.timeout cannot be negative")
	}

	if c.Search.PageSize <= 0 {
		add("search.page_size must be positive")
	}
	for screen, n := range c.Search.PageSizes {
		if n <= 0 {
			add("search.page_sizes.%s must be positive", screen)
		}
	}
	if c.Search.Debounce < 0 {
		add("search.debounce cannot be negative")
	}
	if len([]rune(c.Search.PatternChar)) != 1 {
		add("search.pattern_char must be a single character")
	}

	if c.Cache.StatsTTL < 0 {
		add("cache.stats_ttl cannot be negative")
	}
	if c.Events.Enabled && c.Events.URL == "" {
		add("events.url is required when events are enabled")
	}
	if c.Notifications.BatchSize <= 0 || c.Notifications.BatchSize > maxBatchSize {
		add("notifications.batch_size must be between 1 and %d", maxBatchSize)
	}
	if c.Notifications.Concurrency <= 0 {
		add("notifications.concurrency must be positive")
	}

	switch c.Output.DefaultFormat {
	case FormatTable, FormatJSON, FormatYAML:
	default:
		add("output.default_format must be table, json or yaml, got %q", c.Output.DefaultFormat)
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
