// Package config loads metadex configuration.
//
// Configuration comes from an optional YAML file overridden by METADEX_*
// environment variables, then defaults are applied and the result validated.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds the complete metadex configuration.
type Config struct {
	Meta      MetaConfig      `koanf:"meta"`
	Server    ServerConfig    `koanf:"server"`
	Pages     PagesConfig     `koanf:"pages"`
	Reload    ReloadConfig    `koanf:"reload"`
	Logging   LoggingConfig   `koanf:"logging"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

// MetaConfig describes where meta comes from and how reloads behave.
type MetaConfig struct {
	WorkDir          string             `koanf:"work_dir"`
	ReportPath       string             `koanf:"report_path"`
	ReportMode       string             `koanf:"report_mode"`
	AllowlistPath    string             `koanf:"allowlist_path"`
	CleanOnStart     bool               `koanf:"clean_on_start"`
	MaxFileSize      int64              `koanf:"max_file_size"`
	FetchConcurrency int                `koanf:"fetch_concurrency"`
	ParseConcurrency int                `koanf:"parse_concurrency"`
	FetchDepth       int                `koanf:"fetch_depth"`
	FetchTimeout     Duration           `koanf:"fetch_timeout"`
	Repositories     []RepositoryConfig `koanf:"repositories"`
	Files            []FileConfig       `koanf:"files"`
}

// RepositoryConfig is one meta source. Either URL or Path must be set.
type RepositoryConfig struct {
	URL         string `koanf:"url"`
	Checkout    string `koanf:"checkout"`
	Username    string `koanf:"username"`
	AccessToken Secret `koanf:"access_token"`
	Path        string `koanf:"path"`
}

// FileConfig maps a file extension to its comment delimiter.
type FileConfig struct {
	Extension string `koanf:"extension"`
	Delimiter string `koanf:"delimiter"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
	// ReloadInterval is the minimum spacing of API-triggered reloads.
	ReloadInterval Duration `koanf:"reload_interval"`
	ReloadBurst    int      `koanf:"reload_burst"`
}

// PagesConfig controls pagination and page sessions.
type PagesConfig struct {
	ListPageSize int      `koanf:"list_page_size"`
	Separator    string   `koanf:"separator"`
	SessionTTL   Duration `koanf:"session_ttl"`
	MaxSessions  int      `koanf:"max_sessions"`
}

// ReloadConfig holds the optional reload triggers.
type ReloadConfig struct {
	OnStart  bool     `koanf:"on_start"`
	Schedule string   `koanf:"schedule"`
	Watch    bool     `koanf:"watch"`
	Debounce Duration `koanf:"debounce"`
}

// LoggingConfig is the subset of logger settings exposed to users.
type LoggingConfig struct {
	Level    string `koanf:"level"`
	Format   string `koanf:"format"`
	OTEL     bool   `koanf:"otel"`
	Sampling bool   `koanf:"sampling"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	Enabled        bool     `koanf:"enabled"`
	Endpoint       string   `koanf:"endpoint"`
	Protocol       string   `koanf:"protocol"`
	Insecure       bool     `koanf:"insecure"`
	ServiceName    string   `koanf:"service_name"`
	SampleRate     float64  `koanf:"sample_rate"`
	MetricsEnabled bool     `koanf:"metrics_enabled"`
	ExportInterval Duration `koanf:"export_interval"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{Reload: ReloadConfig{OnStart: true}}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	m := &cfg.Meta
	if m.WorkDir == "" {
		m.WorkDir = "git"
	}
	if m.ReportPath == "" {
		m.ReportPath = "reload.log"
	}
	if m.ReportMode == "" {
		m.ReportMode = "append"
	}
	if m.MaxFileSize == 0 {
		m.MaxFileSize = 10 * 1024 * 1024
	}
	if m.FetchConcurrency == 0 {
		m.FetchConcurrency = 4
	}
	if m.ParseConcurrency == 0 {
		m.ParseConcurrency = 8
	}
	if m.FetchDepth == 0 {
		m.FetchDepth = 1
	}
	if m.FetchTimeout == 0 {
		m.FetchTimeout = Duration(5 * time.Minute)
	}
	if len(m.Files) == 0 {
		m.Files = []FileConfig{{Extension: "java", Delimiter: "//"}}
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9191
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}
	if cfg.Server.ReloadInterval == 0 {
		cfg.Server.ReloadInterval = Duration(30 * time.Second)
	}
	if cfg.Server.ReloadBurst == 0 {
		cfg.Server.ReloadBurst = 1
	}

	if cfg.Pages.ListPageSize == 0 {
		cfg.Pages.ListPageSize = 1500
	}
	if cfg.Pages.Separator == "" {
		cfg.Pages.Separator = ", "
	}
	if cfg.Pages.SessionTTL == 0 {
		cfg.Pages.SessionTTL = Duration(15 * time.Minute)
	}
	if cfg.Pages.MaxSessions == 0 {
		cfg.Pages.MaxSessions = 1024
	}

	if cfg.Reload.Debounce == 0 {
		cfg.Reload.Debounce = Duration(2 * time.Second)
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	t := &cfg.Telemetry
	if t.Endpoint == "" {
		t.Endpoint = "localhost:4317"
	}
	if t.Protocol == "" {
		t.Protocol = "grpc"
	}
	if t.ServiceName == "" {
		t.ServiceName = "metadex"
	}
	if t.SampleRate == 0 {
		t.SampleRate = 1.0
	}
	if t.ExportInterval == 0 {
		t.ExportInterval = Duration(15 * time.Second)
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	for i, r := range c.Meta.Repositories {
		switch {
		case r.URL == "" && r.Path == "":
			add("meta.repositories[%d]: url or path is required", i)
		case r.URL != "" && r.Path != "":
			add("meta.repositories[%d]: url and path are mutually exclusive", i)
		case r.AccessToken.IsSet() && r.Username == "":
			add("meta.repositories[%d]: access_token requires username", i)
		}
	}
	seen := make(map[string]bool)
	for i, f := range c.Meta.Files {
		ext := strings.ToLower(strings.TrimPrefix(f.Extension, "."))
		if ext == "" {
			add("meta.files[%d]: extension is required", i)
		}
		if strings.TrimSpace(f.Delimiter) == "" {
			add("meta.files[%d]: delimiter is required", i)
		}
		if seen[ext] {
			add("meta.files[%d]: extension %q listed twice", i, ext)
		}
		seen[ext] = true
	}
	if c.Meta.ReportMode != "append" && c.Meta.ReportMode != "truncate" {
		add("meta.report_mode must be 'append' or 'truncate', got %q", c.Meta.ReportMode)
	}
	if c.Meta.FetchConcurrency < 1 || c.Meta.ParseConcurrency < 1 {
		add("meta.fetch_concurrency and meta.parse_concurrency must be >= 1")
	}
	if c.Meta.FetchDepth < 0 {
		add("meta.fetch_depth must be >= 0")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		add("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ReloadBurst < 1 {
		add("server.reload_burst must be >= 1")
	}

	if c.Pages.ListPageSize < 100 {
		add("pages.list_page_size must be >= 100, got %d", c.Pages.ListPageSize)
	}

	if c.Reload.Schedule != "" {
		if _, err := cron.ParseStandard(c.Reload.Schedule); err != nil {
			add("reload.schedule: %v", err)
		}
	}

	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		add("logging.format must be 'json' or 'console', got %q", c.Logging.Format)
	}
	if c.Telemetry.Protocol != "grpc" && c.Telemetry.Protocol != "http/protobuf" {
		add("telemetry.protocol must be 'grpc' or 'http/protobuf', got %q", c.Telemetry.Protocol)
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		add("telemetry.sample_rate must be between 0 and 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
