package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"stock-analyzer-go/infrastructure/logger"
)

// Refresh modes.
const (
	ModeAuto   = "auto"
	ModeManual = "manual"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Instruments []string         `yaml:"instruments"`
	Window      WindowConfig     `yaml:"window"`
	Refresh     RefreshConfig    `yaml:"refresh"`
	Signal      SignalConfig     `yaml:"signal"`
	DataSource  DataSourceConfig `yaml:"data_source"`
	Reports     ReportConfig     `yaml:"reports"`
	Database    DatabaseConfig   `yaml:"database"`
	Server      ServerConfig     `yaml:"server"`
	Logger      logger.Config    `yaml:"logger"`
}

type WindowConfig struct {
	// Capacity bounds the per-instrument sample buffer. 300 samples at the
	// default 3s period is roughly 15 minutes of history.
	Capacity int `yaml:"capacity"`
}

type RefreshConfig struct {
	Mode       string `yaml:"mode"`        // auto or manual
	IntervalMs int    `yaml:"interval_ms"` // auto-mode tick period
}

// Interval returns the auto-mode period as a duration.
func (r RefreshConfig) Interval() time.Duration {
	return time.Duration(r.IntervalMs) * time.Millisecond
}

type SignalConfig struct {
	// CrashDrawdown is the fractional drop from the window peak that trips
	// the crash alert.
	CrashDrawdown float64 `yaml:"crash_drawdown"`
}

type DataSourceConfig struct {
	BaseURL   string  `yaml:"base_url"`
	RateLimit float64 `yaml:"rate_limit"` // requests per second
	Burst     int     `yaml:"burst"`
}

type ReportConfig struct {
	WeeklyCron string `yaml:"weekly_cron"`
	DailyCron  string `yaml:"daily_cron"`
}

type DatabaseConfig struct {
	// SQLitePath enables the history recorder; empty disables it.
	SQLitePath string `yaml:"sqlite_path"`
}

type ServerConfig struct {
	ListenAddr  string `yaml:"listen_addr"`
	MetricsAddr string `yaml:"metrics_addr"` // empty disables /metrics
}

// Load reads YAML config from path, applies defaults, and validates.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	applyDefaults(&cfg)
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides deployment-specific
// fields from env vars if present.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("ANALYZER_DATA_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("ANALYZER_SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("ANALYZER_LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv("ANALYZER_REFRESH_MODE"); v != "" {
		cfg.Refresh.Mode = v
	}
	if v := os.Getenv("ANALYZER_REFRESH_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.Refresh.IntervalMs = ms
		}
	}
	return cfg, Validate(cfg)
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Window.Capacity == 0 {
		cfg.Window.Capacity = 300
	}
	if cfg.Refresh.Mode == "" {
		cfg.Refresh.Mode = ModeAuto
	}
	if cfg.Refresh.IntervalMs == 0 {
		cfg.Refresh.IntervalMs = 3000
	}
	if cfg.Signal.CrashDrawdown == 0 {
		cfg.Signal.CrashDrawdown = 0.03
	}
	if cfg.DataSource.RateLimit == 0 {
		cfg.DataSource.RateLimit = 2
	}
	if cfg.DataSource.Burst == 0 {
		cfg.DataSource.Burst = 5
	}
	if cfg.Reports.WeeklyCron == "" {
		cfg.Reports.WeeklyCron = "0 0 8 * * 1"
	}
	if cfg.Reports.DailyCron == "" {
		cfg.Reports.DailyCron = "0 30 15 * * 1-5"
	}
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}
	if cfg.Logger.Level == "" {
		cfg.Logger = logger.DefaultConfig()
	}
}

// Validate ensures required fields are present and consistent. A config that
// fails here must prevent startup; nothing else in the app is fatal.
func Validate(cfg AppConfig) error {
	if len(cfg.Instruments) == 0 {
		return errors.New("instruments list is required")
	}
	for _, sym := range cfg.Instruments {
		if sym == "" {
			return errors.New("instruments must not contain empty symbols")
		}
	}
	if cfg.Window.Capacity <= 0 {
		return errors.New("window.capacity must be > 0")
	}
	if cfg.Refresh.Mode != ModeAuto && cfg.Refresh.Mode != ModeManual {
		return fmt.Errorf("refresh.mode must be %q or %q", ModeAuto, ModeManual)
	}
	if cfg.Refresh.Mode == ModeAuto && cfg.Refresh.IntervalMs <= 0 {
		return errors.New("refresh.interval_ms must be > 0 in auto mode")
	}
	if cfg.Signal.CrashDrawdown <= 0 || cfg.Signal.CrashDrawdown >= 1 {
		return errors.New("signal.crash_drawdown must be in (0, 1)")
	}
	if cfg.DataSource.BaseURL == "" {
		return errors.New("data_source.base_url is required")
	}
	return nil
}
