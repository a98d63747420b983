// Package config loads console settings from defaults, an optional YAML file,
// .env files and NEUSHOP_* environment variables, in that order.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-neushop/pkg/neushop"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "NEUSHOP_"

// Config is the full console configuration.
type Config struct {
	Backend  BackendConfig  `yaml:"backend"`
	Server   ServerConfig   `yaml:"server"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Activity ActivityConfig `yaml:"activity"`
	Charts   ChartsConfig   `yaml:"charts"`
	Manifest string         `yaml:"manifest"`
	LogLevel string         `yaml:"log_level"`
}

// BackendConfig points at the Neushop REST API.
type BackendConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

// ServerConfig configures the console HTTP listener and workspaces.
type ServerConfig struct {
	Addr          string        `yaml:"addr"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	SecureCookie  bool          `yaml:"secure_cookie"`
}

// MetricsConfig configures the ops listener. It starts whenever Addr is set
// and serves /events/ws and /events/sse; /metrics is added when Enabled.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr"`
	Namespace string `yaml:"namespace"`
}

// ActivityConfig toggles audit events.
type ActivityConfig struct {
	Enabled bool `yaml:"enabled"`
}

// ChartsConfig configures dashboard charts.
type ChartsConfig struct {
	Theme      string        `yaml:"theme"`
	AssetsHost string        `yaml:"assets_host"`
	CacheTTL   time.Duration `yaml:"cache_ttl"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Backend: BackendConfig{
			BaseURL: neushop.DefaultBaseURL,
			Timeout: 10 * time.Second,
		},
		Server: ServerConfig{
			Addr:          ":8080",
			SessionTTL:    30 * time.Minute,
			SweepInterval: time.Minute,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Addr:      ":9090",
			Namespace: "neushop",
		},
		Activity: ActivityConfig{Enabled: true},
		Charts:   ChartsConfig{CacheTTL: 5 * time.Minute},
		LogLevel: "info",
	}
}

// Load builds a configuration. path may be empty; a missing file is an error
// only when path was given. Missing .env files are ignored.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := Decode(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	if err := loadEnvFiles(envFiles...); err != nil {
		return Config{}, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Decode overlays YAML onto cfg. Unknown keys are rejected.
func Decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode yaml: %w", err)
	}
	return nil
}

func loadEnvFiles(files ...string) error {
	for _, file := range files {
		if strings.TrimSpace(file) == "" {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("config: load %s: %w", file, err)
		}
	}
	return nil
}

// ApplyEnv overlays NEUSHOP_* variables read through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(EnvPrefix + key); ok {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("config: %s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = d
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(EnvPrefix + key); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("config: %s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}

	str("BASE_URL", &c.Backend.BaseURL)
	dur("TIMEOUT", &c.Backend.Timeout)
	str("USER_AGENT", &c.Backend.UserAgent)
	str("ADDR", &c.Server.Addr)
	dur("SESSION_TTL", &c.Server.SessionTTL)
	dur("SWEEP_INTERVAL", &c.Server.SweepInterval)
	boolean("SECURE_COOKIE", &c.Server.SecureCookie)
	boolean("METRICS_ENABLED", &c.Metrics.Enabled)
	str("METRICS_ADDR", &c.Metrics.Addr)
	boolean("ACTIVITY_ENABLED", &c.Activity.Enabled)
	str("CHART_THEME", &c.Charts.Theme)
	str("CHART_ASSETS_HOST", &c.Charts.AssetsHost)
	str("MANIFEST", &c.Manifest)
	str("LOG_LEVEL", &c.LogLevel)
	return errors.Join(errs...)
}

// Validate checks the settings the console cannot run without.
func (c Config) Validate() error {
	var errs []error
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("config: backend.base_url must be an absolute URL, got %q", c.Backend.BaseURL))
	}
	if c.Backend.Timeout <= 0 {
		errs = append(errs, errors.New("config: backend.timeout must be positive"))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("config: server.addr is required"))
	}
	if c.Server.SessionTTL <= 0 {
		errs = append(errs, errors.New("config: server.session_ttl must be positive"))
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		errs = append(errs, errors.New("config: metrics.addr is required when metrics are enabled"))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: log_level: %w", err)
	}
	return level, nil
}
