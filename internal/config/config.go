package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	appName = "canvasctl"

	// DefaultConcurrency is the download worker pool width used when
	// neither config nor flags override it.
	DefaultConcurrency = 12
)

// Config is the persisted local configuration.
type Config struct {
	BaseURL            string `mapstructure:"base_url" yaml:"base_url"`
	DefaultDest        string `mapstructure:"default_dest" yaml:"default_dest"`
	DefaultConcurrency int    `mapstructure:"default_concurrency" yaml:"default_concurrency"`
	LogLevel           string `mapstructure:"log_level" yaml:"log_level"`
}

// Path returns the config file location under the user config dir.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, appName, "config.yaml"), nil
}

// Load reads the default config file. A missing file yields defaults.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path, applying defaults and
// CANVASCTL_* environment overrides.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("base_url", "")
	v.SetDefault("default_dest", "")
	v.SetDefault("default_concurrency", DefaultConcurrency)
	v.SetDefault("log_level", "info")

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("CANVASCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Unmarshal only sees keys viper knows about, so bind each one
	// for the CANVASCTL_* overrides to land.
	for _, key := range []string{"base_url", "default_dest", "default_concurrency", "log_level"} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.BaseURL != "" {
		normalized, err := ValidateBaseURL(c.BaseURL)
		if err != nil {
			return err
		}
		c.BaseURL = normalized
	}
	if c.DefaultConcurrency <= 0 {
		return fmt.Errorf("config key 'default_concurrency' must be a positive integer")
	}
	return nil
}

// SaveTo writes the config as YAML to path, creating directories as
// needed.
func SaveTo(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.Set("default_concurrency", cfg.DefaultConcurrency)
	v.Set("log_level", cfg.LogLevel)
	if cfg.BaseURL != "" {
		v.Set("base_url", cfg.BaseURL)
	}
	if cfg.DefaultDest != "" {
		v.Set("default_dest", cfg.DefaultDest)
	}
	return v.WriteConfigAs(path)
}

// Save writes the config to the default location.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

// ValidateBaseURL checks scheme and host and strips a trailing
// /api/v1 so users may paste either form.
func ValidateBaseURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	parsed, err := url.Parse(trimmed)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", fmt.Errorf("invalid Canvas base URL: %q", raw)
	}

	normalized := strings.TrimRight(trimmed, "/")
	normalized = strings.TrimSuffix(normalized, "/api/v1")
	return normalized, nil
}

// ResolveBaseURL picks the override when given, otherwise the
// configured URL.
func (c *Config) ResolveBaseURL(override string) (string, error) {
	if override != "" {
		return ValidateBaseURL(override)
	}
	if c.BaseURL != "" {
		return c.BaseURL, nil
	}
	return "", fmt.Errorf("canvas base URL is required: use --base-url or run 'canvasctl config set-base-url <url>'")
}

// ResolveConcurrency picks the flag value when positive, otherwise
// the configured default.
func (c *Config) ResolveConcurrency(override int) int {
	if override > 0 {
		return override
	}
	if c.DefaultConcurrency > 0 {
		return c.DefaultConcurrency
	}
	return DefaultConcurrency
}

// DestinationPath is the effective download root: the configured
// default, or ./downloads.
func (c *Config) DestinationPath() string {
	if c.DefaultDest != "" {
		return expandHome(c.DefaultDest)
	}
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return filepath.Join(cwd, "downloads")
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// NormalizeDestination validates and absolutizes a destination path
// for persistence.
func NormalizeDestination(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("download path cannot be empty")
	}
	abs, err := filepath.Abs(expandHome(path))
	if err != nil {
		return "", fmt.Errorf("invalid download path %s: %w", path, err)
	}
	return abs, nil
}
