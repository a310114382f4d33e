// Package config loads vedic settings from the config file, VEDIC_*
// environment variables and command-line flags, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/felixgeelhaar/vedic/internal/api"
	vedicerrors "github.com/felixgeelhaar/vedic/internal/errors"
	"github.com/felixgeelhaar/vedic/internal/log"
	"github.com/felixgeelhaar/vedic/internal/telemetry"
)

// Build-time defaults, overridable with
// -ldflags "-X github.com/felixgeelhaar/vedic/internal/config.DefaultAPIURL=...".
var (
	DefaultAPIURL  = "http://localhost:8000"
	DefaultTimeout = "30s"
)

// EnvPrefix is the prefix of every environment variable read.
const EnvPrefix = "VEDIC"

// Config is the effective configuration.
type Config struct {
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	State   StateConfig   `mapstructure:"state" yaml:"state"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Chat    ChatConfig    `mapstructure:"chat" yaml:"chat"`
	Tracing TracingConfig `mapstructure:"tracing" yaml:"tracing"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-" yaml:"-"`
}

// APIConfig points the client at the backend.
type APIConfig struct {
	URL       string        `mapstructure:"url" yaml:"url"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit" yaml:"rate_limit"`
	Burst     int           `mapstructure:"burst" yaml:"burst"`
}

// StateConfig locates the persisted token and profile selection.
type StateConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file,omitempty"`
}

// MetricsConfig enables the /metrics listener when Addr is set.
type MetricsConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr,omitempty"`
}

// ChatConfig holds chat defaults.
type ChatConfig struct {
	Provider string `mapstructure:"provider" yaml:"provider"`
}

// TracingConfig exports request spans over OTLP/HTTP when Endpoint is set.
type TracingConfig struct {
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	Insecure bool   `mapstructure:"insecure" yaml:"insecure,omitempty"`
}

// Options control where Load looks.
type Options struct {
	// File overrides the config file location.
	File string
	// Fs defaults to the OS filesystem.
	Fs afero.Fs
	// Flags are bound by name; see FlagKeys.
	Flags *pflag.FlagSet
}

// FlagKeys maps global flag names to configuration keys.
var FlagKeys = map[string]string{
	"api-url":      "api.url",
	"timeout":      "api.timeout",
	"state-dir":    "state.dir",
	"log-level":    "log.level",
	"log-format":   "log.format",
	"log-file":     "log.file",
	"metrics-addr": "metrics.addr",
}

// Dir is the vedic configuration directory (~/.config/vedic on Linux).
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "vedic"), nil
}

// DefaultFile is the config file read when Options.File is empty.
func DefaultFile() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func setDefaults(v *viper.Viper, dir string) {
	v.SetDefault("api.url", DefaultAPIURL)
	v.SetDefault("api.timeout", DefaultTimeout)
	v.SetDefault("api.rate_limit", 0)
	v.SetDefault("api.burst", 0)
	v.SetDefault("state.dir", filepath.Join(dir, "state"))
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("metrics.addr", "")
	v.SetDefault("chat.provider", string(api.ProviderQwen))
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.insecure", false)
}

// Load reads the configuration. A missing config file is not an error.
func Load(opts Options) (*Config, error) {
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	dir, err := Dir()
	if err != nil {
		return nil, vedicerrors.NewConfigInvalidError("", err)
	}
	file := opts.File
	if file == "" {
		file = filepath.Join(dir, "config.yaml")
	}

	v := viper.New()
	v.SetFs(fs)
	setDefaults(v, dir)
	v.SetConfigFile(file)
	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.Flags != nil {
		for name, key := range FlagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, vedicerrors.NewConfigInvalidError(file, err)
				}
			}
		}
	}

	read := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, vedicerrors.NewConfigInvalidError(file, err)
		}
		read = false
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, vedicerrors.NewConfigInvalidError(file, err)
	}
	if read {
		cfg.File = file
	}
	cfg.API.URL = strings.TrimRight(cfg.API.URL, "/")
	cfg.State.Dir = expandHome(cfg.State.Dir)
	cfg.Log.File = expandHome(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return nil, vedicerrors.NewConfigInvalidError(file, err)
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail at first use.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.url %q is not an http(s) URL", c.API.URL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %s", c.API.Timeout)
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("api.rate_limit must not be negative")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	switch api.LLMProvider(c.Chat.Provider) {
	case api.ProviderQwen, api.ProviderGemini, api.ProviderChatGPT:
	default:
		return fmt.Errorf("chat.provider %q is not one of qwen, gemini, chatgpt", c.Chat.Provider)
	}
	return nil
}

// APIClient returns the client configuration.
func (c *Config) APIClient(userAgent string) api.Config {
	return api.Config{
		BaseURL:   c.API.URL,
		Timeout:   c.API.Timeout,
		UserAgent: userAgent,
		RateLimit: c.API.RateLimit,
		Burst:     c.API.Burst,
	}
}

// Logger returns the logger configuration. Logs go to stderr unless a file is set.
func (c *Config) Logger(version string) log.Config {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(c.Log.Level)
	cfg.Format = log.ParseFormat(c.Log.Format)
	cfg.ServiceVersion = version
	if c.Log.File != "" {
		cfg.Output = log.OutputFile(log.FileOptions{Path: c.Log.File})
	}
	if cfg.Level == log.LevelDebug {
		cfg.AddSource = true
	}
	return cfg
}

// Telemetry returns the tracer configuration.
func (c *Config) Telemetry(version string) telemetry.Config {
	cfg := telemetry.ExportConfig(c.Tracing.Endpoint, version)
	cfg.Insecure = c.Tracing.Insecure
	return cfg
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
