// Package config handles configuration loading and validation.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/sqlite-ai/rembed/internal/engine"
	"github.com/sqlite-ai/rembed/pkg/plugin/host"
	"github.com/sqlite-ai/rembed/pkg/provider"
)

// Config represents the complete configuration.
type Config struct {
	Clients []ClientConfig `mapstructure:"clients" yaml:"clients"`
	Engine  EngineConfig   `mapstructure:"engine" yaml:"engine"`
	Plugins PluginsConfig  `mapstructure:"plugins" yaml:"plugins"`
	Logging LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// ClientConfig pre-registers one embedding client at startup. Options uses
// the same syntax as the options column of rembed_clients.
type ClientConfig struct {
	Name    string `mapstructure:"name" yaml:"name"`
	Options string `mapstructure:"options" yaml:"options"`
}

// EngineConfig bounds the worker runtime.
type EngineConfig struct {
	MaxConcurrent  int           `mapstructure:"max_concurrent" yaml:"max_concurrent"`   // concurrent provider requests
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"` // per-request deadline
}

// PluginsConfig locates external provider plugins.
type PluginsConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // text, json
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Clients: []ClientConfig{},
		Engine: EngineConfig{
			MaxConcurrent:  engine.DefaultMaxConcurrent,
			RequestTimeout: engine.DefaultRequestTimeout,
		},
		Plugins: PluginsConfig{
			Dir: host.DefaultPluginsDir,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// ConfigDir returns the path to the .rembed directory.
func ConfigDir(root string) string {
	return filepath.Join(root, ".rembed")
}

// ConfigPath returns the path to config.yaml.
func ConfigPath(root string) string {
	return filepath.Join(ConfigDir(root), "config.yaml")
}

// Load loads configuration from file, falling back to defaults.
func Load(root string) (*Config, []string, error) {
	cfg := DefaultConfig()
	warnings := []string{}

	configPath := ConfigPath(root)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		warnings = append(warnings, "No config file found, using defaults")
		return cfg, warnings, nil
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Engine.MaxConcurrent == 0 {
		cfg.Engine.MaxConcurrent = engine.DefaultMaxConcurrent
	}
	if cfg.Engine.RequestTimeout == 0 {
		cfg.Engine.RequestTimeout = engine.DefaultRequestTimeout
	}
	if cfg.Plugins.Dir == "" {
		cfg.Plugins.Dir = host.DefaultPluginsDir
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}

	return cfg, warnings, nil
}

// Save saves configuration to file.
func Save(root string, cfg *Config) error {
	configDir := ConfigDir(root)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(ConfigPath(root))
	v.SetConfigType("yaml")

	v.Set("clients", cfg.Clients)
	v.Set("engine", cfg.Engine)
	v.Set("plugins", cfg.Plugins)
	v.Set("logging", cfg.Logging)

	return v.WriteConfig()
}

// Validate validates the configuration.
func Validate(cfg *Config) []error {
	var errs []error

	for i, c := range cfg.Clients {
		if c.Name == "" {
			errs = append(errs, fmt.Errorf("clients[%d]: name is required", i))
			continue
		}
		if _, err := provider.ParseOptions(c.Name, c.Options); err != nil {
			errs = append(errs, fmt.Errorf("clients[%d] (%s): %w", i, c.Name, err))
		}
	}

	if cfg.Engine.MaxConcurrent < 0 {
		errs = append(errs, fmt.Errorf("engine.max_concurrent must not be negative"))
	}
	if cfg.Engine.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("engine.request_timeout must not be negative"))
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, fmt.Errorf("invalid logging level: %s", cfg.Logging.Level))
	}

	validFormats := map[string]bool{
		"text": true, "json": true,
	}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, fmt.Errorf("invalid logging format: %s", cfg.Logging.Format))
	}

	return errs
}

// Apply pushes the configuration into the process: engine limits, the
// plugin directory, and pre-registered clients. Clients that fail to build
// are logged and skipped so one bad entry does not take the rest down.
func Apply(cfg *Config, reg *provider.Registry) {
	engine.Configure(cfg.Engine.MaxConcurrent, cfg.Engine.RequestTimeout)
	host.Configure(cfg.Plugins.Dir)
	RegisterClients(cfg, reg)
}

// RegisterClients registers every configured client into reg.
func RegisterClients(cfg *Config, reg *provider.Registry) {
	for _, c := range cfg.Clients {
		clientCfg, err := provider.ParseOptions(c.Name, c.Options)
		if err != nil {
			slog.Warn("skipping configured client", "name", c.Name, "error", err)
			continue
		}
		client, err := provider.New(clientCfg)
		if err != nil {
			slog.Warn("skipping configured client", "name", c.Name, "error", err)
			continue
		}
		reg.Register(c.Name, client)
		slog.Debug("registered configured client", "name", c.Name, "format", clientCfg.Format)
	}
}
