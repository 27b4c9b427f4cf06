// Package config loads tool configuration from the environment, with an
// optional TOML file layered on top for per-project overrides.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all tool configuration.
type Config struct {
	Inspect InspectConfig `toml:"inspect"`
	Logging LogConfig     `toml:"logging"`
	Layout  LayoutConfig  `toml:"layout"`
}

// InspectConfig holds the inspection server configuration.
type InspectConfig struct {
	Port              string `envconfig:"INSPECT_PORT" default:"7465" toml:"port"`
	Host              string `envconfig:"INSPECT_HOST" default:"127.0.0.1" toml:"host"`
	RequestsPerSecond int    `envconfig:"INSPECT_RPS" default:"50" toml:"requests_per_second"`
	Burst             int    `envconfig:"INSPECT_BURST" default:"100" toml:"burst"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" toml:"development"`
}

// LayoutConfig holds layout persistence configuration.
type LayoutConfig struct {
	// Path is where Save/Restore reads and writes the layout stream.
	Path string `envconfig:"LAYOUT_PATH" default:"layout.pnkl" toml:"path"`
	// MainWidth and MainHeight size the main dock area.
	MainWidth  int `envconfig:"MAIN_WIDTH" default:"1280" toml:"main_width"`
	MainHeight int `envconfig:"MAIN_HEIGHT" default:"720" toml:"main_height"`
}

// Load reads configuration from environment variables, then applies the
// TOML file at path when it exists. File values win over environment ones.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// No override file is fine.
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file %s: %w", path, err)
			}
		}
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration or falls back to defaults.
func LoadOrDefault(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Inspect: InspectConfig{
			Port:              "7465",
			Host:              "127.0.0.1",
			RequestsPerSecond: 50,
			Burst:             100,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Layout: LayoutConfig{
			Path:       "layout.pnkl",
			MainWidth:  1280,
			MainHeight: 720,
		},
	}
}
