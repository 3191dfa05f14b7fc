// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// Config holds settings shared by every command. Flags override these.
type Config struct {
	ContentDir string `env:"UNLOCKCORE_CONTENT_DIR"`
	SaveDir    string `env:"UNLOCKCORE_SAVE_DIR"`
	DBPath     string `env:"UNLOCKCORE_DB_PATH"`
	LogLevel   string `env:"UNLOCKCORE_LOG_LEVEL" envDefault:"warn"`
	LogFormat  string `env:"UNLOCKCORE_LOG_FORMAT" envDefault:"text"`
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment into a Config and fills path defaults.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.SaveDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolving save dir: %w", err)
		}
		cfg.SaveDir = filepath.Join(home, ".unlockcore", "saves")
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return Config{}, fmt.Errorf("UNLOCKCORE_LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}
	return cfg, nil
}
