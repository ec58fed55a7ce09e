package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds connection settings for commands that hit a database.
// Flags override file values; the file is optional.
type Config struct {
	DSN  string `yaml:"dsn"`
	User string `yaml:"user"`
}

// LoadConfig reads a YAML config file. An empty path returns a zero config
// without touching the filesystem.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
