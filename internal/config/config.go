// Package config loads the server settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Addr      string `yaml:"addr"`       // Listen address of the HTTP server
	Image     string `yaml:"image"`      // Bitmap served by the API
	StaticDir string `yaml:"static_dir"` // Directory served under "/"
	APIPrefix string `yaml:"api_prefix"` // Prefix of the API routes
	LogLevel  string `yaml:"log_level"`  // debug, info, warn or error
	Gzip      bool   `yaml:"gzip"`       // Compress responses
}

func Default() *Config {
	return &Config{
		Addr:      ":8000",
		Image:     "files/image.bmp",
		StaticDir: "res",
		APIPrefix: "/api",
		LogLevel:  "info",
		Gzip:      true,
	}
}

// Load reads the YAML file at path on top of the defaults. A missing file
// is not an error: the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Info("configuration file not found, using defaults", "path", path)
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read configuration file '%s': %w", path, err)
	}

	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file '%s': %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration file '%s': %w", path, err)
	}
	return cfg, nil
}

// Validate checks the settings and drops trailing slashes from APIPrefix,
// so "/" and "/api/" route like "" and "/api". An empty prefix puts the
// API at the root.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return errors.New("addr must not be empty")
	case c.Image == "":
		return errors.New("image must not be empty")
	case c.APIPrefix != "" && !strings.HasPrefix(c.APIPrefix, "/"):
		return fmt.Errorf("api_prefix %q must start with '/'", c.APIPrefix)
	case strings.ContainsAny(c.APIPrefix, "{} \t"):
		return fmt.Errorf("api_prefix %q must not contain braces or spaces", c.APIPrefix)
	}
	c.APIPrefix = strings.TrimRight(c.APIPrefix, "/")
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level converts LogLevel for slog
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}
