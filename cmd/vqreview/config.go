// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// cliConfig is the reviewer's connection settings
type cliConfig struct {
	BaseURL        string `toml:"base_url"`
	StaffID        string `toml:"staff_id"`
	StaffKey       string `toml:"staff_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	LogFormat      string `toml:"log_format"`
}

func defaultConfig() cliConfig {
	return cliConfig{
		BaseURL:        "http://localhost:3318",
		TimeoutSeconds: 15,
		LogFormat:      "text",
	}
}

func (c cliConfig) timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// defaultConfigPath returns $XDG_CONFIG_HOME/vqreview/config.toml, falling
// back to ~/.config when XDG_CONFIG_HOME is unset
func defaultConfigPath() (string, error) {
	if base, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "vqreview", "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "vqreview", "config.toml"), nil
}

// loadConfig reads the TOML file at path, then applies VQ_* environment
// overrides. An explicit path must exist; the default one is optional.
func loadConfig(path string) (cliConfig, string, error) {
	cfg := defaultConfig()

	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		var err error
		path, err = defaultConfigPath()
		if err != nil {
			return cfg, "", err
		}
	}

	file, err := os.Open(path)
	switch {
	case err == nil:
		defer file.Close()
		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return cfg, path, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return cfg, path, fmt.Errorf("open config: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, path, err
	}
	return cfg, path, cfg.validate()
}

func (c *cliConfig) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("VQ_BASE_URL", &c.BaseURL)
	str("VQ_STAFF_ID", &c.StaffID)
	str("VQ_STAFF_KEY", &c.StaffKey)
	str("VQ_LOG_FORMAT", &c.LogFormat)

	if v, ok := lookup("VQ_TIMEOUT_SECONDS"); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("VQ_TIMEOUT_SECONDS: %w", err)
		}
		c.TimeoutSeconds = n
	}
	return nil
}

func (c cliConfig) validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("base_url is required")
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive, got %d", c.TimeoutSeconds)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// requireStaff reports missing credentials before any request is made
func (c cliConfig) requireStaff() error {
	if c.StaffID == "" || c.StaffKey == "" {
		return errors.New("staff credentials missing: set staff_id and staff_key in the config file, VQ_STAFF_ID/VQ_STAFF_KEY, or --staff-id/--staff-key")
	}
	return nil
}

// writeConfig stores cfg at path. The file holds the staff key, so it is
// only readable by the owner.
func writeConfig(path string, cfg cliConfig, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists; use --force to overwrite", path)
		}
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
