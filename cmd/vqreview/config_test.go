// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	isolateConfig(t)

	cfg, path, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg != defaultConfig() {
		t.Errorf("expected defaults, got %+v", cfg)
	}
	want := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "vqreview", "config.toml")
	if path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	isolateConfig(t)
	path := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "vqreview", "config.toml")
	writeFile(t, path, `
base_url = "https://queue.example.ph"
staff_id = "staff-1"
staff_key = "key-1"
timeout_seconds = 30
`)

	cfg, _, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	want := cliConfig{
		BaseURL:        "https://queue.example.ph",
		StaffID:        "staff-1",
		StaffKey:       "key-1",
		TimeoutSeconds: 30,
		LogFormat:      "text",
	}
	if cfg != want {
		t.Errorf("got %+v, want %+v", cfg, want)
	}

	t.Setenv("VQ_STAFF_ID", "staff-2")
	t.Setenv("VQ_TIMEOUT_SECONDS", "5")
	cfg, _, err = loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig with env: %v", err)
	}
	if cfg.StaffID != "staff-2" || cfg.TimeoutSeconds != 5 {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
	if cfg.StaffKey != "key-1" {
		t.Errorf("unset env must keep file value, got %q", cfg.StaffKey)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
		missing bool
		wantErr string
	}{
		{name: "explicit path missing", missing: true, wantErr: "open config"},
		{name: "unknown key", content: `base_uri = "x"`, wantErr: "parse config"},
		{name: "invalid toml", content: `base_url = `, wantErr: "parse config"},
		{name: "zero timeout", content: `timeout_seconds = 0`, wantErr: "timeout_seconds must be positive"},
		{name: "bad log format", content: `log_format = "yaml"`, wantErr: "log_format"},
		{name: "bad env timeout", content: ``, env: map[string]string{"VQ_TIMEOUT_SECONDS": "soon"}, wantErr: "VQ_TIMEOUT_SECONDS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateConfig(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := filepath.Join(t.TempDir(), "config.toml")
			if !tt.missing {
				writeFile(t, path, tt.content)
			}

			_, _, err := loadConfig(path)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestWriteConfig(t *testing.T) {
	isolateConfig(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := cliConfig{BaseURL: "http://10.0.0.5:3318", StaffID: "s", StaffKey: "k", TimeoutSeconds: 20, LogFormat: "json"}

	if err := writeConfig(path, cfg, false); err != nil {
		t.Fatalf("writeConfig: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config mode = %o, want 600", perm)
	}

	got, _, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if got != cfg {
		t.Errorf("got %+v, want %+v", got, cfg)
	}

	if err := writeConfig(path, cfg, false); err == nil {
		t.Error("expected existing file to be kept without force")
	}
	if err := writeConfig(path, cfg, true); err != nil {
		t.Errorf("writeConfig with force: %v", err)
	}
}

func TestConfigCommands(t *testing.T) {
	isolateConfig(t)
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := runCLI(t, "", "--staff-id", "staff-9", "--staff-key", "secret", "--base-url", "queue.local:3318", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote configuration to "+target)

	out, err = runCLI(t, "", "--config", target, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "base_url:        queue.local:3318")
	requireContains(t, out, "staff_id:        staff-9")
	requireContains(t, out, "staff_key:       (set)")
	requireNotContains(t, out, "secret")
}
