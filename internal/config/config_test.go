// Palettize - Listening History Color Palette Engine
// Copyright 2026 Palettize Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/palettize/palettize

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PALETTIZE_CATALOG_TOKEN", "test-token")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8319 {
		t.Errorf("port = %d, want 8319", cfg.Server.Port)
	}
	if cfg.Catalog.Token != "test-token" {
		t.Errorf("token = %q, want test-token", cfg.Catalog.Token)
	}
	if cfg.Engine.TopTracksPageSize != 50 {
		t.Errorf("page size = %d, want 50", cfg.Engine.TopTracksPageSize)
	}
	if cfg.Cache.LookupTTL != 5*time.Minute {
		t.Errorf("lookup ttl = %v, want 5m", cfg.Cache.LookupTTL)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("log level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoad_MissingTokenFails(t *testing.T) {
	t.Setenv("PALETTIZE_CATALOG_TOKEN", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected validation failure without a catalog token")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PALETTIZE_CATALOG_TOKEN", "test-token")
	t.Setenv("PALETTIZE_SERVER_PORT", "9000")
	t.Setenv("PALETTIZE_ENGINE_TOP_TRACKS_PAGES", "3")
	t.Setenv("PALETTIZE_CACHE_RESULT_TTL", "30m")
	t.Setenv("PALETTIZE_LOGGING_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Engine.TopTracksPages != 3 {
		t.Errorf("pages = %d, want 3", cfg.Engine.TopTracksPages)
	}
	if cfg.Cache.ResultTTL != 30*time.Minute {
		t.Errorf("result ttl = %v, want 30m", cfg.Cache.ResultTTL)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoad_CORSOriginsSplit(t *testing.T) {
	t.Setenv("PALETTIZE_CATALOG_TOKEN", "test-token")
	t.Setenv("PALETTIZE_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"https://a.example", "https://b.example"}
	if len(cfg.Server.CORSOrigins) != len(want) {
		t.Fatalf("origins = %v, want %v", cfg.Server.CORSOrigins, want)
	}
	for i := range want {
		if cfg.Server.CORSOrigins[i] != want[i] {
			t.Errorf("origin[%d] = %q, want %q", i, cfg.Server.CORSOrigins[i], want[i])
		}
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("server:\n  port: 7777\ncatalog:\n  token: file-token\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("port = %d, want 7777 from file", cfg.Server.Port)
	}
	if cfg.Catalog.Token != "file-token" {
		t.Errorf("token = %q, want file-token", cfg.Catalog.Token)
	}
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("server:\n  port: 7777\ncatalog:\n  token: file-token\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("PALETTIZE_SERVER_PORT", "8888")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8888 {
		t.Errorf("port = %d, want env override 8888", cfg.Server.Port)
	}
}

func TestLoad_InvalidPortFails(t *testing.T) {
	t.Setenv("PALETTIZE_CATALOG_TOKEN", "test-token")
	t.Setenv("PALETTIZE_SERVER_PORT", "70000")

	if _, err := Load(); err == nil {
		t.Fatal("expected validation failure for out-of-range port")
	}
}

func TestEnvTransform(t *testing.T) {
	cases := map[string]string{
		"PALETTIZE_SERVER_PORT":              "server.port",
		"PALETTIZE_CATALOG_TOKEN":            "catalog.token",
		"PALETTIZE_CATALOG_BASE_URL":         "catalog.base_url",
		"PALETTIZE_ENGINE_TOP_TRACKS_PAGES":  "engine.top_tracks_pages",
		"PALETTIZE_CACHE_LOOKUP_TTL":         "cache.lookup_ttl",
		"PALETTIZE_SERVER_RATE_LIMIT_WINDOW": "server.rate_limit_window",
	}
	for in, want := range cases {
		if got := envTransform(in); got != want {
			t.Errorf("envTransform(%q) = %q, want %q", in, got, want)
		}
	}
}
