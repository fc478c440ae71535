// Palettize - Listening History Color Palette Engine
// Copyright 2026 Palettize Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/palettize/palettize

// Package config loads layered configuration: built-in defaults, an optional
// YAML file, then PALETTIZE_* environment variables, in rising precedence.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the full application configuration.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Catalog CatalogConfig `koanf:"catalog"`
	Engine  EngineConfig  `koanf:"engine"`
	Cache   CacheConfig   `koanf:"cache"`
	Logging LoggingConfig `koanf:"logging"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"min=1"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// CatalogConfig holds the upstream music catalog connection settings. The
// token grants access to one listener's history and library.
type CatalogConfig struct {
	BaseURL string        `koanf:"base_url" validate:"required,url"`
	Token   string        `koanf:"token" validate:"required"`
	Timeout time.Duration `koanf:"timeout"`

	RequestsPerSecond float64       `koanf:"requests_per_second" validate:"gt=0"`
	Burst             int           `koanf:"burst" validate:"min=1"`
	MaxRetries429     int           `koanf:"max_retries_429" validate:"min=0"`
	RetryBaseDelay    time.Duration `koanf:"retry_base_delay"`
}

// EngineConfig holds the palette pipeline's scan depths and budgets.
type EngineConfig struct {
	ListenerID string `koanf:"listener_id"`

	Workers       int `koanf:"workers" validate:"min=1"`
	CandidatePool int `koanf:"candidate_pool" validate:"min=1"`

	TopTracksPageSize int `koanf:"top_tracks_page_size" validate:"min=1,max=50"`
	TopTracksPages    int `koanf:"top_tracks_pages" validate:"min=1"`
	TopArtistsLimit   int `koanf:"top_artists_limit" validate:"min=1,max=50"`

	SavedScanDepth  int `koanf:"saved_scan_depth" validate:"min=1"`
	SavedPageSize   int `koanf:"saved_page_size" validate:"min=1,max=50"`
	ArtistScanCount int `koanf:"artist_scan_count" validate:"min=1"`
	AlbumsPerArtist int `koanf:"albums_per_artist" validate:"min=1,max=50"`

	WidePoolPages    int `koanf:"wide_pool_pages" validate:"min=1"`
	EnrichmentBudget int `koanf:"enrichment_budget" validate:"min=1"`
	EnrichmentBatch  int `koanf:"enrichment_batch" validate:"min=1"`
}

// CacheConfig sizes the two in-memory caches: catalog lookups and cover
// samples in one, finished palettes in the other.
type CacheConfig struct {
	LookupTTL      time.Duration `koanf:"lookup_ttl"`
	LookupCapacity int           `koanf:"lookup_capacity" validate:"min=1"`
	ResultTTL      time.Duration `koanf:"result_ttl"`
	ResultCapacity int           `koanf:"result_capacity" validate:"min=1"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// defaultConfig returns the built-in defaults, overridden by file and env.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8319,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,

			CORSOrigins:       []string{},
			RateLimitRequests: 60,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Catalog: CatalogConfig{
			BaseURL: "https://api.spotify.com",
			Token:   "",
			Timeout: 15 * time.Second,

			RequestsPerSecond: 8,
			Burst:             4,
			MaxRetries429:     1,
			RetryBaseDelay:    500 * time.Millisecond,
		},
		Engine: EngineConfig{
			ListenerID:        "me",
			Workers:           6,
			CandidatePool:     40,
			TopTracksPageSize: 50,
			TopTracksPages:    2,
			TopArtistsLimit:   20,
			SavedScanDepth:    100,
			SavedPageSize:     50,
			ArtistScanCount:   10,
			AlbumsPerArtist:   10,
			WidePoolPages:     5,
			EnrichmentBudget:  60,
			EnrichmentBatch:   10,
		},
		Cache: CacheConfig{
			LookupTTL:      5 * time.Minute,
			LookupCapacity: 512,
			ResultTTL:      15 * time.Minute,
			ResultCapacity: 128,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks field constraints via struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return fmt.Errorf("config field %s failed %q validation", f.Namespace(), f.Tag())
		}
		return err
	}
	return nil
}
