// Palettize - Listening History Color Palette Engine
// Copyright 2026 Palettize Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/palettize/palettize

// Package main is the entry point for the Palettize server.
//
// Palettize turns a listener's play history into a ten-bucket color palette:
// each perceptual color bucket (red through black) is filled with the album
// from their listening whose cover art best represents that color. The server
// exposes the palettes over a small REST API.
//
// The server initializes in order:
//
//  1. Configuration: Koanf v2 layered loading (defaults, YAML file, env)
//  2. Logging: zerolog, JSON or console format
//  3. Catalog client: rate-limited, circuit-broken upstream access
//  4. Caches: catalog lookups/cover samples, and finished palettes
//  5. Engine: the aggregate/enrich/select/backfill pipeline
//  6. HTTP server: Chi router with palette, health, and metrics endpoints
//
// Shutdown on SIGINT/SIGTERM is graceful: the listener stops accepting new
// connections and in-flight requests get the configured drain window.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/palettize/palettize/internal/api"
	"github.com/palettize/palettize/internal/cache"
	"github.com/palettize/palettize/internal/catalog"
	"github.com/palettize/palettize/internal/config"
	"github.com/palettize/palettize/internal/logging"
	"github.com/palettize/palettize/internal/palette"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	logging.Info().
		Str("catalog_url", cfg.Catalog.BaseURL).
		Str("listener", cfg.Engine.ListenerID).
		Msg("configuration loaded")

	client := catalog.NewClient(catalog.Config{
		BaseURL:           cfg.Catalog.BaseURL,
		Token:             cfg.Catalog.Token,
		Timeout:           cfg.Catalog.Timeout,
		RequestsPerSecond: cfg.Catalog.RequestsPerSecond,
		Burst:             cfg.Catalog.Burst,
		MaxRetries429:     cfg.Catalog.MaxRetries429,
		RetryBaseDelay:    cfg.Catalog.RetryBaseDelay,
	})

	lookups := cache.New(cfg.Cache.LookupTTL, cfg.Cache.LookupCapacity)
	defer lookups.Close()
	results := cache.New(cfg.Cache.ResultTTL, cfg.Cache.ResultCapacity)
	defer results.Close()

	engine := palette.New(client, lookups, results, palette.Config{
		ListenerID:        cfg.Engine.ListenerID,
		Workers:           cfg.Engine.Workers,
		CandidatePool:     cfg.Engine.CandidatePool,
		TopTracksPageSize: cfg.Engine.TopTracksPageSize,
		TopTracksPages:    cfg.Engine.TopTracksPages,
		TopArtistsLimit:   cfg.Engine.TopArtistsLimit,
		SavedScanDepth:    cfg.Engine.SavedScanDepth,
		SavedPageSize:     cfg.Engine.SavedPageSize,
		ArtistScanCount:   cfg.Engine.ArtistScanCount,
		AlbumsPerArtist:   cfg.Engine.AlbumsPerArtist,
		WidePoolPages:     cfg.Engine.WidePoolPages,
		EnrichmentBudget:  cfg.Engine.EnrichmentBudget,
		EnrichmentBatch:   cfg.Engine.EnrichmentBatch,
	})

	handler := api.NewHandler(engine, lookups, results)
	router := api.NewRouter(handler, api.RouterConfig{
		CORSAllowedOrigins: cfg.Server.CORSOrigins,
		RateLimitRequests:  cfg.Server.RateLimitRequests,
		RateLimitWindow:    cfg.Server.RateLimitWindow,
		RateLimitDisabled:  cfg.Server.RateLimitDisabled,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("http server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logging.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error().Err(err).Msg("http server failed")
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown failed")
	}

	logging.Info().Msg("server stopped")
}
