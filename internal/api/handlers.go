// Palettize - Listening History Color Palette Engine
// Copyright 2026 Palettize Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/palettize/palettize

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/palettize/palettize/internal/cache"
	"github.com/palettize/palettize/internal/catalog"
	"github.com/palettize/palettize/internal/palette"
)

// Builder is the slice of the palette engine the handlers consume.
type Builder interface {
	BuildPalette(ctx context.Context, window catalog.Window) (*palette.Result, error)
	BuildAllPalettes(ctx context.Context) (map[catalog.Window]*palette.Result, error)
}

// Handler serves the palette endpoints.
type Handler struct {
	builder   Builder
	lookups   *cache.Cache
	results   *cache.Cache
	startTime time.Time
}

// NewHandler wires the handlers. The caches are only read for health
// reporting; either may be nil.
func NewHandler(builder Builder, lookups, results *cache.Cache) *Handler {
	return &Handler{
		builder:   builder,
		lookups:   lookups,
		results:   results,
		startTime: time.Now(),
	}
}

// Palette serves GET /api/v1/palette/{window}: the ten color buckets for one
// time window.
func (h *Handler) Palette(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	window, err := catalog.ParseWindow(chi.URLParam(r, "window"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_WINDOW", err.Error(), nil)
		return
	}

	res, err := h.builder.BuildPalette(r.Context(), window)
	if err != nil {
		respondError(w, http.StatusBadGateway, "CATALOG_ERROR", "failed to build palette", err)
		return
	}
	respondData(w, res, start)
}

// PaletteAll serves GET /api/v1/palette: all three windows, built in
// parallel, keyed by window name.
func (h *Handler) PaletteAll(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	out, err := h.builder.BuildAllPalettes(r.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, "CATALOG_ERROR", "failed to build palettes", err)
		return
	}
	respondData(w, out, start)
}

// healthStatus is the health endpoint body.
type healthStatus struct {
	Status        string       `json:"status"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	LookupCache   *cache.Stats `json:"lookup_cache,omitempty"`
	ResultCache   *cache.Stats `json:"result_cache,omitempty"`
}

// Health serves GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	hs := healthStatus{
		Status:        "healthy",
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
	}
	if h.lookups != nil {
		s := h.lookups.Snapshot()
		hs.LookupCache = &s
	}
	if h.results != nil {
		s := h.results.Snapshot()
		hs.ResultCache = &s
	}
	respondData(w, hs, start)
}
