// Palettize - Listening History Color Palette Engine
// Copyright 2026 Palettize Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/palettize/palettize

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig holds the HTTP-surface knobs.
type RouterConfig struct {
	// CORSAllowedOrigins defaults to none: cross-origin access requires
	// explicit configuration.
	CORSAllowedOrigins []string

	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool
}

// DefaultRouterConfig returns the production defaults.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CORSAllowedOrigins: []string{},
		RateLimitRequests:  60,
		RateLimitWindow:    time.Minute,
	}
}

// Router assembles the Chi handler tree.
type Router struct {
	handler *Handler
	cfg     RouterConfig
}

// NewRouter creates a router around the handlers.
func NewRouter(handler *Handler, cfg RouterConfig) *Router {
	if cfg.RateLimitRequests <= 0 {
		cfg.RateLimitRequests = DefaultRouterConfig().RateLimitRequests
	}
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = DefaultRouterConfig().RateLimitWindow
	}
	return &Router{handler: handler, cfg: cfg}
}

// Setup builds the complete handler tree: global middleware, the palette
// and health endpoints, and the Prometheus scrape endpoint.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(RequestLogger())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: router.cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         86400,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		if !router.cfg.RateLimitDisabled {
			r.Use(httprate.LimitByIP(router.cfg.RateLimitRequests, router.cfg.RateLimitWindow))
		}
		r.Get("/health", router.handler.Health)
		r.Get("/palette", router.handler.PaletteAll)
		r.Get("/palette/{window}", router.handler.Palette)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
