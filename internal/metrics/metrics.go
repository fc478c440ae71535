// Palettize - Listening History Color Palette Engine
// Copyright 2026 Palettize Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/palettize/palettize

// Package metrics exposes Prometheus instrumentation for the palette engine:
// catalog request volume and latency, color sampling outcomes, bucket fills
// per backfill stage, and end-to-end palette build duration. Metrics are
// served at /metrics in Prometheus text format.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CatalogRequests counts requests to the catalog service by endpoint
	// and outcome.
	CatalogRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "palettize_catalog_requests_total",
		Help: "Catalog API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	// CatalogRequestDuration tracks catalog request latency per endpoint.
	CatalogRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "palettize_catalog_request_duration_seconds",
		Help:    "Catalog API request latency",
		Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"endpoint"})

	// ColorSamples counts dominant-color extractions by outcome
	// (ok, no_color, error).
	ColorSamples = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "palettize_color_samples_total",
		Help: "Cover color extractions by outcome",
	}, []string{"outcome"})

	// BucketFills counts bucket fills by pipeline stage.
	BucketFills = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "palettize_bucket_fills_total",
		Help: "Buckets filled by pipeline stage",
	}, []string{"stage"})

	// BucketsUnfilled counts buckets exhausted through every stage.
	BucketsUnfilled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "palettize_buckets_unfilled_total",
		Help: "Buckets left empty after all backfill stages",
	})

	// PaletteBuildDuration tracks full pipeline duration per window.
	PaletteBuildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "palettize_palette_build_duration_seconds",
		Help:    "End-to-end palette build duration",
		Buckets: []float64{.1, .5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"window"})

	// HTTPRequests counts served HTTP requests by route pattern, method,
	// and status class.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "palettize_http_requests_total",
		Help: "HTTP requests by route, method, and status",
	}, []string{"route", "method", "status"})

	// HTTPRequestDuration tracks request latency by route pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "palettize_http_request_duration_seconds",
		Help:    "HTTP request latency by route",
		Buckets: []float64{.005, .01, .05, .1, .5, 1, 5, 30},
	}, []string{"route"})
)
