// Palettize - Listening History Color Palette Engine
// Copyright 2026 Palettize Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/palettize/palettize

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/palettize/palettize/internal/logging"
	"github.com/palettize/palettize/internal/metrics"
)

// requestIDHeader echoes the id back so clients can correlate logs.
const requestIDHeader = "X-Request-ID"

// RequestID assigns each request a UUID unless the client supplied one.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if id == "" {
				id = uuid.NewString()
				r.Header.Set(requestIDHeader, id)
			}
			w.Header().Set(requestIDHeader, id)

			logger := logging.Logger().With().Str("request_id", id).Logger()
			next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context())))
		})
	}
}

// RequestLogger emits one structured log line per request and records the
// HTTP metrics, keyed by the matched Chi route pattern rather than the raw
// path so cardinality stays bounded.
func RequestLogger() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			took := time.Since(start)

			metrics.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(ww.Status())).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(route).Observe(took.Seconds())

			logging.Debug().
				Str("request_id", r.Header.Get(requestIDHeader)).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("took", took).
				Msg("request served")
		})
	}
}
