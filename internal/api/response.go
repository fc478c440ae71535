// Palettize - Listening History Color Palette Engine
// Copyright 2026 Palettize Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/palettize/palettize

// Package api provides the HTTP surface: Chi routing, the response envelope,
// and the palette/health handlers.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/palettize/palettize/internal/colors"
	"github.com/palettize/palettize/internal/logging"
)

// Response is the envelope every endpoint returns.
type Response struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *Error      `json:"error,omitempty"`
}

// Metadata carries response observability fields.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	TookMS    int64     `json:"took_ms"`
}

// Error is the machine-readable error body.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, resp *Response) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=60")
	w.Header().Set("Vary", "Accept-Encoding")

	data, err := json.Marshal(resp)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("ETag", strconv.FormatUint(uint64(colors.StableHash(string(data))), 16))
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("failed to write response")
	}
}

func respondData(w http.ResponseWriter, data interface{}, start time.Time) {
	respondJSON(w, http.StatusOK, &Response{
		Status: "ok",
		Data:   data,
		Metadata: Metadata{
			Timestamp: time.Now().UTC(),
			TookMS:    time.Since(start).Milliseconds(),
		},
	})
}

func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().Str("code", code).Err(err).Msg("request failed")
	}
	respondJSON(w, status, &Response{
		Status:   "error",
		Metadata: Metadata{Timestamp: time.Now().UTC()},
		Error:    &Error{Code: code, Message: message},
	})
}
