// Palettize - Listening History Color Palette Engine
// Copyright 2026 Palettize Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/palettize/palettize

package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestInit_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn", Format: "json", Output: &buf})
	defer Init(Config{Level: "info", Format: "json"})

	Info().Msg("below threshold")
	Warn().Msg("at threshold")

	out := buf.String()
	if strings.Contains(out, "below threshold") {
		t.Error("info message logged at warn level")
	}
	if !strings.Contains(out, "at threshold") {
		t.Error("warn message missing")
	}
}

func TestInit_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "nonsense", Format: "json", Output: &buf})
	defer Init(Config{Level: "info", Format: "json"})

	Info().Msg("still logged")
	if !strings.Contains(buf.String(), "still logged") {
		t.Error("expected info fallback on invalid level")
	}
}

func TestHelpersEmitAtTheirLevel(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(Config{Level: "info", Format: "json"})

	Debug().Msg("d")
	Info().Msg("i")
	Warn().Msg("w")
	Error().Msg("e")

	out := buf.String()
	for _, want := range []string{`"level":"debug"`, `"level":"info"`, `"level":"warn"`, `"level":"error"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}

func TestStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(Config{Level: "info", Format: "json"})

	Debug().Str("window", "short_term").Int("filled", 7).Msg("palette built")

	out := buf.String()
	for _, want := range []string{`"window":"short_term"`, `"filled":7`, `"palette built"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}
