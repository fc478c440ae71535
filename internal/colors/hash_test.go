// Palettize - Listening History Color Palette Engine
// Copyright 2026 Palettize Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/palettize/palettize

package colors

import "testing"

func TestStableHash_KnownValues(t *testing.T) {
	// Published FNV-1a 32-bit test vectors.
	tests := []struct {
		key  string
		want uint32
	}{
		{"", 2166136261},
		{"a", 0xe40c292c},
		{"foobar", 0xbf9cf968},
	}
	for _, tt := range tests {
		if got := StableHash(tt.key); got != tt.want {
			t.Errorf("StableHash(%q) = %#x, want %#x", tt.key, got, tt.want)
		}
	}
}

func TestStableHash_Stable(t *testing.T) {
	key := "medium_term|purple"
	first := StableHash(key)
	for i := 0; i < 100; i++ {
		if got := StableHash(key); got != first {
			t.Fatalf("StableHash(%q) not stable: %#x then %#x", key, first, got)
		}
	}
}
