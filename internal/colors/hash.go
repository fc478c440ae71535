// Palettize - Listening History Color Palette Engine
// Copyright 2026 Palettize Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/palettize/palettize

package colors

// StableHash is the 32-bit FNV-1a hash of key. It is part of the selection
// contract: variety picks are StableHash(window + "|" + bucket) reduced modulo
// the candidate count, so the algorithm is spelled out here rather than taken
// from a library. Offset basis 2166136261, prime 16777619.
func StableHash(key string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(key); i++ {
		h ^= uint32(key[i])
		h *= 16777619
	}
	return h
}
