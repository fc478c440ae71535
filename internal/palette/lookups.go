// Palettize - Listening History Color Palette Engine
// Copyright 2026 Palettize Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/palettize/palettize

package palette

import (
	"context"

	"github.com/palettize/palettize/internal/cache"
	"github.com/palettize/palettize/internal/catalog"
)

// Cached catalog lookups. Every upstream read goes through the lookup cache
// so one logical page is fetched at most once per TTL, and concurrent builds
// of different windows coalesce their shared cross-window pulls.

func (e *Engine) topTracks(ctx context.Context, w catalog.Window, limit, offset int) ([]catalog.Track, error) {
	key := cache.GenerateKey("top-tracks", string(w), limit, offset)
	v, err := e.lookups.GetOrCompute(key, func() (interface{}, error) {
		return e.catalog.TopTracks(ctx, w, limit, offset)
	})
	if err != nil {
		return nil, err
	}
	return v.([]catalog.Track), nil
}

func (e *Engine) topArtists(ctx context.Context, w catalog.Window, limit int) ([]catalog.Artist, error) {
	key := cache.GenerateKey("top-artists", string(w), limit)
	v, err := e.lookups.GetOrCompute(key, func() (interface{}, error) {
		return e.catalog.TopArtists(ctx, w, limit)
	})
	if err != nil {
		return nil, err
	}
	return v.([]catalog.Artist), nil
}

func (e *Engine) savedAlbums(ctx context.Context, limit, offset int) ([]catalog.SavedAlbum, error) {
	key := cache.GenerateKey("saved-albums", limit, offset)
	v, err := e.lookups.GetOrCompute(key, func() (interface{}, error) {
		return e.catalog.SavedAlbums(ctx, limit, offset)
	})
	if err != nil {
		return nil, err
	}
	return v.([]catalog.SavedAlbum), nil
}

func (e *Engine) artistAlbums(ctx context.Context, artistID string, limit int) ([]catalog.Album, error) {
	key := cache.GenerateKey("artist-albums", artistID, limit)
	v, err := e.lookups.GetOrCompute(key, func() (interface{}, error) {
		return e.catalog.ArtistAlbums(ctx, artistID, limit)
	})
	if err != nil {
		return nil, err
	}
	return v.([]catalog.Album), nil
}
