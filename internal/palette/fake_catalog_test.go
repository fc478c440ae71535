// Palettize - Listening History Color Palette Engine
// Copyright 2026 Palettize Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/palettize/palettize

package palette

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/palettize/palettize/internal/cache"
	"github.com/palettize/palettize/internal/catalog"
)

// fakeCatalog is a deterministic in-memory catalog for pipeline tests.
type fakeCatalog struct {
	mu sync.Mutex

	topTracks    map[catalog.Window][]catalog.Track
	topArtists   map[catalog.Window][]catalog.Artist
	saved        []catalog.SavedAlbum
	artistAlbums map[string][]catalog.Album
	images       map[string][]byte

	topTracksErr error

	topTracksCalls     int
	topTracksPageCalls map[string]int
	savedPageCalls     map[string]int
	imageCalls         map[string]int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		topTracks:          make(map[catalog.Window][]catalog.Track),
		topArtists:         make(map[catalog.Window][]catalog.Artist),
		artistAlbums:       make(map[string][]catalog.Album),
		images:             make(map[string][]byte),
		topTracksPageCalls: make(map[string]int),
		savedPageCalls:     make(map[string]int),
		imageCalls:         make(map[string]int),
	}
}

// pageKey identifies one logical page request.
func pageKey(window catalog.Window, limit, offset int) string {
	return fmt.Sprintf("%s|%d|%d", window, limit, offset)
}

func (f *fakeCatalog) TopTracks(_ context.Context, window catalog.Window, limit, offset int) ([]catalog.Track, error) {
	f.mu.Lock()
	f.topTracksCalls++
	f.topTracksPageCalls[pageKey(window, limit, offset)]++
	f.mu.Unlock()

	if f.topTracksErr != nil {
		return nil, f.topTracksErr
	}
	items := f.topTracks[window]
	if offset >= len(items) {
		return nil, nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end], nil
}

func (f *fakeCatalog) TopArtists(_ context.Context, window catalog.Window, limit int) ([]catalog.Artist, error) {
	items := f.topArtists[window]
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (f *fakeCatalog) SavedAlbums(_ context.Context, limit, offset int) ([]catalog.SavedAlbum, error) {
	f.mu.Lock()
	f.savedPageCalls[fmt.Sprintf("%d|%d", limit, offset)]++
	f.mu.Unlock()

	if offset >= len(f.saved) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.saved) {
		end = len(f.saved)
	}
	return f.saved[offset:end], nil
}

func (f *fakeCatalog) ArtistAlbums(_ context.Context, artistID string, limit int) ([]catalog.Album, error) {
	items := f.artistAlbums[artistID]
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (f *fakeCatalog) FetchImage(_ context.Context, imageURL string) ([]byte, error) {
	f.mu.Lock()
	f.imageCalls[imageURL]++
	f.mu.Unlock()

	data, ok := f.images[imageURL]
	if !ok {
		return nil, errors.New("image not found")
	}
	return data, nil
}

// coverAlbum registers a solid-color cover for an album and returns it.
func (f *fakeCatalog) coverAlbum(t *testing.T, id, name, artist string, tracks int, c color.NRGBA) catalog.Album {
	t.Helper()
	a := album(id, name, artist, tracks)
	f.images[a.CoverURL()] = solidPNG(t, c)
	return a
}

func solidPNG(t *testing.T, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func trackFor(a catalog.Album, trackID string) catalog.Track {
	return catalog.Track{ID: trackID, Name: "Track " + trackID, Album: a, Artists: a.Artists}
}

// newTestEngine wires an engine around the fake with fresh caches.
func newTestEngine(t *testing.T, f *fakeCatalog, cfg Config) *Engine {
	t.Helper()
	lookups := cache.New(time.Minute, 512)
	results := cache.New(time.Minute, 64)
	t.Cleanup(lookups.Close)
	t.Cleanup(results.Close)
	return New(f, lookups, results, cfg)
}

var (
	nrgbaRed   = color.NRGBA{R: 0xcc, A: 0xff}
	nrgbaBlue  = color.NRGBA{B: 0xcc, A: 0xff}
	nrgbaGreen = color.NRGBA{G: 0xcc, A: 0xff}
	nrgbaPink  = color.NRGBA{R: 0xff, B: 0xbb, A: 0xff}
)
