// Palettize - Listening History Color Palette Engine
// Copyright 2026 Palettize Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/palettize/palettize

package catalog

import "fmt"

// Window identifies one of the three canonical listening-history ranges.
type Window string

// The canonical windows, matching the catalog service's range parameter.
const (
	WindowShort  Window = "short_term"
	WindowMedium Window = "medium_term"
	WindowLong   Window = "long_term"
)

// Windows lists the canonical windows in short-to-long order.
var Windows = []Window{WindowShort, WindowMedium, WindowLong}

// ParseWindow validates a window string from an untrusted source.
func ParseWindow(s string) (Window, error) {
	switch Window(s) {
	case WindowShort, WindowMedium, WindowLong:
		return Window(s), nil
	}
	return "", fmt.Errorf("unknown time window %q", s)
}

// Image is one rendition of a cover image.
type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Artist is a catalog artist reference.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Album is a catalog album with its cover image renditions.
type Album struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	AlbumType   string   `json:"album_type"`
	TotalTracks int      `json:"total_tracks"`
	Artists     []Artist `json:"artists"`
	Images      []Image  `json:"images"`
}

// CoverURL returns the album's preferred cover image reference: the middle
// rendition when several are offered, the only one otherwise, "" when none.
func (a Album) CoverURL() string {
	switch n := len(a.Images); {
	case n == 0:
		return ""
	case n >= 2:
		return a.Images[n/2].URL
	default:
		return a.Images[0].URL
	}
}

// PrimaryArtist returns the first credited artist name.
func (a Album) PrimaryArtist() string {
	if len(a.Artists) == 0 {
		return ""
	}
	return a.Artists[0].Name
}

// Track is a catalog track carrying its parent album.
type Track struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Album   Album    `json:"album"`
	Artists []Artist `json:"artists"`
}

// SavedAlbum is one entry of the listener's saved/library albums.
type SavedAlbum struct {
	AddedAt string `json:"added_at"`
	Album   Album  `json:"album"`
}

// Paged response envelopes for the catalog endpoints.
type tracksPage struct {
	Items []Track `json:"items"`
	Total int     `json:"total"`
}

type artistsPage struct {
	Items []Artist `json:"items"`
	Total int      `json:"total"`
}

type savedAlbumsPage struct {
	Items []SavedAlbum `json:"items"`
	Total int          `json:"total"`
}

type albumsPage struct {
	Items []Album `json:"items"`
	Total int     `json:"total"`
}
