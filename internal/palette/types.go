// Palettize - Listening History Color Palette Engine
// Copyright 2026 Palettize Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/palettize/palettize

// Package palette implements the album color-bucket ranking and backfill
// engine: candidate aggregation from play history, per-bucket selection with
// deterministic variety, global uniqueness enforcement, and the staged
// backfill search that fills buckets the primary ranking left empty.
package palette

import (
	"context"

	"github.com/palettize/palettize/internal/catalog"
	"github.com/palettize/palettize/internal/colors"
)

// Catalog is the slice of the catalog client the engine consumes. Tests
// substitute a deterministic fake.
type Catalog interface {
	TopTracks(ctx context.Context, window catalog.Window, limit, offset int) ([]catalog.Track, error)
	TopArtists(ctx context.Context, window catalog.Window, limit int) ([]catalog.Artist, error)
	SavedAlbums(ctx context.Context, limit, offset int) ([]catalog.SavedAlbum, error)
	ArtistAlbums(ctx context.Context, artistID string, limit int) ([]catalog.Album, error)
	FetchImage(ctx context.Context, imageURL string) ([]byte, error)
}

// Candidate is a scored album eligible for bucket assignment. The aggregator
// mutates Score and Appearances while merging duplicate mentions; once a
// candidate is finalized into a bucket it is never modified again.
type Candidate struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Artist      string  `json:"artist"`
	Artists     string  `json:"artists"`
	ImageURL    string  `json:"image_url,omitempty"`
	TrackCount  int     `json:"track_count"`
	Score       float64 `json:"score"`
	Appearances int     `json:"appearances"`
	Hex         string  `json:"hex,omitempty"`
	Confidence  float64 `json:"confidence"`
}

// Stage labels which pipeline stage filled a bucket.
type Stage string

// Fill stages, strictest first. A bucket filled by an earlier stage is
// frozen: later, looser stages never overwrite it.
const (
	StageTopTracks   Stage = "top_tracks"
	StageSaved       Stage = "saved"
	StageArtist      Stage = "artist"
	StageSavedWide   Stage = "saved_wide"
	StageArtistWide  Stage = "artist_wide"
	StageUltraLoose  Stage = "ultra_loose"
	StageOtherRanges Stage = "other_ranges_last"
)

// maxOthers bounds the runner-up list kept per bucket.
const maxOthers = 6

// BucketResult holds one bucket's selected top (nil only when every stage
// through the last resort found nothing) and up to six runners-up.
type BucketResult struct {
	Top    *Candidate   `json:"top"`
	Others []*Candidate `json:"others"`
}

// Result is one palette: all ten buckets for one time window, plus metadata
// recording how many candidates were color-analyzed and which stage filled
// each bucket.
type Result struct {
	Window   catalog.Window                  `json:"window"`
	Analyzed int                             `json:"analyzed"`
	Buckets  map[colors.Bucket]*BucketResult `json:"buckets"`
	Stages   map[colors.Bucket]Stage         `json:"stages"`
}

func newResult(window catalog.Window) *Result {
	r := &Result{
		Window:  window,
		Buckets: make(map[colors.Bucket]*BucketResult, len(colors.BucketOrder)),
		Stages:  make(map[colors.Bucket]Stage, len(colors.BucketOrder)),
	}
	for _, b := range colors.BucketOrder {
		r.Buckets[b] = &BucketResult{}
	}
	return r
}

// emptyBuckets returns the buckets without a top, in canonical order.
func (r *Result) emptyBuckets() []colors.Bucket {
	var empty []colors.Bucket
	for _, b := range colors.BucketOrder {
		if r.Buckets[b].Top == nil {
			empty = append(empty, b)
		}
	}
	return empty
}

// usedIDs returns the catalog ids currently topping a bucket.
func (r *Result) usedIDs() map[string]bool {
	used := make(map[string]bool, len(colors.BucketOrder))
	for _, b := range colors.BucketOrder {
		if top := r.Buckets[b].Top; top != nil {
			used[top.ID] = true
		}
	}
	return used
}
