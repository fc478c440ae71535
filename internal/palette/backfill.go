// Palettize - Listening History Color Palette Engine
// Copyright 2026 Palettize Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/palettize/palettize

package palette

import (
	"context"

	"github.com/palettize/palettize/internal/catalog"
	"github.com/palettize/palettize/internal/colors"
	"github.com/palettize/palettize/internal/logging"
	"github.com/palettize/palettize/internal/metrics"
)

// minConfidence is the acceptance floor for backfill matches per window.
var minConfidence = map[catalog.Window]float64{
	catalog.WindowShort:  0.28,
	catalog.WindowMedium: 0.25,
	catalog.WindowLong:   0.22,
}

// widenedFloor is the lowered acceptance floor once the widened stages run.
const widenedFloor = 0.12

// wideningFactor deepens the saved/artist scans in the widened stages.
const wideningFactor = 2

// buildState carries one palette build through selection and backfill.
type buildState struct {
	window   catalog.Window
	result   *Result
	used     map[string]bool
	analyzed int
}

type backfillStage struct {
	name Stage
	run  func(ctx context.Context, st *buildState)
}

// backfillStages returns the ordered stage list, each strictly looser than
// the last. Stages only ever see buckets that are still empty; a bucket
// filled earlier is frozen.
func (e *Engine) backfillStages() []backfillStage {
	widened := func(st *buildState) bool {
		return len(st.result.emptyBuckets()) >= 2
	}

	return []backfillStage{
		{StageSaved, func(ctx context.Context, st *buildState) {
			e.fillFromSaved(ctx, st, e.cfg.SavedScanDepth, minConfidence[st.window], StageSaved)
		}},
		{StageArtist, func(ctx context.Context, st *buildState) {
			e.fillFromArtists(ctx, st, e.cfg.ArtistScanCount, e.cfg.AlbumsPerArtist, minConfidence[st.window], StageArtist)
		}},
		{StageSavedWide, func(ctx context.Context, st *buildState) {
			if widened(st) {
				e.fillFromSaved(ctx, st, e.cfg.SavedScanDepth*wideningFactor, widenedFloor, StageSavedWide)
			}
		}},
		{StageArtistWide, func(ctx context.Context, st *buildState) {
			if widened(st) {
				e.fillFromArtists(ctx, st, e.cfg.ArtistScanCount*wideningFactor, e.cfg.AlbumsPerArtist*wideningFactor, widenedFloor, StageArtistWide)
			}
		}},
		{StageUltraLoose, e.fillUltraLoose},
		{StageOtherRanges, e.fillOtherWindows},
	}
}

// runBackfill iterates the stages until every bucket is filled or the stages
// are exhausted. Backfill excludes used ids at selection time; uniqueness is
// re-enforced after every stage anyway as a defensive re-check.
func (e *Engine) runBackfill(ctx context.Context, st *buildState) {
	for _, stage := range e.backfillStages() {
		empty := st.result.emptyBuckets()
		if len(empty) == 0 {
			return
		}
		logging.Debug().
			Str("window", string(st.window)).
			Str("stage", string(stage.name)).
			Int("empty_buckets", len(empty)).
			Msg("running backfill stage")

		stage.run(ctx, st)

		enforceUniqueness(st.result)
		st.used = st.result.usedIDs()
	}
}

// fillFromSaved scans the listener's saved albums up to depth, enriches the
// unused ones, and accepts the highest-confidence bucket matches at floor.
func (e *Engine) fillFromSaved(ctx context.Context, st *buildState, depth int, floor float64, stage Stage) {
	var albums []catalog.Album
	for offset := 0; offset < depth; offset += e.cfg.SavedPageSize {
		page, err := e.savedAlbums(ctx, e.cfg.SavedPageSize, offset)
		if err != nil {
			logging.Warn().Err(err).Str("stage", string(stage)).Msg("saved album scan failed, continuing with partial results")
			break
		}
		if len(page) == 0 {
			break
		}
		for _, sa := range page {
			albums = append(albums, sa.Album)
		}
		if len(page) < e.cfg.SavedPageSize {
			break
		}
	}
	e.fillFromAlbums(ctx, st, albums, floor, stage)
}

// fillFromArtists scans the album catalogs of the listener's top artists.
func (e *Engine) fillFromArtists(ctx context.Context, st *buildState, artistCount, perArtist int, floor float64, stage Stage) {
	artists, err := e.topArtists(ctx, st.window, artistCount)
	if err != nil {
		logging.Warn().Err(err).Str("stage", string(stage)).Msg("top artists lookup failed, skipping stage")
		return
	}

	var albums []catalog.Album
	for _, a := range artists {
		items, err := e.artistAlbums(ctx, a.ID, perArtist)
		if err != nil {
			logging.Debug().Err(err).Str("artist", a.Name).Msg("artist albums lookup failed")
			continue
		}
		albums = append(albums, items...)
	}
	e.fillFromAlbums(ctx, st, albums, floor, stage)
}

func (e *Engine) fillFromAlbums(ctx context.Context, st *buildState, albums []catalog.Album, floor float64, stage Stage) {
	cands := albumCandidates(albums, st.used)
	st.analyzed += e.enrichCandidates(ctx, cands)
	acceptBest(st, cands, floor, stage)
}

// fillUltraLoose gathers a much larger candidate pool from the requested
// window plus a lighter-weighted pool from the other windows, enriching in
// batches to bound worst-case cost. The acceptance floor decays from the
// widened floor to zero across the batches: in the last batches any match
// beats no match.
func (e *Engine) fillUltraLoose(ctx context.Context, st *buildState) {
	// The requested window anchors the pool at full weight.
	mentions := e.windowMentions(ctx, st.window, e.cfg.WidePoolPages, 1.0)
	for _, w := range catalog.Windows {
		if w == st.window {
			continue
		}
		mentions = append(mentions, e.windowMentions(ctx, w, 1, timeWeight[w]*crossWindowWeight)...)
	}

	fresh := freshCandidates(aggregate(mentions, nil, 0), st.used)
	if len(fresh) > e.cfg.EnrichmentBudget {
		fresh = fresh[:e.cfg.EnrichmentBudget]
	}

	batch := e.cfg.EnrichmentBatch
	totalBatches := (len(fresh) + batch - 1) / batch
	for bi := 0; bi*batch < len(fresh); bi++ {
		if len(st.result.emptyBuckets()) == 0 {
			return
		}
		end := (bi + 1) * batch
		if end > len(fresh) {
			end = len(fresh)
		}
		st.analyzed += e.enrichCandidates(ctx, fresh[bi*batch:end])

		floor := 0.0
		if totalBatches > 1 {
			floor = widenedFloor * float64(totalBatches-1-bi) / float64(totalBatches-1)
		}
		// Earlier batches stay in play: a candidate rejected at a higher
		// floor can be accepted once the floor decays.
		acceptBest(st, fresh[:end], floor, StageUltraLoose)
	}
}

// fillOtherWindows is the last resort: pool candidates entirely from the
// other time windows, weighted below the requested window, and accept the
// best bucket match with no confidence floor.
func (e *Engine) fillOtherWindows(ctx context.Context, st *buildState) {
	var mentions []mention
	for _, w := range catalog.Windows {
		if w == st.window {
			continue
		}
		mentions = append(mentions, e.windowMentions(ctx, w, 2, timeWeight[w]*crossWindowWeight)...)
	}

	fresh := freshCandidates(aggregate(mentions, nil, 0), st.used)
	if len(fresh) > e.cfg.EnrichmentBudget {
		fresh = fresh[:e.cfg.EnrichmentBudget]
	}
	st.analyzed += e.enrichCandidates(ctx, fresh)
	acceptBest(st, fresh, 0, StageOtherRanges)
}

// windowMentions pages through a window's top tracks, swallowing lookup
// failures: backfill sources that fail simply contribute nothing.
func (e *Engine) windowMentions(ctx context.Context, w catalog.Window, pages int, weight float64) []mention {
	var tracks []catalog.Track
	for p := 0; p < pages; p++ {
		page, err := e.topTracks(ctx, w, e.cfg.TopTracksPageSize, p*e.cfg.TopTracksPageSize)
		if err != nil {
			logging.Debug().Err(err).Str("window", string(w)).Int("page", p).Msg("top tracks page failed")
			break
		}
		tracks = append(tracks, page...)
		if len(page) < e.cfg.TopTracksPageSize {
			break
		}
	}
	return trackMentions(tracks, weight)
}

// albumCandidates converts raw albums into unenriched candidates, dropping
// duplicates, used ids, single-track albums, and albums without cover art.
func albumCandidates(albums []catalog.Album, used map[string]bool) []*Candidate {
	seen := make(map[string]bool, len(albums))
	var cands []*Candidate
	for _, a := range albums {
		if a.ID == "" || used[a.ID] || seen[a.ID] {
			continue
		}
		if a.TotalTracks < minTrackCount || a.CoverURL() == "" {
			continue
		}
		seen[a.ID] = true
		cands = append(cands, newCandidate(a))
	}
	return cands
}

// freshCandidates filters an aggregated pool down to enrichable, unused
// candidates.
func freshCandidates(pool []*Candidate, used map[string]bool) []*Candidate {
	var fresh []*Candidate
	for _, c := range pool {
		if used[c.ID] || c.ImageURL == "" {
			continue
		}
		fresh = append(fresh, c)
	}
	return fresh
}

// acceptBest fills each still-empty bucket with the highest-confidence
// candidate classifying into it, subject to the stage's confidence floor.
// Accepted candidates join the used set immediately so one album never fills
// two buckets within a stage.
func acceptBest(st *buildState, cands []*Candidate, floor float64, stage Stage) {
	matches := make(map[colors.Bucket][]*Candidate)
	for _, c := range cands {
		if c.Hex == "" || st.used[c.ID] {
			continue
		}
		b, err := colors.Classify(c.Hex)
		if err != nil {
			continue
		}
		matches[b] = append(matches[b], c)
	}

	for _, b := range st.result.emptyBuckets() {
		var best *Candidate
		for _, c := range matches[b] {
			if c.Confidence < floor || st.used[c.ID] {
				continue
			}
			if best == nil || c.Confidence > best.Confidence ||
				(c.Confidence == best.Confidence && cmpStrength(c, best) > 0) {
				best = c
			}
		}
		if best == nil {
			continue
		}
		st.result.Buckets[b].Top = best
		st.result.Stages[b] = stage
		st.used[best.ID] = true
		metrics.BucketFills.WithLabelValues(string(stage)).Inc()
	}
}
