// Palettize - Listening History Color Palette Engine
// Copyright 2026 Palettize Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/palettize/palettize

package palette

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/palettize/palettize/internal/cache"
	"github.com/palettize/palettize/internal/catalog"
	"github.com/palettize/palettize/internal/colors"
	"github.com/palettize/palettize/internal/executor"
	"github.com/palettize/palettize/internal/logging"
	"github.com/palettize/palettize/internal/metrics"
)

// Config holds the engine's scan depths and budgets. Zero values take the
// defaults from DefaultConfig.
type Config struct {
	// ListenerID keys result memoization; the catalog token identifies one
	// listener, so a stable label suffices.
	ListenerID string

	// Workers bounds concurrent cover enrichment.
	Workers int
	// CandidatePool truncates the aggregated pool before enrichment.
	CandidatePool int

	TopTracksPageSize int
	TopTracksPages    int
	TopArtistsLimit   int

	SavedScanDepth  int
	SavedPageSize   int
	ArtistScanCount int
	AlbumsPerArtist int

	WidePoolPages    int
	EnrichmentBudget int
	EnrichmentBatch  int
}

// DefaultConfig returns the production scan depths and budgets.
func DefaultConfig() Config {
	return Config{
		ListenerID:        "me",
		Workers:           executor.DefaultLimit,
		CandidatePool:     40,
		TopTracksPageSize: 50,
		TopTracksPages:    2,
		TopArtistsLimit:   20,
		SavedScanDepth:    100,
		SavedPageSize:     50,
		ArtistScanCount:   10,
		AlbumsPerArtist:   10,
		WidePoolPages:     5,
		EnrichmentBudget:  60,
		EnrichmentBatch:   10,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ListenerID == "" {
		c.ListenerID = d.ListenerID
	}
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.CandidatePool <= 0 {
		c.CandidatePool = d.CandidatePool
	}
	if c.TopTracksPageSize <= 0 {
		c.TopTracksPageSize = d.TopTracksPageSize
	}
	if c.TopTracksPages <= 0 {
		c.TopTracksPages = d.TopTracksPages
	}
	if c.TopArtistsLimit <= 0 {
		c.TopArtistsLimit = d.TopArtistsLimit
	}
	if c.SavedScanDepth <= 0 {
		c.SavedScanDepth = d.SavedScanDepth
	}
	if c.SavedPageSize <= 0 {
		c.SavedPageSize = d.SavedPageSize
	}
	if c.ArtistScanCount <= 0 {
		c.ArtistScanCount = d.ArtistScanCount
	}
	if c.AlbumsPerArtist <= 0 {
		c.AlbumsPerArtist = d.AlbumsPerArtist
	}
	if c.WidePoolPages <= 0 {
		c.WidePoolPages = d.WidePoolPages
	}
	if c.EnrichmentBudget <= 0 {
		c.EnrichmentBudget = d.EnrichmentBudget
	}
	if c.EnrichmentBatch <= 0 {
		c.EnrichmentBatch = d.EnrichmentBatch
	}
	return c
}

// Engine runs the full pipeline: aggregate, enrich, select, backfill. The
// two caches are the only cross-request shared mutable state; lookups
// memoizes catalog responses and cover samples, results memoizes whole
// palettes per (listener, window).
type Engine struct {
	catalog Catalog
	lookups *cache.Cache
	results *cache.Cache
	cfg     Config
}

// New builds an engine around a catalog client and the two cache instances.
func New(cat Catalog, lookups, results *cache.Cache, cfg Config) *Engine {
	return &Engine{
		catalog: cat,
		lookups: lookups,
		results: results,
		cfg:     cfg.withDefaults(),
	}
}

// BuildPalette returns the palette for one window, memoized so that repeated
// requests arriving close together share one pipeline run.
func (e *Engine) BuildPalette(ctx context.Context, window catalog.Window) (*Result, error) {
	key := cache.GenerateKey("palette", e.cfg.ListenerID, string(window))
	v, err := e.results.GetOrCompute(key, func() (interface{}, error) {
		return e.buildPalette(ctx, window)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

// BuildAllPalettes builds the three canonical windows in parallel.
func (e *Engine) BuildAllPalettes(ctx context.Context) (map[catalog.Window]*Result, error) {
	var mu sync.Mutex
	out := make(map[catalog.Window]*Result, len(catalog.Windows))

	g, ctx := errgroup.WithContext(ctx)
	for _, w := range catalog.Windows {
		g.Go(func() error {
			r, err := e.BuildPalette(ctx, w)
			if err != nil {
				return err
			}
			mu.Lock()
			out[w] = r
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// buildPalette is one uncached pipeline run. Only a total failure of the
// primary top-tracks lookup surfaces as an error; everything downstream
// degrades to "that source yielded nothing".
func (e *Engine) buildPalette(ctx context.Context, window catalog.Window) (*Result, error) {
	start := time.Now()
	defer func() {
		metrics.PaletteBuildDuration.WithLabelValues(string(window)).Observe(time.Since(start).Seconds())
	}()

	var tracks []catalog.Track
	for p := 0; p < e.cfg.TopTracksPages; p++ {
		page, err := e.topTracks(ctx, window, e.cfg.TopTracksPageSize, p*e.cfg.TopTracksPageSize)
		if err != nil {
			if p == 0 {
				return nil, fmt.Errorf("top tracks %s: %w", window, err)
			}
			logging.Warn().Err(err).Str("window", string(window)).Int("page", p).Msg("top tracks page failed, continuing")
			break
		}
		tracks = append(tracks, page...)
		if len(page) < e.cfg.TopTracksPageSize {
			break
		}
	}

	topArtists, err := e.topArtists(ctx, window, e.cfg.TopArtistsLimit)
	if err != nil {
		logging.Warn().Err(err).Str("window", string(window)).Msg("top artists lookup failed, skipping reinforcement bonus")
		topArtists = nil
	}

	pool := aggregate(trackMentions(tracks, timeWeight[window]), topArtists, e.cfg.CandidatePool)

	st := &buildState{
		window: window,
		result: newResult(window),
		used:   make(map[string]bool),
	}
	st.analyzed += e.enrichCandidates(ctx, pool)

	// Per-bucket candidate lists, strongest first (pool is score-sorted).
	lists := make(map[colors.Bucket][]*Candidate)
	for _, c := range pool {
		if c.Hex == "" {
			continue
		}
		b, err := colors.Classify(c.Hex)
		if err != nil {
			continue
		}
		lists[b] = append(lists[b], c)
	}

	for _, b := range colors.BucketOrder {
		top := pickTop(b, lists[b], window)
		if top == nil {
			continue
		}
		st.result.Buckets[b].Top = top
		st.result.Stages[b] = StageTopTracks
		for _, c := range lists[b] {
			if c == top || len(st.result.Buckets[b].Others) >= maxOthers {
				continue
			}
			st.result.Buckets[b].Others = append(st.result.Buckets[b].Others, c)
		}
		metrics.BucketFills.WithLabelValues(string(StageTopTracks)).Inc()
	}

	enforceUniqueness(st.result)
	st.used = st.result.usedIDs()

	e.runBackfill(ctx, st)

	st.result.Analyzed = st.analyzed
	unfilled := len(st.result.emptyBuckets())
	if unfilled > 0 {
		metrics.BucketsUnfilled.Add(float64(unfilled))
	}

	logging.Info().
		Str("window", string(window)).
		Int("analyzed", st.analyzed).
		Int("unfilled", unfilled).
		Dur("took", time.Since(start)).
		Msg("palette built")
	return st.result, nil
}
