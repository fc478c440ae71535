// Palettize - Listening History Color Palette Engine
// Copyright 2026 Palettize Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/palettize/palettize

package palette

import (
	"context"

	"github.com/palettize/palettize/internal/cache"
	"github.com/palettize/palettize/internal/colors"
	"github.com/palettize/palettize/internal/executor"
	"github.com/palettize/palettize/internal/logging"
	"github.com/palettize/palettize/internal/metrics"
)

// enrichCandidates fans color sampling out over the worker pool, writing hex
// and confidence back onto each candidate. Failures never abort the batch: a
// candidate whose cover cannot be fetched or decoded simply stays colorless
// (hex empty, confidence 0) and is excluded from bucket matching. Returns the
// number of candidates analyzed.
func (e *Engine) enrichCandidates(ctx context.Context, cands []*Candidate) int {
	if len(cands) == 0 {
		return 0
	}

	// fn swallows all errors, so Map cannot fail.
	_, _ = executor.Map(ctx, cands, e.cfg.Workers, func(ctx context.Context, c *Candidate) (struct{}, error) {
		if c.ImageURL == "" {
			metrics.ColorSamples.WithLabelValues("no_color").Inc()
			return struct{}{}, nil
		}
		s := e.sampleCover(ctx, c.ImageURL)
		c.Hex = s.Hex
		c.Confidence = s.Confidence
		return struct{}{}, nil
	})
	return len(cands)
}

// sampleCover returns the memoized dominant color for one image reference.
// Sampling is deterministic for a fixed image, so results are cached by URL;
// decode failures are cached too (as the no-color sample) since refetching
// cannot fix them. Only transport errors are left uncached for retry.
func (e *Engine) sampleCover(ctx context.Context, imageURL string) colors.Sample {
	key := cache.GenerateKey("cover", imageURL)

	v, err := e.lookups.GetOrCompute(key, func() (interface{}, error) {
		data, err := e.catalog.FetchImage(ctx, imageURL)
		if err != nil {
			return nil, err
		}
		sample, err := colors.SampleBytes(data)
		if err != nil {
			logging.Debug().Str("image", imageURL).Err(err).Msg("cover not decodable")
			metrics.ColorSamples.WithLabelValues("error").Inc()
			return colors.Sample{}, nil
		}
		if sample.Hex == "" {
			metrics.ColorSamples.WithLabelValues("no_color").Inc()
		} else {
			metrics.ColorSamples.WithLabelValues("ok").Inc()
		}
		return sample, nil
	})
	if err != nil {
		logging.Debug().Str("image", imageURL).Err(err).Msg("cover fetch failed")
		metrics.ColorSamples.WithLabelValues("error").Inc()
		return colors.Sample{}
	}
	return v.(colors.Sample)
}
