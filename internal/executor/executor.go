// Palettize - Listening History Color Palette Engine
// Copyright 2026 Palettize Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/palettize/palettize

// Package executor provides bounded fan-out over a batch of items. Every
// stage that enriches candidates with color data goes through Map so that at
// most a fixed number of outbound image fetches are in flight at once.
package executor

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultLimit is the worker bound used when a caller passes limit <= 0.
const DefaultLimit = 6

// Map invokes fn on every item with at most limit invocations in flight.
// Results are written to the item's original position, so output order always
// matches input order regardless of completion order. The first error cancels
// outstanding work and is returned; callers that want per-item failure
// isolation swallow errors inside fn.
func Map[T, R any](ctx context.Context, items []T, limit int, fn func(context.Context, T) (R, error)) ([]R, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	results := make([]R, len(items))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, item := range items {
		g.Go(func() error {
			r, err := fn(ctx, item)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
