// Palettize - Listening History Color Palette Engine
// Copyright 2026 Palettize Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/palettize/palettize

package palette

import (
	"github.com/palettize/palettize/internal/catalog"
	"github.com/palettize/palettize/internal/colors"
)

// appearanceGapMargin is the appearance-count lead at which listening
// frequency overrides a near-tie in score.
const appearanceGapMargin = 2

// dominanceMultiplier is the score lead required for the leading candidate to
// be chosen outright. Short windows have less data and should commit to the
// strongest signal; long windows can afford variety.
var dominanceMultiplier = map[catalog.Window]float64{
	catalog.WindowShort:  1.15,
	catalog.WindowMedium: 1.10,
	catalog.WindowLong:   1.06,
}

// varietyN is how many leading candidates the deterministic variety pick
// chooses among when no candidate dominates.
var varietyN = map[catalog.Window]int{
	catalog.WindowShort:  2,
	catalog.WindowMedium: 3,
	catalog.WindowLong:   4,
}

// pickTop chooses at most one top candidate for a bucket from its
// score-sorted candidate list. In order: a clear appearance-count gap wins,
// then a dominant score lead, then a deterministic variety pick hashed from
// the window and bucket label so repeated requests never flicker.
func pickTop(bucket colors.Bucket, cands []*Candidate, window catalog.Window) *Candidate {
	switch len(cands) {
	case 0:
		return nil
	case 1:
		return cands[0]
	}

	lead, runner := cands[0], cands[1]

	gap := lead.Appearances - runner.Appearances
	if gap >= appearanceGapMargin {
		return lead
	}
	if -gap >= appearanceGapMargin {
		return runner
	}

	if lead.Score >= runner.Score*dominanceMultiplier[window] {
		return lead
	}

	n := varietyN[window]
	if n > len(cands) {
		n = len(cands)
	}
	idx := colors.StableHash(string(window)+"|"+string(bucket)) % uint32(n)
	return cands[idx]
}

// cmpStrength orders candidates by objective strength: score, then
// confidence, then appearance count. Returns >0 when a is stronger, <0 when
// b is, 0 on a full tie.
func cmpStrength(a, b *Candidate) int {
	switch {
	case a.Score != b.Score:
		if a.Score > b.Score {
			return 1
		}
		return -1
	case a.Confidence != b.Confidence:
		if a.Confidence > b.Confidence {
			return 1
		}
		return -1
	case a.Appearances != b.Appearances:
		if a.Appearances > b.Appearances {
			return 1
		}
		return -1
	}
	return 0
}

// enforceUniqueness clears duplicate tops so no catalog id tops more than one
// bucket. Buckets are scanned in canonical label order; a repeated id stays
// only in the bucket holding the objectively stronger candidate, with the
// earlier bucket winning ties, and the losing bucket is fully cleared (top,
// others, and stage) so backfill can repopulate it.
func enforceUniqueness(result *Result) {
	holder := make(map[string]colors.Bucket)

	for _, b := range colors.BucketOrder {
		top := result.Buckets[b].Top
		if top == nil {
			continue
		}
		prev, seen := holder[top.ID]
		if !seen {
			holder[top.ID] = b
			continue
		}

		if cmpStrength(top, result.Buckets[prev].Top) > 0 {
			clearBucket(result, prev)
			holder[top.ID] = b
		} else {
			clearBucket(result, b)
		}
	}
}

func clearBucket(result *Result, b colors.Bucket) {
	result.Buckets[b].Top = nil
	result.Buckets[b].Others = nil
	delete(result.Stages, b)
}
