// Palettize - Listening History Color Palette Engine
// Copyright 2026 Palettize Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/palettize/palettize

package palette

import (
	"sort"
	"strings"

	"github.com/palettize/palettize/internal/catalog"
)

// Aggregation constants.
const (
	// scoreCeiling caps any single candidate's accumulated score so one
	// dominant album cannot crowd out every bucket.
	scoreCeiling = 4.0
	// artistBonusBase scales the reinforcement bonus for candidates whose
	// primary artist is among the listener's top artists.
	artistBonusBase = 0.3
	// artistBonusDepth bounds how far down the top-artists list the bonus
	// applies.
	artistBonusDepth = 20
	// minTrackCount excludes single-track "albums"; they are never valid
	// representatives.
	minTrackCount = 2
)

// timeWeight scales mention contributions per window: short-window plays are
// the freshest signal.
var timeWeight = map[catalog.Window]float64{
	catalog.WindowShort:  1.0,
	catalog.WindowMedium: 0.85,
	catalog.WindowLong:   0.7,
}

// crossWindowWeight further discounts mentions pooled from a window other
// than the requested one during wide backfill.
const crossWindowWeight = 0.5

// mention is one track-derived album sighting with its fully resolved weight
// (rank decay x window weight).
type mention struct {
	album  catalog.Album
	weight float64
}

// rankWeight decays quadratically from 1.0 at the first position to 0.0 at
// the last, so a listener's very top tracks count for much more than the
// tail of the window.
func rankWeight(position, total int) float64 {
	if total <= 1 || position <= 0 {
		return 1.0
	}
	if position >= total-1 {
		return 0.0
	}
	frac := float64(total-1-position) / float64(total-1)
	return frac * frac
}

// trackMentions converts a ranked track listing into weighted album mentions.
func trackMentions(tracks []catalog.Track, windowWeight float64) []mention {
	mentions := make([]mention, 0, len(tracks))
	for i, t := range tracks {
		mentions = append(mentions, mention{
			album:  t.Album,
			weight: rankWeight(i, len(tracks)) * windowWeight,
		})
	}
	return mentions
}

// aggregate merges raw album mentions into a deduplicated, score-sorted
// candidate pool. Mentions for the same merged identity (normalized name +
// lowercase primary artist, unifying reissues and deluxe editions) accumulate
// score and an appearances counter; candidates whose primary artist ranks in
// the listener's top artists get a small reinforcement bonus scaled inversely
// by artist rank. The pool is truncated to poolSize before any expensive
// color enrichment happens.
func aggregate(mentions []mention, topArtists []catalog.Artist, poolSize int) []*Candidate {
	byKey := make(map[string]*Candidate)
	var order []string // first-seen order keeps ties deterministic

	for _, m := range mentions {
		if m.album.ID == "" || m.album.TotalTracks < minTrackCount {
			continue
		}
		key := mergeKey(m.album)
		c, ok := byKey[key]
		if !ok {
			c = newCandidate(m.album)
			byKey[key] = c
			order = append(order, key)
		}
		c.Score += m.weight
		c.Appearances++
	}

	bonusRank := make(map[string]int, artistBonusDepth)
	for i, a := range topArtists {
		if i >= artistBonusDepth {
			break
		}
		name := strings.ToLower(a.Name)
		if _, seen := bonusRank[name]; !seen {
			bonusRank[name] = i
		}
	}

	pool := make([]*Candidate, 0, len(order))
	for _, key := range order {
		c := byKey[key]
		if rank, ok := bonusRank[strings.ToLower(c.Artist)]; ok {
			c.Score += artistBonusBase / float64(rank+1)
		}
		if c.Score > scoreCeiling {
			c.Score = scoreCeiling
		}
		pool = append(pool, c)
	}

	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].Score != pool[j].Score {
			return pool[i].Score > pool[j].Score
		}
		if pool[i].Appearances != pool[j].Appearances {
			return pool[i].Appearances > pool[j].Appearances
		}
		return pool[i].Name < pool[j].Name
	})

	if poolSize > 0 && len(pool) > poolSize {
		pool = pool[:poolSize]
	}
	return pool
}

// newCandidate builds an unscored candidate from a catalog album.
func newCandidate(album catalog.Album) *Candidate {
	names := make([]string, 0, len(album.Artists))
	for _, a := range album.Artists {
		names = append(names, a.Name)
	}
	return &Candidate{
		ID:         album.ID,
		Name:       album.Name,
		Artist:     album.PrimaryArtist(),
		Artists:    strings.Join(names, ", "),
		ImageURL:   album.CoverURL(),
		TrackCount: album.TotalTracks,
	}
}

// mergeKey unifies reissues, remasters, and deluxe editions of one album
// under a single identity: the normalized name joined with the lowercase
// primary artist.
func mergeKey(album catalog.Album) string {
	return normalizeAlbumName(album.Name) + "|" + strings.ToLower(album.PrimaryArtist())
}

// normalizeAlbumName lowercases the name, drops any " - ..." suffix (the
// usual home of "Remastered 2011" and friends), and strips parenthesized or
// bracketed qualifiers.
func normalizeAlbumName(name string) string {
	s := strings.ToLower(name)
	if idx := strings.Index(s, " - "); idx >= 0 {
		s = s[:idx]
	}

	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				b.WriteRune(r)
			}
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
