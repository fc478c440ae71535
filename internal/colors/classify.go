// Palettize - Listening History Color Palette Engine
// Copyright 2026 Palettize Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/palettize/palettize

// Package colors implements dominant-color sampling of cover art and the
// perceptual bucket classification that drives palette assembly.
//
// Classification is a pure function over HSV space: low value maps to black,
// high value with low saturation to white, remaining low saturation to grey,
// and everything else to one of seven contiguous hue arcs. The arc boundaries
// are fixed constants; the same hex string always yields the same bucket.
package colors

import "fmt"

// Bucket is one of the ten fixed perceptual color categories.
type Bucket string

// The ten buckets: seven hue arcs plus the three achromatic gates.
const (
	BucketRed    Bucket = "red"
	BucketOrange Bucket = "orange"
	BucketYellow Bucket = "yellow"
	BucketGreen  Bucket = "green"
	BucketBlue   Bucket = "blue"
	BucketPurple Bucket = "purple"
	BucketPink   Bucket = "pink"
	BucketWhite  Bucket = "white"
	BucketGrey   Bucket = "grey"
	BucketBlack  Bucket = "black"
)

// BucketOrder is the canonical scan order used wherever buckets are iterated:
// result assembly, uniqueness enforcement, and backfill all walk this order so
// that identical inputs produce identical output.
var BucketOrder = []Bucket{
	BucketRed, BucketOrange, BucketYellow, BucketGreen, BucketBlue,
	BucketPurple, BucketPink, BucketWhite, BucketGrey, BucketBlack,
}

// Achromatic gates, checked in priority order before any hue arc.
const (
	blackValueMax  = 0.16 // v below this is black regardless of hue
	whiteValueMin  = 0.92 // v above this with low saturation is white
	whiteSatMax    = 0.12
	greySaturation = 0.18 // remaining s below this is grey
)

// hueArc is a half-open [from, to) arc on the hue circle. Arcs that wrap
// through 0 have from > to.
type hueArc struct {
	bucket   Bucket
	from, to float64
}

// hueArcs partitions the full hue circle; arcs are contiguous and
// non-overlapping, checked in declaration order.
var hueArcs = []hueArc{
	{BucketRed, 345, 15},
	{BucketOrange, 15, 45},
	{BucketYellow, 45, 70},
	{BucketGreen, 70, 170},
	{BucketBlue, 170, 255},
	{BucketPurple, 255, 290},
	{BucketPink, 290, 345},
}

// Classify maps a hex color to its perceptual bucket. It fails only on
// malformed input; every valid color lands in exactly one bucket.
func Classify(hex string) (Bucket, error) {
	r, g, b, err := ParseHex(hex)
	if err != nil {
		return "", err
	}
	return ClassifyRGB(r, g, b), nil
}

// ClassifyRGB is Classify for already-parsed components.
func ClassifyRGB(r, g, b uint8) Bucket {
	h, s, v := RGBToHSV(r, g, b)

	if v < blackValueMax {
		return BucketBlack
	}
	if v > whiteValueMin && s < whiteSatMax {
		return BucketWhite
	}
	if s < greySaturation {
		return BucketGrey
	}

	for _, arc := range hueArcs {
		if arc.from > arc.to { // wraps through 0
			if h >= arc.from || h < arc.to {
				return arc.bucket
			}
		} else if h >= arc.from && h < arc.to {
			return arc.bucket
		}
	}
	// Unreachable: the arcs cover [0, 360).
	return BucketRed
}

// ArcCenter returns the hue at the middle of the named bucket's arc.
// Achromatic buckets have no arc.
func ArcCenter(bucket Bucket) (float64, error) {
	for _, arc := range hueArcs {
		if arc.bucket != bucket {
			continue
		}
		to := arc.to
		if arc.from > arc.to {
			to += 360
		}
		center := (arc.from + to) / 2
		if center >= 360 {
			center -= 360
		}
		return center, nil
	}
	return 0, fmt.Errorf("bucket %q has no hue arc", bucket)
}
