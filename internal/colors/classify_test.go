// Palettize - Listening History Color Palette Engine
// Copyright 2026 Palettize Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/palettize/palettize

package colors

import "testing"

func TestClassify_KnownColors(t *testing.T) {
	tests := []struct {
		hex  string
		want Bucket
	}{
		{"#000000", BucketBlack},
		{"#111111", BucketBlack},
		{"#ffffff", BucketWhite},
		{"#f4f4f0", BucketWhite},
		{"#808080", BucketGrey},
		{"#b0aeb2", BucketGrey},
		{"#cc0000", BucketRed},
		{"#ff2010", BucketRed},
		{"#ff8000", BucketOrange},
		{"#ffee00", BucketYellow},
		{"#00cc00", BucketGreen},
		{"#228b22", BucketGreen},
		{"#0066ff", BucketBlue},
		{"#00ced1", BucketBlue},
		{"#7700ff", BucketPurple},
		{"#ff00bb", BucketPink},
	}

	for _, tt := range tests {
		got, err := Classify(tt.hex)
		if err != nil {
			t.Errorf("Classify(%q) returned error: %v", tt.hex, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.hex, got, tt.want)
		}
	}
}

func TestClassify_MalformedInput(t *testing.T) {
	for _, hex := range []string{"", "#fff", "nope", "#gggggg", "#12345"} {
		if _, err := Classify(hex); err == nil {
			t.Errorf("Classify(%q) expected error, got nil", hex)
		}
	}
}

// Classification must be total and deterministic: every color lands in
// exactly one of the ten buckets, and repeated calls agree.
func TestClassify_TotalAndDeterministic(t *testing.T) {
	valid := make(map[Bucket]bool, len(BucketOrder))
	for _, b := range BucketOrder {
		valid[b] = true
	}

	for r := 0; r < 256; r += 17 {
		for g := 0; g < 256; g += 17 {
			for b := 0; b < 256; b += 17 {
				first := ClassifyRGB(uint8(r), uint8(g), uint8(b))
				if !valid[first] {
					t.Fatalf("ClassifyRGB(%d,%d,%d) = %q, not a known bucket", r, g, b, first)
				}
				if second := ClassifyRGB(uint8(r), uint8(g), uint8(b)); second != first {
					t.Fatalf("ClassifyRGB(%d,%d,%d) not deterministic: %q then %q", r, g, b, first, second)
				}
			}
		}
	}
}

// The RGB rendering of each arc's center hue must classify back into that
// same bucket; this pins the arc boundaries.
func TestClassify_ArcCenterRoundTrip(t *testing.T) {
	hueBuckets := []Bucket{
		BucketRed, BucketOrange, BucketYellow, BucketGreen,
		BucketBlue, BucketPurple, BucketPink,
	}

	for _, bucket := range hueBuckets {
		center, err := ArcCenter(bucket)
		if err != nil {
			t.Fatalf("ArcCenter(%q): %v", bucket, err)
		}
		r, g, b := HSVToRGB(center, 0.85, 0.80)
		if got := ClassifyRGB(r, g, b); got != bucket {
			t.Errorf("center of %q (hue %.1f, rgb %d,%d,%d) classified as %q", bucket, center, r, g, b, got)
		}
	}
}

func TestArcCenter_AchromaticBucketsHaveNoArc(t *testing.T) {
	for _, bucket := range []Bucket{BucketWhite, BucketGrey, BucketBlack} {
		if _, err := ArcCenter(bucket); err == nil {
			t.Errorf("ArcCenter(%q) expected error, got nil", bucket)
		}
	}
}

func TestRGBToHSV_RoundTrip(t *testing.T) {
	tests := []struct {
		r, g, b uint8
	}{
		{255, 0, 0}, {0, 255, 0}, {0, 0, 255},
		{255, 255, 0}, {128, 64, 200}, {10, 200, 150},
	}
	for _, tt := range tests {
		h, s, v := RGBToHSV(tt.r, tt.g, tt.b)
		r2, g2, b2 := HSVToRGB(h, s, v)
		if r2 != tt.r || g2 != tt.g || b2 != tt.b {
			t.Errorf("round trip (%d,%d,%d) -> (%d,%d,%d)", tt.r, tt.g, tt.b, r2, g2, b2)
		}
	}
}
