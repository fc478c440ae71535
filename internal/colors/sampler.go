// Palettize - Listening History Color Palette Engine
// Copyright 2026 Palettize Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/palettize/palettize

package colors

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // cover art decoders
	_ "image/jpeg" // cover art decoders
	_ "image/png"  // cover art decoders
	"math"
)

// Sampling parameters. The 50x50 grid bounds cost regardless of source
// dimensions; pixels under the alpha gate are treated as padding and skipped.
const (
	sampleGridSize = 50
	alphaGate      = 0.10
	satReference   = 0.35
	coverageWeight = 0.5
	satWeight      = 0.5
)

// Sample is the dominant color of one image. Hex is empty when no color could
// be extracted (decode failure or a fully transparent image); Confidence is
// always in [0, 1] and is 0 whenever Hex is empty.
type Sample struct {
	Hex        string  `json:"hex,omitempty"`
	Confidence float64 `json:"confidence"`
}

// SampleBytes decodes an encoded image and computes its average color plus a
// confidence score. Sampling walks a fixed 50x50 grid over the source,
// averaging R/G/B and HSV saturation across pixels whose alpha clears the
// gate. Confidence blends opaque-pixel coverage with how saturated the
// average is: washed-out or mostly-transparent art classifies unreliably.
//
// A decode error is returned as an error; a decodable but fully transparent
// image returns the zero Sample with a nil error. Sampling is deterministic
// for fixed bytes, so callers memoize results by image reference.
func SampleBytes(data []byte) (Sample, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Sample{}, fmt.Errorf("decode image: %w", err)
	}
	return sampleImage(img), nil
}

func sampleImage(img image.Image) Sample {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return Sample{}
	}

	var sumR, sumG, sumB, sumSat float64
	sampled := 0
	opaque := 0

	for gy := 0; gy < sampleGridSize; gy++ {
		for gx := 0; gx < sampleGridSize; gx++ {
			sampled++
			px := bounds.Min.X + gx*w/sampleGridSize
			py := bounds.Min.Y + gy*h/sampleGridSize

			r, g, b, a := img.At(px, py).RGBA()
			if float64(a)/0xffff < alphaGate {
				continue
			}
			// RGBA returns alpha-premultiplied components.
			r8 := float64(r*0xff/a) / 255.0
			g8 := float64(g*0xff/a) / 255.0
			b8 := float64(b*0xff/a) / 255.0

			opaque++
			sumR += r8
			sumG += g8
			sumB += b8
			_, s, _ := RGBToHSV(to8(r8), to8(g8), to8(b8))
			sumSat += s
		}
	}

	if opaque == 0 {
		return Sample{}
	}

	n := float64(opaque)
	coverage := n / float64(sampled)
	satScore := math.Min(1, (sumSat/n)/satReference)

	return Sample{
		Hex:        FormatHex(to8(sumR/n), to8(sumG/n), to8(sumB/n)),
		Confidence: clamp01(coverageWeight*coverage + satWeight*satScore),
	}
}

func to8(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
