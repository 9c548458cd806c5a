package mpr

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

const eps = 1e-10

// DefaultGamma is the display gamma used for vascular reconstructions.
// Denser tissue (e.g. muscle) reads better around 0.8; both are
// perceptual tuning values, not semantics.
const DefaultGamma = 0.75

// Enhance applies a percentile contrast stretch followed by gamma
// correction, returning a new image with all values in [0,1].
//
// The contrast window is the 1st..99th percentile of the strictly
// positive intensities, so background zeros (out-of-bounds fill) do
// not skew the window. An all-background image is returned unchanged.
// When the window collapses (p1 == p99, e.g. a uniform region), every
// positive value maps to full intensity instead of dividing by zero.
func Enhance(img *Image, gamma float64) *Image {
	if img.Max() <= 0 {
		return img.Clone()
	}
	if gamma <= 0 {
		gamma = DefaultGamma
	}

	positive := make([]float64, 0, len(img.Pix))
	for _, v := range img.Pix {
		if v > 0 {
			positive = append(positive, v)
		}
	}
	sort.Float64s(positive)

	p1 := stat.Quantile(0.01, stat.Empirical, positive, nil)
	p99 := stat.Quantile(0.99, stat.Empirical, positive, nil)

	out := NewImage(img.Height, img.Width)
	if p99-p1 <= eps {
		for i, v := range img.Pix {
			if v > 0 {
				out.Pix[i] = 1
			}
		}
		return out
	}

	scale := 1 / (p99 - p1 + eps)
	for i, v := range img.Pix {
		s := (v - p1) * scale
		if s < 0 {
			s = 0
		} else if s > 1 {
			s = 1
		}
		out.Pix[i] = math.Pow(s, gamma)
	}
	return out
}
