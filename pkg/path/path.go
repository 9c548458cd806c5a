// Package path builds smooth 3D curves through ordered sequences of
// anatomical landmark points. It provides the two-point bulge
// construction used when only a start and end landmark exist, and an
// interpolating spline through the landmarks themselves when three or
// more are given.
package path

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/spatial/r3"
)

// eps guards divisions by near-zero vector norms and parameter spans.
const eps = 1e-10

// Result holds the outcome of a curve construction.
//
// Smooth reports whether the spline fit succeeded. When it is false,
// Points contains the raw control points instead of a resampled curve,
// so callers can still draw or resample a degraded path without
// special-casing the failure.
type Result struct {
	Points []r3.Vec
	Smooth bool
}

// BuildCurve constructs a smooth curve through the given landmark
// points, evaluated at sampleCount uniformly spaced parameter values.
//
// With fewer than 2 points there is nothing to interpolate and the
// input is returned unchanged; rejecting such requests is the caller's
// job. With exactly 2 points a symmetric lateral bulge is built from
// five control points, scaled by the curvature factor and the segment
// length so the same slider value behaves consistently across anatomy
// sizes. With 3 or more points the landmarks are used directly as
// control points and curvature is ignored.
func BuildCurve(points []r3.Vec, curvature float64, sampleCount int) Result {
	if len(points) < 2 {
		return Result{Points: points, Smooth: false}
	}

	var control []r3.Vec
	if len(points) == 2 {
		control = bulgeControlPoints(points[0], points[1], curvature)
	} else {
		control = points
	}

	curve, err := sampleSpline(control, sampleCount)
	if err != nil {
		// Degenerate control points: degrade to the raw control
		// polygon rather than failing the whole reconstruction.
		return Result{Points: control, Smooth: false}
	}

	return Result{Points: curve, Smooth: true}
}

// bulgeControlPoints expands a start/end pair into five control points
// that bow away from the straight segment. The perpendicular axis is
// chosen from the dominant direction components so it cannot collapse
// for horizontal or vertical segments; the only true degeneracy is a
// zero-length segment, which the epsilon guard turns into a straight
// (collapsed) path instead of a NaN curve.
func bulgeControlPoints(start, end r3.Vec, curvature float64) []r3.Vec {
	direction := r3.Sub(end, start)
	mid := r3.Scale(0.5, r3.Add(start, end))

	var perp r3.Vec
	if math.Abs(direction.X) > math.Abs(direction.Z) {
		perp = r3.Vec{X: -direction.Y, Y: direction.X}
	} else {
		perp = r3.Vec{Y: -direction.Z, Z: direction.Y}
	}
	perp = r3.Scale(1/(r3.Norm(perp)+eps), perp)

	length := r3.Norm(direction)
	lateral := r3.Scale(curvature*length, perp)
	halfLateral := r3.Scale(0.5, lateral)
	quarter := r3.Scale(0.25, direction)

	return []r3.Vec{
		start,
		r3.Add(r3.Add(start, quarter), halfLateral),
		r3.Add(mid, lateral),
		r3.Add(r3.Sub(end, quarter), halfLateral),
		end,
	}
}

// sampleSpline fits one interpolating natural cubic spline per
// coordinate, parameterized uniformly over [0,1], and evaluates the
// three splines at sampleCount uniform parameter values. The natural
// cubic construction interpolates the control points exactly (zero
// smoothing) and degrades to a straight segment for two control
// points.
func sampleSpline(control []r3.Vec, sampleCount int) ([]r3.Vec, error) {
	n := len(control)
	if n < 2 {
		return nil, fmt.Errorf("need at least 2 control points, got %d", n)
	}
	if sampleCount < 2 {
		return nil, fmt.Errorf("need at least 2 samples, got %d", sampleCount)
	}

	u := make([]float64, n)
	xs := make([]float64, n)
	ys := make([]float64, n)
	zs := make([]float64, n)
	for i, p := range control {
		u[i] = float64(i) / float64(n-1)
		xs[i] = p.X
		ys[i] = p.Y
		zs[i] = p.Z
	}

	var sx, sy, sz interp.NaturalCubic
	if err := sx.Fit(u, xs); err != nil {
		return nil, fmt.Errorf("spline fit (x): %w", err)
	}
	if err := sy.Fit(u, ys); err != nil {
		return nil, fmt.Errorf("spline fit (y): %w", err)
	}
	if err := sz.Fit(u, zs); err != nil {
		return nil, fmt.Errorf("spline fit (z): %w", err)
	}

	curve := make([]r3.Vec, sampleCount)
	for i := range curve {
		t := float64(i) / float64(sampleCount-1)
		curve[i] = r3.Vec{X: sx.Predict(t), Y: sy.Predict(t), Z: sz.Predict(t)}
	}
	return curve, nil
}

// Length returns the polyline length of a sampled curve in voxel
// units.
func Length(points []r3.Vec) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += r3.Norm(r3.Sub(points[i], points[i-1]))
	}
	return total
}
