// Package frame computes a local orthonormal frame at every sample of
// a 3D curve: a unit tangent from finite differences and a unit
// cross-section normal perpendicular to it. The normal is the
// direction along which a curved reconstruction samples the volume.
package frame

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const eps = 1e-10

// Frame is the local orientation at one curve sample.
type Frame struct {
	Tangent r3.Vec
	Normal  r3.Vec
}

// Compute returns one frame per curve point, in curve order.
//
// Tangents use a forward difference at the first sample, a backward
// difference at the last and central differences in between. The
// normal is the cross product of the tangent with a reference axis:
// (0,0,1) normally, switched to (1,0,0) when |tangent.z| >= 0.9 so the
// cross product cannot vanish on near-vertical paths. A curve with
// fewer than 2 points has no direction; its frames are zero vectors
// rather than NaNs.
func Compute(curve []r3.Vec) []Frame {
	n := len(curve)
	frames := make([]Frame, n)

	for i := range curve {
		var tangent r3.Vec
		switch {
		case n < 2:
			// no direction to derive
		case i == 0:
			tangent = r3.Sub(curve[1], curve[0])
		case i == n-1:
			tangent = r3.Sub(curve[i], curve[i-1])
		default:
			tangent = r3.Scale(0.5, r3.Sub(curve[i+1], curve[i-1]))
		}
		tangent = normalize(tangent)

		reference := r3.Vec{Z: 1}
		if math.Abs(tangent.Z) >= 0.9 {
			reference = r3.Vec{X: 1}
		}
		normal := normalize(r3.Cross(tangent, reference))

		frames[i] = Frame{Tangent: tangent, Normal: normal}
	}

	return frames
}

// normalize scales v to unit length with an epsilon-guarded
// denominator; a zero vector stays (near) zero instead of producing
// NaN components.
func normalize(v r3.Vec) r3.Vec {
	return r3.Scale(1/(r3.Norm(v)+eps), v)
}
