package mpr

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/spatial/r3"

	"curvedmpr/pkg/frame"
	"curvedmpr/pkg/path"
	"curvedmpr/pkg/volume"
)

// ErrInsufficientLandmarks is returned by Reconstruct when fewer than
// two landmarks have been picked. Callers surface it as a user-visible
// warning; it never indicates a broken session.
var ErrInsufficientLandmarks = errors.New("at least 2 landmark points are required for reconstruction")

// State identifies where the interactive workflow currently is.
type State int

const (
	// Empty: no landmarks picked yet.
	Empty State = iota
	// Sketching: exactly one landmark, not enough to build a path.
	Sketching
	// Ready: two or more landmarks, reconstruction can run.
	Ready
	// Reconstructed: a reconstruction has run and its result is
	// cached; any landmark or curvature change drops back to Ready.
	Reconstructed
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Sketching:
		return "sketching"
	case Ready:
		return "ready"
	case Reconstructed:
		return "reconstructed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Params configures a reconstruction session.
type Params struct {
	// PreviewSamples is the resolution of the low-res overlay curve.
	PreviewSamples int

	// ReconstructionSamples is the resolution of the high-res curve
	// the volume is resampled along.
	ReconstructionSamples int

	// CrossSectionHeight is the number of samples taken across the
	// path at each curve position.
	CrossSectionHeight int

	// Curvature in [0,1] controls the two-point bulge; ignored once
	// three or more landmarks exist.
	Curvature float64

	// Gamma is the display gamma applied after contrast stretching.
	Gamma float64
}

// DefaultParams returns the session parameters tuned for vessel-sized
// anatomy.
func DefaultParams() Params {
	return Params{
		PreviewSamples:        100,
		ReconstructionSamples: 350,
		CrossSectionHeight:    120,
		Curvature:             0.3,
		Gamma:                 DefaultGamma,
	}
}

// Session owns the mutable landmark path and curvature parameter and
// runs curved reconstructions against a read-only source volume. It is
// the single entry point the presentation layer calls into; no field
// is mutated from outside.
//
// A Session is not safe for concurrent use; the workflow is
// single-threaded request/response.
type Session struct {
	vol    *volume.Volume
	params Params
	log    zerolog.Logger

	landmarks []r3.Vec

	// Cached products of the last reconstruction, dropped whenever
	// landmarks or curvature change.
	cachedCurve []r3.Vec
	cachedImage *Image
}

// NewSession creates a session over a source volume. The volume is
// treated as read-only for the session's lifetime.
func NewSession(vol *volume.Volume, params Params, log zerolog.Logger) *Session {
	return &Session{
		vol:    vol,
		params: params,
		log:    log,
	}
}

// AddLandmark appends a picked point to the path. Duplicate or
// collinear points are allowed; downstream stages degrade rather than
// reject them.
func (s *Session) AddLandmark(p r3.Vec) {
	s.landmarks = append(s.landmarks, p)
	s.invalidate()
}

// RemoveLastLandmark removes the most recently picked point. The
// second return is false when there was nothing to remove.
func (s *Session) RemoveLastLandmark() (r3.Vec, bool) {
	if len(s.landmarks) == 0 {
		return r3.Vec{}, false
	}
	last := s.landmarks[len(s.landmarks)-1]
	s.landmarks = s.landmarks[:len(s.landmarks)-1]
	s.invalidate()
	return last, true
}

// ClearLandmarks removes all picked points.
func (s *Session) ClearLandmarks() {
	s.landmarks = nil
	s.invalidate()
}

// Landmarks returns a copy of the picked points in pick order.
func (s *Session) Landmarks() []r3.Vec {
	out := make([]r3.Vec, len(s.landmarks))
	copy(out, s.landmarks)
	return out
}

// SetCurvature updates the bulge curvature. Values outside [0,1] are
// rejected. A successful update invalidates any cached reconstruction
// so the next request recomputes from scratch.
func (s *Session) SetCurvature(v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("curvature %g out of range [0,1]", v)
	}
	s.params.Curvature = v
	s.invalidate()
	return nil
}

// Curvature returns the current bulge curvature.
func (s *Session) Curvature() float64 {
	return s.params.Curvature
}

// State reports the current workflow state.
func (s *Session) State() State {
	switch {
	case len(s.landmarks) == 0:
		return Empty
	case len(s.landmarks) == 1:
		return Sketching
	case s.cachedImage != nil:
		return Reconstructed
	default:
		return Ready
	}
}

// PreviewCurve returns the low-resolution curve for live overlay
// drawing, or nil when fewer than two landmarks exist. The preview is
// regenerated on every call so it always reflects the current
// landmarks and curvature.
func (s *Session) PreviewCurve() []r3.Vec {
	if len(s.landmarks) < 2 {
		return nil
	}
	res := path.BuildCurve(s.Landmarks(), s.params.Curvature, s.params.PreviewSamples)
	if !res.Smooth {
		s.log.Warn().Int("landmarks", len(s.landmarks)).
			Msg("preview spline fit failed, overlaying raw control points")
	}
	return res.Points
}

// Reconstruct runs the full pipeline: high-resolution curve, frame
// field, volume resampling and display enhancement. It refuses with
// ErrInsufficientLandmarks when fewer than two landmarks exist. The
// enhanced image is cached until landmarks or curvature change, so
// repeated calls in the Reconstructed state are free.
func (s *Session) Reconstruct() (*Image, error) {
	if len(s.landmarks) < 2 {
		s.log.Warn().Int("landmarks", len(s.landmarks)).
			Msg("reconstruction refused: need at least 2 landmarks")
		return nil, ErrInsufficientLandmarks
	}
	if s.cachedImage != nil {
		return s.cachedImage, nil
	}

	res := path.BuildCurve(s.Landmarks(), s.params.Curvature, s.params.ReconstructionSamples)
	if !res.Smooth {
		s.log.Warn().Int("landmarks", len(s.landmarks)).
			Msg("spline fit failed, resampling along raw control points")
	}
	curve := res.Points

	frames := frame.Compute(curve)
	raw := Resample(s.vol, curve, frames, s.params.CrossSectionHeight)
	enhanced := Enhance(raw, s.params.Gamma)

	s.cachedCurve = curve
	s.cachedImage = enhanced
	return enhanced, nil
}

// PathLength returns the length of the last reconstructed curve in
// voxel units, or 0 when no reconstruction is cached.
func (s *Session) PathLength() float64 {
	return path.Length(s.cachedCurve)
}

func (s *Session) invalidate() {
	s.cachedCurve = nil
	s.cachedImage = nil
}
