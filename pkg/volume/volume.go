// Package volume provides the read-only 3D scalar grid that curved
// reconstructions sample from, together with the preprocessing steps
// applied when a scan is loaded: intensity normalization and an
// optional order-1 downsample for interactive speed.
package volume

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

const eps = 1e-10

// Volume is a scalar voxel grid with integer extents. Data is stored
// in row-major order with x fastest: index = z*Nx*Ny + y*Nx + x.
// Spacing carries the physical voxel size in mm when the source file
// provides one; it is informational and does not affect sampling,
// which works in voxel coordinates.
type Volume struct {
	Data       []float64
	Nx, Ny, Nz int
	Spacing    [3]float64
}

// New allocates a zero-filled volume with the given extents.
func New(nx, ny, nz int) *Volume {
	return &Volume{
		Data:    make([]float64, nx*ny*nz),
		Nx:      nx,
		Ny:      ny,
		Nz:      nz,
		Spacing: [3]float64{1, 1, 1},
	}
}

func (v *Volume) index(x, y, z int) int {
	return z*v.Nx*v.Ny + y*v.Nx + x
}

// At returns the voxel value at integer coordinates, or 0 outside the
// grid. Out-of-bounds lookups are defined behavior, not errors, so
// interpolation near the boundary extends with the background value.
func (v *Volume) At(x, y, z int) float64 {
	if x < 0 || y < 0 || z < 0 || x >= v.Nx || y >= v.Ny || z >= v.Nz {
		return 0
	}
	return v.Data[v.index(x, y, z)]
}

// Set writes a voxel value; coordinates outside the grid are ignored.
func (v *Volume) Set(x, y, z int, value float64) {
	if x < 0 || y < 0 || z < 0 || x >= v.Nx || y >= v.Ny || z >= v.Nz {
		return
	}
	v.Data[v.index(x, y, z)] = value
}

// Inside reports whether p lies strictly within [0, extent-1) on every
// axis, i.e. whether all 8 voxels needed for trilinear interpolation
// exist. Resampling skips points outside this region instead of
// extrapolating at the boundary.
func (v *Volume) Inside(p r3.Vec) bool {
	return p.X >= 0 && p.X < float64(v.Nx-1) &&
		p.Y >= 0 && p.Y < float64(v.Ny-1) &&
		p.Z >= 0 && p.Z < float64(v.Nz-1)
}

// Interpolate returns the trilinearly interpolated value at the
// fractional coordinate p. Voxels outside the grid contribute the
// constant fill value 0.
func (v *Volume) Interpolate(p r3.Vec) float64 {
	x0, y0, z0 := intFloor(p.X), intFloor(p.Y), intFloor(p.Z)
	fx := p.X - float64(x0)
	fy := p.Y - float64(y0)
	fz := p.Z - float64(z0)

	c000 := v.At(x0, y0, z0)
	c100 := v.At(x0+1, y0, z0)
	c010 := v.At(x0, y0+1, z0)
	c110 := v.At(x0+1, y0+1, z0)
	c001 := v.At(x0, y0, z0+1)
	c101 := v.At(x0+1, y0, z0+1)
	c011 := v.At(x0, y0+1, z0+1)
	c111 := v.At(x0+1, y0+1, z0+1)

	c00 := c000*(1-fx) + c100*fx
	c10 := c010*(1-fx) + c110*fx
	c01 := c001*(1-fx) + c101*fx
	c11 := c011*(1-fx) + c111*fx

	c0 := c00*(1-fy) + c10*fy
	c1 := c01*(1-fy) + c11*fy

	return c0*(1-fz) + c1*fz
}

// MinMax returns the smallest and largest voxel values.
func (v *Volume) MinMax() (min, max float64) {
	if len(v.Data) == 0 {
		return 0, 0
	}
	min, max = v.Data[0], v.Data[0]
	for _, val := range v.Data {
		if val < min {
			min = val
		}
		if val > max {
			max = val
		}
	}
	return min, max
}

// Normalize rescales all intensities to [0,1] in place. A constant
// volume maps to all zeros via the epsilon guard rather than dividing
// by zero.
func (v *Volume) Normalize() {
	min, max := v.MinMax()
	scale := 1 / (max - min + eps)
	for i, val := range v.Data {
		v.Data[i] = (val - min) * scale
	}
}

// Downsample returns a new volume reduced by an integer factor per
// axis using order-1 (trilinear) resampling, the same reduction the
// interactive viewers apply on load for speed. Factor values below 2
// return the receiver unchanged.
func (v *Volume) Downsample(factor int) *Volume {
	if factor < 2 {
		return v
	}
	nx := maxInt(1, v.Nx/factor)
	ny := maxInt(1, v.Ny/factor)
	nz := maxInt(1, v.Nz/factor)

	out := New(nx, ny, nz)
	out.Spacing = [3]float64{
		v.Spacing[0] * float64(factor),
		v.Spacing[1] * float64(factor),
		v.Spacing[2] * float64(factor),
	}
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				p := r3.Vec{
					X: float64(x * factor),
					Y: float64(y * factor),
					Z: float64(z * factor),
				}
				out.Data[out.index(x, y, z)] = v.Interpolate(p)
			}
		}
	}
	return out
}

// Validate checks that the data length matches the extents. Loaders
// call this before handing a volume to the reconstruction engine.
func (v *Volume) Validate() error {
	if v.Nx <= 0 || v.Ny <= 0 || v.Nz <= 0 {
		return fmt.Errorf("invalid extents %dx%dx%d", v.Nx, v.Ny, v.Nz)
	}
	if len(v.Data) != v.Nx*v.Ny*v.Nz {
		return fmt.Errorf("data length %d does not match extents %dx%dx%d",
			len(v.Data), v.Nx, v.Ny, v.Nz)
	}
	return nil
}

func intFloor(f float64) int {
	i := int(f)
	if f < 0 && float64(i) != f {
		i--
	}
	return i
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
