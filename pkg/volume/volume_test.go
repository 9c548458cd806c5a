package volume

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

const tol = 1e-9

// gradientVolume fills a volume where each voxel value equals its x
// coordinate, giving interpolation results that are easy to predict.
func gradientVolume(nx, ny, nz int) *Volume {
	v := New(nx, ny, nz)
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				v.Set(x, y, z, float64(x))
			}
		}
	}
	return v
}

// TestAtOutOfBounds verifies that lookups outside the grid return the
// background value rather than panicking.
func TestAtOutOfBounds(t *testing.T) {
	v := New(4, 4, 4)
	v.Set(0, 0, 0, 5)

	outside := [][3]int{
		{-1, 0, 0}, {0, -1, 0}, {0, 0, -1},
		{4, 0, 0}, {0, 4, 0}, {0, 0, 4},
	}
	for _, c := range outside {
		if got := v.At(c[0], c[1], c[2]); got != 0 {
			t.Errorf("At(%v) = %g, want 0", c, got)
		}
	}

	// Out-of-bounds writes are ignored, not stored anywhere.
	v.Set(-1, 0, 0, 99)
	v.Set(4, 3, 3, 99)
	for _, val := range v.Data {
		if val == 99 {
			t.Error("out-of-bounds Set leaked into the grid")
		}
	}
}

// TestInterpolateExact verifies that interpolation at integer
// coordinates reproduces the voxel values exactly.
func TestInterpolateExact(t *testing.T) {
	v := gradientVolume(5, 5, 5)
	for x := 0; x < 4; x++ {
		p := r3.Vec{X: float64(x), Y: 2, Z: 2}
		if got := v.Interpolate(p); math.Abs(got-float64(x)) > tol {
			t.Errorf("Interpolate(%v) = %g, want %d", p, got, x)
		}
	}
}

// TestInterpolateMidpoints verifies linear behavior between voxels and
// the 8-corner average at a cell center.
func TestInterpolateMidpoints(t *testing.T) {
	v := gradientVolume(5, 5, 5)
	if got := v.Interpolate(r3.Vec{X: 1.5, Y: 2, Z: 2}); math.Abs(got-1.5) > tol {
		t.Errorf("midpoint along gradient = %g, want 1.5", got)
	}

	// A single lit voxel contributes 1/8 at the center of its cell.
	single := New(4, 4, 4)
	single.Set(1, 1, 1, 8)
	if got := single.Interpolate(r3.Vec{X: 1.5, Y: 1.5, Z: 1.5}); math.Abs(got-1) > tol {
		t.Errorf("cell-center blend = %g, want 1", got)
	}
}

// TestInside verifies the strict upper bound: the last voxel row has no
// neighbor to interpolate against, so extent-1 is already outside.
func TestInside(t *testing.T) {
	v := New(10, 10, 10)

	cases := []struct {
		p    r3.Vec
		want bool
	}{
		{r3.Vec{X: 0, Y: 0, Z: 0}, true},
		{r3.Vec{X: 8.999, Y: 8.999, Z: 8.999}, true},
		{r3.Vec{X: 9, Y: 5, Z: 5}, false},
		{r3.Vec{X: 5, Y: 9, Z: 5}, false},
		{r3.Vec{X: 5, Y: 5, Z: 9}, false},
		{r3.Vec{X: -0.001, Y: 5, Z: 5}, false},
		{r3.Vec{X: 10, Y: 10, Z: 10}, false},
	}
	for _, tc := range cases {
		if got := v.Inside(tc.p); got != tc.want {
			t.Errorf("Inside(%v) = %v, want %v", tc.p, got, tc.want)
		}
	}
}

// TestNormalize verifies rescaling to [0,1] and the constant-volume
// guard.
func TestNormalize(t *testing.T) {
	v := New(2, 2, 2)
	for i := range v.Data {
		v.Data[i] = float64(i)*100 + 50
	}
	v.Normalize()

	min, max := v.MinMax()
	if math.Abs(min) > tol {
		t.Errorf("normalized min = %g, want 0", min)
	}
	if math.Abs(max-1) > 1e-6 {
		t.Errorf("normalized max = %g, want 1", max)
	}

	// Constant volume maps to all zeros instead of dividing by zero.
	flat := New(2, 2, 2)
	for i := range flat.Data {
		flat.Data[i] = 7
	}
	flat.Normalize()
	for i, val := range flat.Data {
		if math.IsNaN(val) || math.IsInf(val, 0) || math.Abs(val) > tol {
			t.Fatalf("constant volume voxel %d = %g after Normalize, want 0", i, val)
		}
	}
}

// TestDownsample verifies dimensions, spacing and value preservation of
// the order-1 reduction.
func TestDownsample(t *testing.T) {
	v := New(8, 8, 8)
	v.Spacing = [3]float64{0.5, 0.5, 1}
	for i := range v.Data {
		v.Data[i] = 3
	}

	small := v.Downsample(2)
	if small.Nx != 4 || small.Ny != 4 || small.Nz != 4 {
		t.Fatalf("downsampled extents %dx%dx%d, want 4x4x4", small.Nx, small.Ny, small.Nz)
	}
	if small.Spacing != [3]float64{1, 1, 2} {
		t.Errorf("downsampled spacing %v, want [1 1 2]", small.Spacing)
	}
	for i, val := range small.Data {
		if math.Abs(val-3) > tol {
			t.Fatalf("voxel %d = %g after downsampling a uniform volume, want 3", i, val)
		}
	}

	// Factor below 2 is a no-op returning the same volume.
	if v.Downsample(1) != v {
		t.Error("Downsample(1) should return the receiver unchanged")
	}
}

// TestValidate verifies the extent/data consistency check loaders rely
// on.
func TestValidate(t *testing.T) {
	v := New(3, 3, 3)
	if err := v.Validate(); err != nil {
		t.Errorf("valid volume rejected: %v", err)
	}

	v.Data = v.Data[:10]
	if err := v.Validate(); err == nil {
		t.Error("expected error for mismatched data length")
	}

	bad := &Volume{Nx: 0, Ny: 3, Nz: 3}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for zero extent")
	}
}
