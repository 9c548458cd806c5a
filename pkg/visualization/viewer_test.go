package visualization

import (
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"curvedmpr/pkg/mpr"
	"curvedmpr/pkg/volume"
)

// testVolume returns a 10x8x6 volume with an x-gradient in [0,1].
func testVolume() *volume.Volume {
	v := volume.New(10, 8, 6)
	for z := 0; z < 6; z++ {
		for y := 0; y < 8; y++ {
			for x := 0; x < 10; x++ {
				v.Set(x, y, z, float64(x)/9)
			}
		}
	}
	return v
}

// TestRender verifies dimensions, clamping and orientation of the
// grayscale conversion.
func TestRender(t *testing.T) {
	img := mpr.NewImage(4, 6)
	img.Set(0, 0, 0)
	img.Set(0, 5, 1)
	img.Set(3, 0, 0.5)
	img.Set(3, 5, 2) // above range, must clamp

	gray := Render(img)
	b := gray.Bounds()
	if b.Dx() != 6 || b.Dy() != 4 {
		t.Fatalf("rendered %dx%d, want 6x4", b.Dx(), b.Dy())
	}

	if got := gray.Gray16At(0, 0).Y; got != 0 {
		t.Errorf("(0,0) = %d, want 0", got)
	}
	if got := gray.Gray16At(5, 0).Y; got != 65535 {
		t.Errorf("(5,0) = %d, want 65535", got)
	}
	if got := gray.Gray16At(5, 3).Y; got != 65535 {
		t.Errorf("clamped (5,3) = %d, want 65535", got)
	}
	if got := gray.Gray16At(0, 3).Y; got < 32000 || got > 33000 {
		t.Errorf("(0,3) = %d, want about 32767", got)
	}
}

// TestUpscale verifies the factor handling of the display upscale.
func TestUpscale(t *testing.T) {
	img := Render(mpr.NewImage(4, 6))

	if out := Upscale(img, 1); out != img {
		t.Error("factor 1 should return the input unchanged")
	}

	out := Upscale(img, 3)
	b := out.Bounds()
	if b.Dx() != 18 || b.Dy() != 12 {
		t.Errorf("upscaled %dx%d, want 18x12", b.Dx(), b.Dy())
	}
}

// TestExtractSlice verifies slice dimensions per axis and position
// validation.
func TestExtractSlice(t *testing.T) {
	vol := testVolume()

	cases := []struct {
		axis          Axis
		position      int
		width, height int
	}{
		{Axial, 3, 10, 8},
		{Coronal, 4, 10, 6},
		{Sagittal, 7, 8, 6},
	}
	for _, tc := range cases {
		img, err := ExtractSlice(vol, tc.axis, tc.position)
		if err != nil {
			t.Fatalf("%s: ExtractSlice failed: %v", tc.axis, err)
		}
		b := img.Bounds()
		if b.Dx() != tc.width || b.Dy() != tc.height {
			t.Errorf("%s: slice %dx%d, want %dx%d", tc.axis, b.Dx(), b.Dy(), tc.width, tc.height)
		}
	}

	// The axial slice shows the x-gradient left to right.
	img, err := ExtractSlice(vol, Axial, 0)
	if err != nil {
		t.Fatal(err)
	}
	if left, right := img.Gray16At(0, 0).Y, img.Gray16At(9, 0).Y; left >= right {
		t.Errorf("axial gradient not preserved: left %d, right %d", left, right)
	}

	if _, err := ExtractSlice(vol, Axial, 6); err == nil {
		t.Error("expected an error for an out-of-range axial position")
	}
	if _, err := ExtractSlice(vol, "oblique", 0); err == nil {
		t.Error("expected an error for an invalid axis")
	}
}

// TestOverlay verifies that drawing the curve and landmarks preserves
// the slice size and actually marks pixels.
func TestOverlay(t *testing.T) {
	vol := testVolume()
	slice, err := ExtractSlice(vol, Axial, 2)
	if err != nil {
		t.Fatal(err)
	}

	curve := []r3.Vec{
		{X: 1, Y: 1, Z: 2},
		{X: 5, Y: 4, Z: 2},
		{X: 8, Y: 6, Z: 2},
	}
	landmarks := []r3.Vec{curve[0], curve[2]}

	out := Overlay(slice, curve, landmarks, Axial)
	b := out.Bounds()
	if b.Dx() != 10 || b.Dy() != 8 {
		t.Fatalf("overlay %dx%d, want 10x8", b.Dx(), b.Dy())
	}

	// A landmark dot turns its pixel yellow, so red and green channels
	// rise while blue stays low relative to the gray background.
	r, g, bl, _ := out.At(1, 1).RGBA()
	if !(r > bl && g > bl) {
		t.Errorf("landmark pixel not yellow: r=%d g=%d b=%d", r, g, bl)
	}
}

// TestSaveImage verifies a rendered reconstruction writes to disk.
func TestSaveImage(t *testing.T) {
	img := Render(mpr.NewImage(4, 6))
	path := filepath.Join(t.TempDir(), "out.png")
	if err := SaveImage(img, path); err != nil {
		t.Fatalf("SaveImage failed: %v", err)
	}
}
