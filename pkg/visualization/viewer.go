// Package visualization renders reconstruction results and preview
// overlays to ordinary image files. It converts reconstructed grids to
// 16-bit grayscale, extracts orthogonal slices from a volume, and
// draws the traced path over those slices the way an interactive
// viewer presents it.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"gonum.org/v1/gonum/spatial/r3"

	"curvedmpr/pkg/mpr"
	"curvedmpr/pkg/volume"
)

// Axis selects an orthogonal slice orientation through the volume.
type Axis string

const (
	// Axial slices are taken at constant z and show the (x,y) plane.
	Axial Axis = "axial"
	// Coronal slices are taken at constant y and show the (x,z) plane.
	Coronal Axis = "coronal"
	// Sagittal slices are taken at constant x and show the (y,z) plane.
	Sagittal Axis = "sagittal"
)

// Render converts a reconstructed image into 16-bit grayscale. Values
// are expected in [0,1]; anything outside is clamped. Row 0 of the
// reconstruction (the -height/2 cross-section offset) maps to the top
// raster row.
func Render(img *mpr.Image) *image.Gray16 {
	out := image.NewGray16(image.Rect(0, 0, img.Width, img.Height))
	for row := 0; row < img.Height; row++ {
		for col := 0; col < img.Width; col++ {
			value := uint16(math.Max(0, math.Min(65535, img.At(row, col)*65535)))
			out.SetGray16(col, row, color.Gray16{Y: value})
		}
	}
	return out
}

// Upscale enlarges an image by an integer factor using Lanczos
// resampling. Factors below 2 return the input unchanged.
func Upscale(img image.Image, factor int) image.Image {
	if factor < 2 {
		return img
	}
	b := img.Bounds()
	return imaging.Resize(img, b.Dx()*factor, b.Dy()*factor, imaging.Lanczos)
}

// SaveImage writes an image to disk; the format follows the file
// extension (png, jpg, tif, bmp).
func SaveImage(img image.Image, filename string) error {
	return imaging.Save(img, filename)
}

// ExtractSlice returns a grayscale orthogonal slice of the volume at
// the given position along the slicing axis. Intensities are expected
// normalized to [0,1].
func ExtractSlice(vol *volume.Volume, axis Axis, position int) (*image.Gray16, error) {
	gray := func(v float64) color.Gray16 {
		return color.Gray16{Y: uint16(math.Max(0, math.Min(65535, v*65535)))}
	}

	switch axis {
	case Axial:
		if position < 0 || position >= vol.Nz {
			return nil, fmt.Errorf("axial position %d outside depth %d", position, vol.Nz)
		}
		img := image.NewGray16(image.Rect(0, 0, vol.Nx, vol.Ny))
		for y := 0; y < vol.Ny; y++ {
			for x := 0; x < vol.Nx; x++ {
				img.SetGray16(x, y, gray(vol.At(x, y, position)))
			}
		}
		return img, nil

	case Coronal:
		if position < 0 || position >= vol.Ny {
			return nil, fmt.Errorf("coronal position %d outside height %d", position, vol.Ny)
		}
		img := image.NewGray16(image.Rect(0, 0, vol.Nx, vol.Nz))
		for z := 0; z < vol.Nz; z++ {
			for x := 0; x < vol.Nx; x++ {
				img.SetGray16(x, z, gray(vol.At(x, position, z)))
			}
		}
		return img, nil

	case Sagittal:
		if position < 0 || position >= vol.Nx {
			return nil, fmt.Errorf("sagittal position %d outside width %d", position, vol.Nx)
		}
		img := image.NewGray16(image.Rect(0, 0, vol.Ny, vol.Nz))
		for z := 0; z < vol.Nz; z++ {
			for y := 0; y < vol.Ny; y++ {
				img.SetGray16(y, z, gray(vol.At(position, y, z)))
			}
		}
		return img, nil

	default:
		return nil, fmt.Errorf("invalid axis %q (must be axial, coronal or sagittal)", axis)
	}
}

// project maps a 3D voxel coordinate onto the 2D raster of a slice
// with the given orientation.
func project(p r3.Vec, axis Axis) (float64, float64) {
	switch axis {
	case Coronal:
		return p.X, p.Z
	case Sagittal:
		return p.Y, p.Z
	default:
		return p.X, p.Y
	}
}

// Overlay draws the preview curve and landmark markers over a slice
// image: a cyan polyline for the path and yellow dots for the picked
// points.
func Overlay(slice image.Image, curve, landmarks []r3.Vec, axis Axis) image.Image {
	dc := gg.NewContextForImage(slice)

	if len(curve) >= 2 {
		dc.SetRGB255(0, 229, 255)
		dc.SetLineWidth(2)
		for i, p := range curve {
			u, v := project(p, axis)
			if i == 0 {
				dc.MoveTo(u, v)
			} else {
				dc.LineTo(u, v)
			}
		}
		dc.Stroke()
	}

	dc.SetRGB255(255, 234, 0)
	for _, p := range landmarks {
		u, v := project(p, axis)
		dc.DrawCircle(u, v, 3)
		dc.Fill()
	}

	return dc.Image()
}
