// Package mpr implements curved multiplanar reconstruction: resampling
// a 3D volume along a smooth landmark path into a flattened 2D image,
// enhancing it for display, and the interactive session state machine
// that drives both.
package mpr

// Image is a reconstructed 2D intensity grid. Rows span the
// cross-section offset, centered on the path (row 0 is the
// -height/2 end); columns span the position along the path. Downstream
// display relies on this orientation, labelling x as "position along
// path" and y as "cross-section".
type Image struct {
	Pix    []float64
	Width  int // samples along the path
	Height int // cross-section height
}

// NewImage allocates a zero-filled image.
func NewImage(height, width int) *Image {
	return &Image{
		Pix:    make([]float64, height*width),
		Width:  width,
		Height: height,
	}
}

// At returns the intensity at (row, col).
func (im *Image) At(row, col int) float64 {
	return im.Pix[row*im.Width+col]
}

// Set writes the intensity at (row, col).
func (im *Image) Set(row, col int, v float64) {
	im.Pix[row*im.Width+col] = v
}

// Max returns the largest intensity, or 0 for an empty image.
func (im *Image) Max() float64 {
	max := 0.0
	for i, v := range im.Pix {
		if i == 0 || v > max {
			max = v
		}
	}
	return max
}

// Clone returns a deep copy.
func (im *Image) Clone() *Image {
	out := NewImage(im.Height, im.Width)
	copy(out.Pix, im.Pix)
	return out
}
