package mpr

import (
	"runtime"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"curvedmpr/pkg/frame"
	"curvedmpr/pkg/volume"
)

// Resample sweeps the cross-section normal along the curve and samples
// the volume at every offset, producing a (crossSectionHeight x
// len(curve)) image. Offsets are evenly spaced over
// [-height/2, height/2] and symmetric about the path centerline.
//
// Sample points outside the interpolatable region of the volume leave
// their cell at 0 instead of extrapolating at the boundary. Columns
// are independent, so the sweep is fanned out across CPU cores.
func Resample(vol *volume.Volume, curve []r3.Vec, frames []frame.Frame, crossSectionHeight int) *Image {
	width := len(curve)
	img := NewImage(crossSectionHeight, width)
	if width == 0 || crossSectionHeight == 0 || len(frames) < width {
		return img
	}

	offsets := make([]float64, crossSectionHeight)
	if crossSectionHeight > 1 {
		h := float64(crossSectionHeight)
		floats.Span(offsets, -h/2, h/2)
	}

	workers := runtime.NumCPU()
	if workers > width {
		workers = width
	}
	colsPerWorker := (width + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * colsPerWorker
		end := start + colsPerWorker
		if end > width {
			end = width
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				center := curve[i]
				normal := frames[i].Normal
				for j, offset := range offsets {
					p := r3.Add(center, r3.Scale(offset, normal))
					if !vol.Inside(p) {
						continue
					}
					img.Set(j, i, vol.Interpolate(p))
				}
			}
		}(start, end)
	}
	wg.Wait()

	return img
}
