package volume

import (
	"fmt"

	"github.com/henghuang/nifti"
)

// parseNIfTI consumes panics emitted by the nifti library on malformed
// files and turns them into recoverable errors.
func parseNIfTI(path string) (img nifti.Nifti1Image, hdr nifti.Nifti1Header, err error) {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			err = fmt.Errorf("nifti %s: %v", path, panicErr)
		}
	}()

	img.LoadImage(path, true)
	hdr.LoadHeader(path)

	return
}

// LoadNIfTI reads a .nii or .nii.gz scan into a Volume. Only the first
// timepoint of a 4D series is read; intensities are kept as stored, so
// callers normalize afterwards if they want a [0,1] range.
func LoadNIfTI(path string) (*Volume, error) {
	img, hdr, err := parseNIfTI(path)
	if err != nil {
		return nil, err
	}

	dims := img.GetDims()
	nx, ny, nz := dims[0], dims[1], dims[2]
	if nx <= 0 || ny <= 0 || nz <= 0 {
		return nil, fmt.Errorf("nifti %s: invalid dimensions %dx%dx%d", path, nx, ny, nz)
	}

	v := New(nx, ny, nz)
	v.Spacing = [3]float64{
		float64(hdr.Pixdim[1]),
		float64(hdr.Pixdim[2]),
		float64(hdr.Pixdim[3]),
	}

	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				v.Data[v.index(x, y, z)] = float64(img.GetAt(x, y, z, 0))
			}
		}
	}

	if err := v.Validate(); err != nil {
		return nil, fmt.Errorf("nifti %s: %w", path, err)
	}
	return v, nil
}
