package codec

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Resample scales img to exactly width x height with a Lanczos filter.
// An image already at the target size is returned as an NRGBA copy.
func Resample(img image.Image, width, height int) (*image.NRGBA, error) {
	if img == nil {
		return nil, errors.New("resample: nil image")
	}
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("resample: invalid target size %dx%d", width, height)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, errors.New("resample: empty source image")
	}
	if b.Dx() == width && b.Dy() == height {
		return imaging.Clone(img), nil
	}
	return imaging.Resize(img, width, height, imaging.Lanczos), nil
}
