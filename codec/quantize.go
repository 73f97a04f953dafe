package codec

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/ericpauley/go-quantize/quantize"
	"golang.org/x/image/draw"
)

// TransparentIndex is the palette slot reserved for transparent pixels.
const TransparentIndex = 0

// maxSamples bounds the number of pixels fed to the median cut.
const maxSamples = 1 << 16

// alphaThreshold separates transparent from opaque pixels (50%).
const alphaThreshold = 0x80

// Quantize maps img onto an adaptive palette of at most colors entries
// derived from img alone, with Floyd-Steinberg dithering.
func Quantize(img image.Image, colors int) (*image.Paletted, error) {
	pal, err := AdaptivePalette([]image.Image{img}, colors)
	if err != nil {
		return nil, err
	}
	return QuantizeWith(img, pal)
}

// AdaptivePalette derives one palette from the opaque pixels of imgs by
// median cut. Entry 0 is always fully transparent, so at most colors-1
// entries describe opaque pixels. With several images the samples of all
// of them are laid out in one strip and quantized together.
func AdaptivePalette(imgs []image.Image, colors int) (color.Palette, error) {
	if colors < 2 || colors > 256 {
		return nil, fmt.Errorf("quantize: palette size %d out of range [2, 256]", colors)
	}
	if len(imgs) == 0 {
		return nil, errors.New("quantize: no images")
	}

	perImage := maxSamples / len(imgs)
	if perImage < 1 {
		perImage = 1
	}
	var samples []uint8
	for _, img := range imgs {
		if img == nil || img.Bounds().Empty() {
			return nil, errors.New("quantize: empty image")
		}
		samples = appendSamples(samples, imaging.Clone(img), perImage)
	}

	pal := make(color.Palette, 1, colors)
	pal[TransparentIndex] = color.NRGBA{}
	if len(samples) == 0 {
		return pal, nil
	}
	strip := &image.NRGBA{
		Pix:    samples,
		Stride: len(samples),
		Rect:   image.Rect(0, 0, len(samples)/4, 1),
	}
	q := quantize.MedianCutQuantizer{Aggregation: quantize.Mean}
	pal = q.Quantize(pal, strip)
	if len(pal) > colors {
		pal = pal[:colors]
	}
	return pal, nil
}

// QuantizeWith maps img onto pal, whose entry 0 must be the transparent
// slot. Pixels under 50% alpha become index 0; the rest are dithered
// across the remaining entries.
func QuantizeWith(img image.Image, pal color.Palette) (*image.Paletted, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, errors.New("quantize: empty image")
	}
	if len(pal) < 1 || len(pal) > 256 {
		return nil, fmt.Errorf("quantize: palette size %d out of range", len(pal))
	}

	src := imaging.Clone(img)
	rect := src.Bounds()
	out := image.NewPaletted(rect, pal)
	if len(pal) == 1 {
		return out, nil
	}

	// Dither over a fully opaque copy so that colour error is diffused
	// in straight RGB, then punch the transparent pixels back in.
	flat := imaging.Clone(src)
	for i := 3; i < len(flat.Pix); i += 4 {
		flat.Pix[i] = 0xff
	}
	opaque := image.NewPaletted(rect, pal[1:])
	draw.FloydSteinberg.Draw(opaque, rect, flat, rect.Min)

	for y := 0; y < rect.Dy(); y++ {
		for x := 0; x < rect.Dx(); x++ {
			if src.Pix[y*src.Stride+x*4+3] < alphaThreshold {
				out.Pix[y*out.Stride+x] = TransparentIndex
				continue
			}
			out.Pix[y*out.Stride+x] = opaque.Pix[y*opaque.Stride+x] + 1
		}
	}
	return out, nil
}

// appendSamples adds up to limit opaque pixels of img to dst as NRGBA
// bytes, taken at an even stride so large frames are sampled across
// their whole area.
func appendSamples(dst []uint8, img *image.NRGBA, limit int) []uint8 {
	total := len(img.Pix) / 4
	step := 1
	if total > limit {
		step = (total + limit - 1) / limit
	}
	for i := 0; i < total; i += step {
		p := img.Pix[i*4 : i*4+4]
		if p[3] < alphaThreshold {
			continue
		}
		dst = append(dst, p[0], p[1], p[2], 0xff)
	}
	return dst
}
