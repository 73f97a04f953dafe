package codec

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"io"
)

// EncodeOptions are the container-level parameters of an encoded GIF.
type EncodeOptions struct {
	LoopCount        int
	Disposal         byte
	TransparentIndex int
	// Optimize drops unused palette entries before encoding.
	Optimize bool
}

// Encode writes frames as one GIF to w. durations holds one value in
// milliseconds per frame. The first frame's palette becomes the global
// colour table; frames with a different palette get a local table.
func Encode(w io.Writer, frames []*image.Paletted, durations []int, opts EncodeOptions) error {
	if len(frames) == 0 {
		return errors.New("encode: no frames")
	}
	if len(durations) != len(frames) {
		return fmt.Errorf("encode: %d durations for %d frames", len(durations), len(frames))
	}

	bounds := frames[0].Bounds()
	for i, frame := range frames {
		if frame == nil {
			return fmt.Errorf("encode: frame %d is nil", i)
		}
		if frame.Bounds() != bounds {
			return fmt.Errorf("encode: frame %d is %v, want %v", i, frame.Bounds(), bounds)
		}
		if len(frame.Palette) > 256 {
			return fmt.Errorf("encode: frame %d palette has %d entries", i, len(frame.Palette))
		}
		if opts.TransparentIndex >= len(frame.Palette) {
			return fmt.Errorf("encode: frame %d palette has no entry %d", i, opts.TransparentIndex)
		}
	}

	if opts.Optimize {
		frames = trimPalettes(frames, opts.TransparentIndex)
	}
	frames = withTransparency(frames, opts.TransparentIndex)

	g := &gif.GIF{
		Image:           frames,
		Delay:           make([]int, len(frames)),
		Disposal:        make([]byte, len(frames)),
		LoopCount:       opts.LoopCount,
		BackgroundIndex: byte(opts.TransparentIndex),
		Config: image.Config{
			ColorModel: frames[0].Palette,
			Width:      bounds.Dx(),
			Height:     bounds.Dy(),
		},
	}
	for i := range frames {
		g.Delay[i] = millisToDelay(durations[i])
		g.Disposal[i] = opts.Disposal
	}

	if err := gif.EncodeAll(w, g); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// millisToDelay converts milliseconds to GIF hundredths of a second.
func millisToDelay(ms int) int {
	d := ms / 10
	if d < 1 {
		d = 1
	}
	return d
}

// withTransparency returns shallow copies of frames whose palettes have
// entry index as the only fully transparent colour. The GIF encoder picks
// the transparent index from palette alpha.
func withTransparency(frames []*image.Paletted, index int) []*image.Paletted {
	out := make([]*image.Paletted, len(frames))
	for i, frame := range frames {
		pal := make(color.Palette, len(frame.Palette))
		for j, c := range frame.Palette {
			if _, _, _, a := c.RGBA(); a == 0 {
				c = color.NRGBA{A: 0xff}
			}
			pal[j] = c
		}
		pal[index] = color.NRGBA{}
		f := *frame
		f.Palette = pal
		out[i] = &f
	}
	return out
}

// trimPalettes removes palette entries no pixel refers to. Frames sharing
// identical palettes are trimmed together so they keep sharing one table.
// The transparent entry always survives at its index.
func trimPalettes(frames []*image.Paletted, keep int) []*image.Paletted {
	type group struct {
		used    [256]bool
		palette color.Palette
		remap   [256]uint8
	}
	groups := make(map[string]*group)
	keys := make([]string, len(frames))

	for i, frame := range frames {
		key := paletteKey(frame.Palette)
		keys[i] = key
		g, ok := groups[key]
		if !ok {
			g = &group{}
			groups[key] = g
		}
		for _, idx := range pixels(frame) {
			g.used[idx] = true
		}
	}

	for _, frame := range frames {
		g := groups[paletteKey(frame.Palette)]
		if g.palette != nil {
			continue
		}
		g.palette = color.Palette{}
		for idx, c := range frame.Palette {
			if idx == keep {
				// Placeholder; the transparent slot is placed below.
				continue
			}
			if !g.used[idx] {
				continue
			}
			g.remap[idx] = uint8(len(g.palette))
			g.palette = append(g.palette, c)
		}
		g.palette = insertAt(g.palette, keep, frame.Palette[keep])
		for idx := range frame.Palette {
			if idx != keep && g.used[idx] && int(g.remap[idx]) >= keep {
				g.remap[idx]++
			}
		}
		g.remap[keep] = uint8(keep)
	}

	out := make([]*image.Paletted, len(frames))
	for i, frame := range frames {
		g := groups[keys[i]]
		trimmed := image.NewPaletted(frame.Rect, g.palette)
		for p, idx := range pixels(frame) {
			trimmed.Pix[p] = g.remap[idx]
		}
		out[i] = trimmed
	}
	return out
}

// pixels returns the palette indices of m row by row without stride gaps.
func pixels(m *image.Paletted) []uint8 {
	w, h := m.Rect.Dx(), m.Rect.Dy()
	if m.Stride == w {
		return m.Pix[:w*h]
	}
	out := make([]uint8, 0, w*h)
	for y := 0; y < h; y++ {
		out = append(out, m.Pix[y*m.Stride:y*m.Stride+w]...)
	}
	return out
}

func insertAt(pal color.Palette, index int, c color.Color) color.Palette {
	if index >= len(pal) {
		// Pad so the transparent entry lands on its fixed index.
		for len(pal) < index {
			pal = append(pal, color.NRGBA{A: 0xff})
		}
		return append(pal, c)
	}
	pal = append(pal, nil)
	copy(pal[index+1:], pal[index:])
	pal[index] = c
	return pal
}

func paletteKey(pal color.Palette) string {
	b := make([]byte, 0, len(pal)*8)
	for _, c := range pal {
		r, g, bl, a := c.RGBA()
		b = append(b,
			byte(r>>8), byte(r), byte(g>>8), byte(g),
			byte(bl>>8), byte(bl), byte(a>>8), byte(a))
	}
	return string(b)
}
