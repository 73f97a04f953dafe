package optimize

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"

	"gifopt/codec"
)

// OutputAnimation is the frame list plus the container parameters handed
// to the encoder.
type OutputAnimation struct {
	Frames           []PalettedFrame
	Colors           int
	LoopCount        int
	Disposal         byte
	TransparentIndex int
	Optimize         bool
}

// NewOutputAnimation packages frames with the fixed output parameters:
// infinite loop, restore-to-background disposal, transparent index 0 and
// palette optimisation.
func NewOutputAnimation(frames []PalettedFrame, colors int) OutputAnimation {
	return OutputAnimation{
		Frames:           frames,
		Colors:           colors,
		LoopCount:        0,
		Disposal:         gif.DisposalBackground,
		TransparentIndex: codec.TransparentIndex,
		Optimize:         true,
	}
}

// Encode serialises the animation in memory.
func (o OutputAnimation) Encode() ([]byte, error) {
	if len(o.Frames) == 0 {
		return nil, newError(ErrEncode, "assemble", "", errors.New("no frames"))
	}

	images := make([]*image.Paletted, len(o.Frames))
	durations := make([]int, len(o.Frames))
	for i, f := range o.Frames {
		if f.Image == nil {
			return nil, newError(ErrEncode, "assemble", "", fmt.Errorf("frame %d has no image", i))
		}
		if len(f.Image.Palette) > o.Colors {
			return nil, newError(ErrEncode, "assemble", "",
				fmt.Errorf("frame %d palette has %d entries, limit %d", i, len(f.Image.Palette), o.Colors))
		}
		images[i] = f.Image
		durations[i] = f.Duration
	}

	var buf bytes.Buffer
	err := codec.Encode(&buf, images, durations, codec.EncodeOptions{
		LoopCount:        o.LoopCount,
		Disposal:         o.Disposal,
		TransparentIndex: o.TransparentIndex,
		Optimize:         o.Optimize,
	})
	if err != nil {
		return nil, newError(ErrEncode, "encode", "", err)
	}
	return buf.Bytes(), nil
}

// Assemble encodes frames as one looping animation.
func Assemble(frames []PalettedFrame, colors int) ([]byte, error) {
	return NewOutputAnimation(frames, colors).Encode()
}
