// Package codec decodes, resamples, quantizes and encodes animation frames.
//
// It is the image-codec layer the optimizer delegates to: the optimizer
// decides which frames to keep and at which size, codec does the pixel work.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"io"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// DefaultDuration is reported for frames that carry no timing metadata.
const DefaultDuration = 100

// Frame is one decoded frame, composited onto the full canvas.
type Frame struct {
	Image    *image.NRGBA
	Duration int // milliseconds
}

// Animation is a decoded animation.
type Animation struct {
	Width  int
	Height int
	Frames []Frame
	// Poster is the source image used when no frame survives selection:
	// the first frame, or a blank canvas if the input had none.
	Poster *image.NRGBA
	// Format is "gif" for animations and the image format name for stills.
	Format string
}

var gifMagic = []byte("GIF8")

// Decode reads an animation from r. GIF input is decoded frame by frame;
// any other image format imaging understands becomes a one-frame animation.
func Decode(r io.Reader) (anim *Animation, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	if !bytes.HasPrefix(data, gifMagic) {
		return decodeStill(data)
	}

	// gif.DecodeAll panics on some broken files found in the wild.
	defer func() {
		if rec := recover(); rec != nil {
			anim, err = nil, fmt.Errorf("decoding gif: %v", rec)
		}
	}()

	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding gif: %w", err)
	}
	return composite(g)
}

func decodeStill(data []byte) (*Animation, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		format = "unknown"
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding %s image: %w", format, err)
	}
	frame := imaging.Clone(img)
	b := frame.Bounds()
	if b.Empty() {
		return nil, errors.New("decoded image is empty")
	}
	return &Animation{
		Width:  b.Dx(),
		Height: b.Dy(),
		Frames: []Frame{{Image: frame, Duration: DefaultDuration}},
		Poster: frame,
		Format: format,
	}, nil
}

// composite renders every GIF frame onto a canvas of the logical screen
// size, honouring each frame's disposal method, so that every Frame holds
// the picture a player would show at that point.
func composite(g *gif.GIF) (*Animation, error) {
	width, height := canvasSize(g)
	if width < 1 || height < 1 {
		return nil, errors.New("gif has no usable canvas size")
	}

	bounds := image.Rect(0, 0, width, height)
	canvas := image.NewRGBA(bounds)
	anim := &Animation{
		Width:  width,
		Height: height,
		Frames: make([]Frame, 0, len(g.Image)),
		Format: "gif",
	}

	for i, frame := range g.Image {
		disposal := byte(0)
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}

		var previous *image.RGBA
		if disposal == gif.DisposalPrevious {
			previous = image.NewRGBA(bounds)
			draw.Draw(previous, bounds, canvas, image.Point{}, draw.Src)
		}

		fb := frame.Bounds()
		draw.Draw(canvas, fb, frame, fb.Min, draw.Over)

		delay := 0
		if i < len(g.Delay) {
			delay = g.Delay[i]
		}
		anim.Frames = append(anim.Frames, Frame{
			Image:    imaging.Clone(canvas),
			Duration: delayToMillis(delay),
		})

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, fb, image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			draw.Draw(canvas, bounds, previous, image.Point{}, draw.Src)
		}
	}

	if len(anim.Frames) > 0 {
		anim.Poster = anim.Frames[0].Image
	} else {
		anim.Poster = image.NewNRGBA(bounds)
	}
	return anim, nil
}

// canvasSize returns the logical screen size, falling back to the union
// of the frame bounds when the header leaves it unset.
func canvasSize(g *gif.GIF) (int, int) {
	if g.Config.Width > 0 && g.Config.Height > 0 {
		return g.Config.Width, g.Config.Height
	}
	var union image.Rectangle
	for _, frame := range g.Image {
		union = union.Union(frame.Bounds())
	}
	return union.Max.X, union.Max.Y
}

// delayToMillis converts a GIF delay in hundredths of a second. A zero
// delay means the frame carried no timing.
func delayToMillis(delay int) int {
	if delay <= 0 {
		return DefaultDuration
	}
	return delay * 10
}
