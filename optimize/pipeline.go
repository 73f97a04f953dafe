package optimize

import (
	"context"
	"image"
	"image/color"
	"runtime"

	"golang.org/x/sync/errgroup"

	"gifopt/codec"
	"gifopt/config"
	"gifopt/log"
)

// PalettedFrame is one output frame and how long it is shown, in ms.
type PalettedFrame struct {
	Image    *image.Paletted
	Duration int
}

// Pipeline resizes and quantizes the frames of a SelectionPlan.
type Pipeline struct {
	Size    Dimensions
	Colors  int
	Workers int
	Palette config.PaletteMode
	Logger  *log.Logger
}

// Run transforms every selected frame and returns them in plan order.
// Any failing frame aborts the whole run; no partial result is returned.
func (p *Pipeline) Run(ctx context.Context, plan SelectionPlan) ([]PalettedFrame, error) {
	logger := p.Logger
	if logger == nil {
		logger = log.Nop()
	}

	resized := make([]*image.NRGBA, len(plan.Frames))
	err := p.forEach(ctx, len(plan.Frames), func(i int) error {
		m, err := codec.Resample(plan.Frames[i].Image, p.Size.Width, p.Size.Height)
		if err != nil {
			return frameError("resample", i, err)
		}
		resized[i] = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	var shared color.Palette
	if p.Palette == config.PaletteShared {
		imgs := make([]image.Image, len(resized))
		for i, m := range resized {
			imgs[i] = m
		}
		shared, err = codec.AdaptivePalette(imgs, p.Colors)
		if err != nil {
			return nil, frameError("palette", -1, err)
		}
		logger.Debug("shared palette derived", map[string]any{"entries": len(shared)})
	}

	out := make([]PalettedFrame, len(resized))
	err = p.forEach(ctx, len(resized), func(i int) error {
		var (
			m   *image.Paletted
			err error
		)
		if shared != nil {
			m, err = codec.QuantizeWith(resized[i], shared)
		} else {
			m, err = codec.Quantize(resized[i], p.Colors)
		}
		if err != nil {
			return frameError("quantize", i, err)
		}
		out[i] = PalettedFrame{Image: m, Duration: plan.Duration}
		logger.Debug("frame transformed", map[string]any{
			"position": i,
			"source":   plan.Frames[i].Index,
			"palette":  len(m.Palette),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// forEach runs fn for 0..n-1 on at most p.Workers goroutines. Results are
// written by index, so order never depends on scheduling. The first failure
// cancels the remaining work and the error of the lowest failing index is
// returned.
func (p *Pipeline) forEach(ctx context.Context, n int, fn func(i int) error) error {
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(i); err != nil {
				errs[i] = err
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, e := range errs {
			if e != nil {
				return e
			}
		}
		return err
	}
	return nil
}
