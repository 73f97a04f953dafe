// Package optimize shrinks an animation by lowering its frame rate, its
// dimensions and its palette.
//
// The work is split into four steps:
//   - PlanDimensions computes one output size for every frame.
//   - SelectFrames thins the decoded frames to the target frame rate.
//   - Pipeline resizes and quantizes the selected frames in parallel.
//   - Assemble encodes the result as one looping GIF.
//
// Optimizer.Run chains them for a file on disk and writes the output
// atomically next to the input.
package optimize

import (
	"context"
	"errors"
	"os"

	"gifopt/codec"
	"gifopt/config"
	"gifopt/log"
)

// Result describes a completed run.
type Result struct {
	OutputPath    string
	Size          Dimensions
	FrameDuration int
	SourceFrames  int
	Frames        int
	InputBytes    int64
	OutputBytes   int64
}

// Optimizer runs the whole optimisation for one input file.
type Optimizer struct {
	cfg    config.Config
	logger *log.Logger
}

// New creates an Optimizer. A nil logger discards all output.
func New(cfg config.Config, logger *log.Logger) *Optimizer {
	cfg.Normalize()
	if logger == nil {
		logger = log.Nop()
	}
	return &Optimizer{cfg: cfg, logger: logger}
}

// Run optimizes the animation at input and writes <stem>.optimized.gif
// beside it. Nothing is written unless every step succeeds.
func (o *Optimizer) Run(ctx context.Context, input string) (*Result, error) {
	info, err := os.Stat(input)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, newError(ErrNotFound, "stat", input, err)
		}
		return nil, newError(ErrDecode, "stat", input, err)
	}
	if info.IsDir() {
		return nil, newError(ErrDecode, "open", input, errors.New("is a directory"))
	}

	anim, err := o.decode(input)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("decoded", map[string]any{
		"format": anim.Format,
		"frames": len(anim.Frames),
		"width":  anim.Width,
		"height": anim.Height,
	})

	size := PlanDimensions(anim.Width, anim.Height, o.cfg.MaxWidth, o.cfg.MaxHeight)
	plan := SelectFrames(anim.Frames, anim.Poster, o.cfg.FPS)
	o.logger.Info("plan ready", map[string]any{
		"width":         size.Width,
		"height":        size.Height,
		"duration_ms":   plan.Duration,
		"source_frames": len(anim.Frames),
		"frames":        len(plan.Frames),
	})

	pipeline := &Pipeline{
		Size:    size,
		Colors:  o.cfg.Colors,
		Workers: o.cfg.Workers,
		Palette: o.cfg.Palette,
		Logger:  o.logger,
	}
	frames, err := pipeline.Run(ctx, plan)
	if err != nil {
		var oe *Error
		if errors.As(err, &oe) {
			oe.Path = input
			return nil, oe
		}
		return nil, err
	}

	data, err := Assemble(frames, o.cfg.Colors)
	if err != nil {
		return nil, err
	}

	out := OutputPath(input)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := writeAtomic(out, data); err != nil {
		return nil, newError(ErrEncode, "write", out, err)
	}

	res := &Result{
		OutputPath:    out,
		Size:          size,
		FrameDuration: plan.Duration,
		SourceFrames:  len(anim.Frames),
		Frames:        len(frames),
		InputBytes:    info.Size(),
		OutputBytes:   int64(len(data)),
	}
	o.logger.Info("output written", map[string]any{
		"output":       out,
		"input_bytes":  res.InputBytes,
		"output_bytes": res.OutputBytes,
	})
	return res, nil
}

func (o *Optimizer) decode(input string) (*codec.Animation, error) {
	f, err := os.Open(input)
	if err != nil {
		return nil, newError(ErrDecode, "open", input, err)
	}
	defer f.Close()

	anim, err := codec.Decode(f)
	if err != nil {
		return nil, newError(ErrDecode, "decode", input, err)
	}
	return anim, nil
}
