package optimize

import (
	"image"
	"math"

	"github.com/disintegration/imaging"

	"gifopt/codec"
)

// MinFrameDuration is the shortest frame duration ever assigned, in ms.
const MinFrameDuration = 10

// Selection is a source frame chosen for the output.
type Selection struct {
	Image *image.NRGBA
	// Index is the frame's position in the decoded sequence.
	Index int
}

// SelectionPlan is the ordered, non-empty list of frames to encode and
// the duration every one of them is shown for.
type SelectionPlan struct {
	Frames   []Selection
	Duration int
}

// TargetDuration returns the per-frame duration for fps frames per second.
func TargetDuration(fps int) int {
	if fps < 1 {
		fps = 1
	}
	return max(MinFrameDuration, int(math.Round(1000/float64(fps))))
}

// accumulator is the running source duration since the last kept frame.
type accumulator int

// step folds frame i of the given duration into acc and reports whether
// the frame is kept, together with the accumulator for the next frame.
func (acc accumulator) step(i, duration, target int) (bool, accumulator) {
	if i == 0 {
		return true, 0
	}
	acc += accumulator(duration)
	if int(acc) >= target {
		return true, 0
	}
	return false, acc
}

// SelectFrames thins frames down to roughly fps frames per second. The
// first frame is always kept; every later frame is kept once the source
// time since the previous kept frame reaches the target duration. When
// frames is empty the plan holds poster as its only frame.
func SelectFrames(frames []codec.Frame, poster image.Image, fps int) SelectionPlan {
	plan := SelectionPlan{Duration: TargetDuration(fps)}

	var acc accumulator
	for i, f := range frames {
		var keep bool
		keep, acc = acc.step(i, f.Duration, plan.Duration)
		if keep {
			plan.Frames = append(plan.Frames, Selection{Image: f.Image, Index: i})
		}
	}

	if len(plan.Frames) == 0 {
		plan.Frames = []Selection{{Image: posterImage(poster), Index: 0}}
	}
	return plan
}

func posterImage(poster image.Image) *image.NRGBA {
	if poster == nil {
		return image.NewNRGBA(image.Rect(0, 0, 1, 1))
	}
	if m, ok := poster.(*image.NRGBA); ok {
		return m
	}
	return imaging.Clone(poster)
}
