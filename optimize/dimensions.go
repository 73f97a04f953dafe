package optimize

import "math"

// Dimensions is an output frame size. Both sides are at least 1.
type Dimensions struct {
	Width  int
	Height int
}

// PlanDimensions fits the source size inside maxWidth x maxHeight while
// keeping its aspect ratio. The result is never larger than the source
// and never zero on either side.
func PlanDimensions(sourceWidth, sourceHeight, maxWidth, maxHeight int) Dimensions {
	scale := math.Min(
		math.Min(float64(maxWidth)/float64(sourceWidth), float64(maxHeight)/float64(sourceHeight)),
		1.0,
	)
	return Dimensions{
		Width:  max(1, int(math.Floor(float64(sourceWidth)*scale))),
		Height: max(1, int(math.Floor(float64(sourceHeight)*scale))),
	}
}
