package optimize

import (
	"errors"
	"fmt"
)

// Sentinel errors for failure classification.
// Use errors.Is(err, ErrXxx) for typed assertions.
var (
	// ErrUsage indicates a missing or invalid invocation argument.
	ErrUsage = errors.New("usage error")

	// ErrNotFound indicates the input path does not exist.
	ErrNotFound = errors.New("input not found")

	// ErrDecode indicates the input could not be read as an animation.
	ErrDecode = errors.New("decode failed")

	// ErrTransform indicates a frame could not be resampled or quantized.
	ErrTransform = errors.New("transform failed")

	// ErrEncode indicates the output could not be encoded or written.
	ErrEncode = errors.New("encode failed")
)

// Error wraps an underlying error with its classification.
type Error struct {
	// Kind is the sentinel error for classification (e.g., ErrDecode).
	Kind error
	// Op is the step that failed (e.g., "decode", "resample", "write").
	Op string
	// Path is the file involved, if any.
	Path string
	// Frame is the selection position of the failing frame, or -1.
	Frame int
	// Err is the underlying error.
	Err error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Frame >= 0 {
		msg += fmt.Sprintf(" frame %d", e.Frame)
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", msg, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", msg, e.Kind, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As chain traversal.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches the target sentinel.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Kind, target)
}

func newError(kind error, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Frame: -1, Err: err}
}

func frameError(op string, frame int, err error) *Error {
	return &Error{Kind: ErrTransform, Op: op, Frame: frame, Err: err}
}
