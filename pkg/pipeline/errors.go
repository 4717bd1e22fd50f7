package pipeline

import (
	"errors"
	"fmt"

	"github.com/user/panorama/pkg/ports"
)

var (
	// ErrSourceUnreadable is returned when the video cannot be opened or probed.
	ErrSourceUnreadable = errors.New("pipeline: video source unreadable")

	// ErrInsufficientFrames is returned when fewer than two frames reach the stitcher.
	ErrInsufficientFrames = errors.New("pipeline: at least 2 frames are required")

	// ErrStitchFailure matches every *StitchError.
	ErrStitchFailure = errors.New("pipeline: stitching failed")

	// ErrOutputWrite is returned when the output image cannot be written.
	ErrOutputWrite = errors.New("pipeline: output not writable")
)

// StitchError carries the status reported by the stitching capability.
type StitchError struct {
	Status ports.StitchStatus
	Err    error
}

func (e *StitchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("stitch failed with %s: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("stitch failed with %s", e.Status)
}

// Unwrap returns the underlying cause, if any.
func (e *StitchError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrStitchFailure) true for every StitchError.
func (e *StitchError) Is(target error) bool {
	return target == ErrStitchFailure
}

// StitchStatusOf returns the capability status carried by err.
func StitchStatusOf(err error) (ports.StitchStatus, bool) {
	var se *StitchError
	if errors.As(err, &se) {
		return se.Status, true
	}
	return 0, false
}
