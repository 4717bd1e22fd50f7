package ports

import (
	"context"
	"fmt"
	"image"
)

// StitchStatus is the raw status reported by a stitching capability.
// The numbering follows OpenCV's Stitcher::Status. Values outside the
// named constants are valid and are carried through unchanged.
type StitchStatus int

const (
	// StitchInternalFailure means the capability could not run at all.
	StitchInternalFailure StitchStatus = -1
	StitchOK              StitchStatus = 0
	// StitchNeedMoreImages means too few usable images were left.
	StitchNeedMoreImages StitchStatus = 1
	// StitchHomographyEstFail means no alignment could be estimated,
	// usually because the frames do not overlap enough.
	StitchHomographyEstFail StitchStatus = 2
	// StitchCameraParamsAdjustFail means the global adjustment diverged.
	StitchCameraParamsAdjustFail StitchStatus = 3
)

// String returns the symbolic name of the status.
func (s StitchStatus) String() string {
	switch s {
	case StitchInternalFailure:
		return "internal_failure"
	case StitchOK:
		return "ok"
	case StitchNeedMoreImages:
		return "need_more_images"
	case StitchHomographyEstFail:
		return "homography_estimation_failed"
	case StitchCameraParamsAdjustFail:
		return "camera_params_adjust_failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// StitchProgressFunc receives incremental progress from a stitcher.
type StitchProgressFunc func(done, total int)

// Placement is where one input image ended up on the composite.
type Placement struct {
	Index int             `json:"index"`
	Rect  image.Rectangle `json:"rect"`
	Cost  float64         `json:"cost"`
}

// StitchResult is the (status, composite) pair returned by a stitcher.
// Composite is only meaningful when Status is StitchOK.
type StitchResult struct {
	Status     StitchStatus
	Composite  image.Image
	Placements []Placement
}

// Stitcher combines an ordered set of overlapping same-size images into
// one composite. Alignment, warping and blending are internal to it.
type Stitcher interface {
	// Name identifies the implementation in logs and run records.
	Name() string

	// Stitch runs once over images. A non-nil error means the capability
	// itself failed to run; stitching problems are reported via Status.
	Stitch(ctx context.Context, images []image.Image, progress StitchProgressFunc) (StitchResult, error)
}
