// Package opencv adapts OpenCV through gocv: VideoCapture as a frame source
// and cv::Stitcher as the stitching capability.
//
// The cgo binding is only compiled with the "gocv" build tag. Without it
// every operation returns ErrNotBuilt and Available reports false.
package opencv

import (
	"context"
	"errors"
	"image"

	"github.com/user/panorama/pkg/ports"
)

var (
	// ErrNotBuilt is returned when the binary was built without -tags gocv.
	ErrNotBuilt = errors.New("opencv: built without gocv support")

	// ErrOpenFailed is returned when VideoCapture cannot open the file.
	ErrOpenFailed = errors.New("opencv: cannot open video")

	// ErrReadFailed is returned when a frame cannot be grabbed.
	ErrReadFailed = errors.New("opencv: cannot read frame")
)

// Mode selects the cv::Stitcher preset.
type Mode int

const (
	// ModePanorama assumes a rotating camera and projects onto a sphere.
	ModePanorama Mode = iota
	// ModeScans assumes an affine model, for flat scanned surfaces.
	ModeScans
)

// Available reports whether the OpenCV binding was compiled in.
func Available() bool {
	return available
}

// Opener opens videos with cv::VideoCapture.
type Opener struct{}

// NewOpener creates an Opener.
func NewOpener() *Opener {
	return &Opener{}
}

// Probe reads stream properties without decoding frames.
func (o *Opener) Probe(ctx context.Context, path string) (ports.VideoInfo, error) {
	if err := ctx.Err(); err != nil {
		return ports.VideoInfo{}, err
	}
	src, err := openCapture(path)
	if err != nil {
		return ports.VideoInfo{}, err
	}
	defer src.Close()
	return src.Info(), nil
}

// Open opens path for frame reads.
func (o *Opener) Open(ctx context.Context, path string) (ports.VideoSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, err := openCapture(path)
	if err != nil {
		return nil, err
	}
	return src, nil
}

// Stitcher runs cv::Stitcher. Each call creates and releases its own
// native stitcher, so a Stitcher is safe for concurrent use.
type Stitcher struct {
	mode Mode
}

// NewStitcher creates a Stitcher using mode.
func NewStitcher(mode Mode) *Stitcher {
	return &Stitcher{mode: mode}
}

func (s *Stitcher) Name() string {
	return "opencv"
}

// Stitch runs the native stitcher once. OpenCV reports no intermediate
// progress, so progress is only called on completion.
func (s *Stitcher) Stitch(ctx context.Context, images []image.Image, progress ports.StitchProgressFunc) (ports.StitchResult, error) {
	if err := ctx.Err(); err != nil {
		return ports.StitchResult{}, err
	}
	res, err := stitch(s.mode, images)
	if err != nil {
		return ports.StitchResult{}, err
	}
	if progress != nil {
		progress(1, 1)
	}
	return res, nil
}

var (
	_ ports.VideoOpener = (*Opener)(nil)
	_ ports.Stitcher    = (*Stitcher)(nil)
)
