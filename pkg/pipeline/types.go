package pipeline

import (
	"image"
	"time"

	"github.com/user/panorama/pkg/ports"
)

const (
	// DefaultStride is the sampling interval between frames.
	DefaultStride = 5

	// DefaultMaxFrames bounds the number of frames handed to the stitcher.
	DefaultMaxFrames = 20

	// DefaultOutputPath is the fixed location of the stitched result.
	DefaultOutputPath = "panorama_result.jpg"

	// DefaultJPEGQuality is used when encoding the output image.
	DefaultJPEGQuality = 95
)

// =============================================================================
// Frames
// =============================================================================

// Frame is a decoded still taken from the source video.
// Image is opaque 8-bit RGB stored as RGBA with alpha fixed at 255.
// Stages treat it as read-only.
type Frame struct {
	Index int
	Image *image.RGBA
}

// FrameSequence is an ordered list of frames in source order.
type FrameSequence []Frame

// Images returns the frame images in order.
func (s FrameSequence) Images() []image.Image {
	out := make([]image.Image, len(s))
	for i, f := range s {
		out[i] = f.Image
	}
	return out
}

// Indices returns the source indices in order.
func (s FrameSequence) Indices() []int {
	out := make([]int, len(s))
	for i, f := range s {
		out[i] = f.Index
	}
	return out
}

// =============================================================================
// Sample Stage Types
// =============================================================================

// SampleInput describes which frames to pull from a video.
type SampleInput struct {
	Path      string
	MaxFrames int // <= 0 means unbounded
	Stride    int // <= 0 means DefaultStride
}

// SampleResult holds the sampled frames and the probed stream info.
type SampleResult struct {
	Frames FrameSequence
	Info   ports.VideoInfo
}

// =============================================================================
// Stitch Stage Types
// =============================================================================

// StitchInput is the ordered frame set handed to the stitching capability.
type StitchInput struct {
	Frames FrameSequence

	// OnProgress receives incremental progress from the capability, if any.
	OnProgress ports.StitchProgressFunc
}

// StitchOutcome is either a composite or a failure, never both.
type StitchOutcome struct {
	Composite *image.RGBA
	Failure   error

	// Placements are filled when the capability reports frame positions.
	Placements []ports.Placement
}

// Success builds a successful outcome.
func Success(composite *image.RGBA) StitchOutcome {
	return StitchOutcome{Composite: composite}
}

// Failure builds a failed outcome.
func Failure(err error) StitchOutcome {
	return StitchOutcome{Failure: err}
}

// OK reports whether the outcome carries a composite.
func (o StitchOutcome) OK() bool {
	return o.Failure == nil && o.Composite != nil
}

// =============================================================================
// Color Correction Stage Types
// =============================================================================

// CorrectInput pairs the stitched composite with the reference frame.
type CorrectInput struct {
	Composite *image.RGBA
	Reference *image.RGBA
}

// CorrectResult holds the corrected composite.
type CorrectResult struct {
	Image *image.RGBA
}

// =============================================================================
// Encode Stage Types
// =============================================================================

// EncodeInput contains the image to compress.
type EncodeInput struct {
	Image   image.Image
	Quality int // JPEG quality 1-100, 0 means DefaultJPEGQuality
}

// EncodeResult contains the compressed image.
type EncodeResult struct {
	Data   []byte
	Width  int
	Height int
}

// =============================================================================
// Run Result
// =============================================================================

// PanoramaResult is the outcome of a successful run.
// It is built once and not modified afterwards.
type PanoramaResult struct {
	SessionID string

	Composite *image.RGBA
	Encoded   []byte // JPEG bytes written to OutputPath

	OutputPath string
	ObjectURL  string // set when the output was mirrored to an object store

	SourcePath     string
	SourceDuration time.Duration
	ProcessingTime time.Duration

	FrameCount    int // frames in the source video
	SampledFrames int
	StitcherName  string
}

// Width returns the composite width.
func (r PanoramaResult) Width() int {
	if r.Composite == nil {
		return 0
	}
	return r.Composite.Bounds().Dx()
}

// Height returns the composite height.
func (r PanoramaResult) Height() int {
	if r.Composite == nil {
		return 0
	}
	return r.Composite.Bounds().Dy()
}
