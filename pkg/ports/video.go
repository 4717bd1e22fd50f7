package ports

import (
	"context"
	"image"
	"time"
)

// VideoInfo describes a video stream as reported by a probe.
type VideoInfo struct {
	FrameCount int
	FrameRate  float64
	Width      int
	Height     int
	Codec      string
}

// Duration returns FrameCount / FrameRate, or zero when the rate is unknown.
func (v VideoInfo) Duration() time.Duration {
	if v.FrameRate <= 0 || v.FrameCount <= 0 {
		return 0
	}
	return time.Duration(float64(v.FrameCount) / v.FrameRate * float64(time.Second))
}

// VideoSource is an opened video that supports random frame access.
// A source is used by one sampling pass at a time.
type VideoSource interface {
	// Info returns the stream attributes.
	Info() VideoInfo

	// ReadFrame seeks to the zero-based frame index and decodes that frame.
	ReadFrame(ctx context.Context, index int) (image.Image, error)

	// Close releases the underlying handle.
	Close() error
}

// VideoOpener opens and probes video files.
type VideoOpener interface {
	// Probe reads stream attributes without keeping the file open.
	Probe(ctx context.Context, path string) (VideoInfo, error)

	// Open returns a VideoSource for path. The caller must Close it.
	Open(ctx context.Context, path string) (VideoSource, error)
}
