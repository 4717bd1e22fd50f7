package mocks

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/user/panorama/pkg/ports"
)

// Video is a synthetic ports.VideoOpener. Every Open returns a source over
// the same frames.
type Video struct {
	mu sync.Mutex

	Meta ports.VideoInfo

	// FrameFunc renders frame index. Defaults to a solid gray frame.
	FrameFunc func(index int) image.Image

	ProbeErr error
	OpenErr  error
	ReadErrs map[int]error

	opened int
	closed int
	reads  []int
}

// NewVideo creates a 64x48 synthetic video.
func NewVideo(frameCount int, fps float64) *Video {
	return &Video{
		Meta: ports.VideoInfo{
			FrameCount: frameCount,
			FrameRate:  fps,
			Width:      64,
			Height:     48,
			Codec:      "synthetic",
		},
		ReadErrs: make(map[int]error),
	}
}

func (v *Video) Probe(ctx context.Context, path string) (ports.VideoInfo, error) {
	if v.ProbeErr != nil {
		return ports.VideoInfo{}, v.ProbeErr
	}
	return v.Meta, nil
}

func (v *Video) Open(ctx context.Context, path string) (ports.VideoSource, error) {
	if v.OpenErr != nil {
		return nil, v.OpenErr
	}
	v.mu.Lock()
	v.opened++
	v.mu.Unlock()
	return &videoSource{video: v}, nil
}

// Reads returns the frame indices read so far, in order.
func (v *Video) Reads() []int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]int(nil), v.reads...)
}

// Opened returns how many sources were opened.
func (v *Video) Opened() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.opened
}

// Closed returns how many sources were closed.
func (v *Video) Closed() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

func (v *Video) frame(index int) image.Image {
	if v.FrameFunc != nil {
		return v.FrameFunc(index)
	}
	img := image.NewRGBA(image.Rect(0, 0, v.Meta.Width, v.Meta.Height))
	fill := color.RGBA{R: 90, G: 120, B: 150, A: 255}
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = fill.R, fill.G, fill.B, fill.A
	}
	return img
}

type videoSource struct {
	video *Video
}

func (s *videoSource) Info() ports.VideoInfo {
	return s.video.Meta
}

func (s *videoSource) ReadFrame(ctx context.Context, index int) (image.Image, error) {
	v := s.video
	v.mu.Lock()
	v.reads = append(v.reads, index)
	err := v.ReadErrs[index]
	v.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if index < 0 || index >= v.Meta.FrameCount {
		return nil, fmt.Errorf("frame %d out of range", index)
	}
	return v.frame(index), nil
}

func (s *videoSource) Close() error {
	s.video.mu.Lock()
	defer s.video.mu.Unlock()
	s.video.closed++
	return nil
}

var _ ports.VideoOpener = (*Video)(nil)
