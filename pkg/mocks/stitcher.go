package mocks

import (
	"context"
	"image"
	"image/draw"
	"sync"

	"github.com/user/panorama/pkg/ports"
)

// Stitcher is a ports.Stitcher that records its calls. Without StitchFunc
// it succeeds by laying the images side by side.
type Stitcher struct {
	mu     sync.Mutex
	calls  int
	inputs [][]image.Image

	StitchFunc func(ctx context.Context, images []image.Image, progress ports.StitchProgressFunc) (ports.StitchResult, error)
}

// NewFailingStitcher returns a Stitcher that always reports status.
func NewFailingStitcher(status ports.StitchStatus) *Stitcher {
	return &Stitcher{
		StitchFunc: func(ctx context.Context, images []image.Image, progress ports.StitchProgressFunc) (ports.StitchResult, error) {
			return ports.StitchResult{Status: status}, nil
		},
	}
}

func (m *Stitcher) Name() string {
	return "mock"
}

func (m *Stitcher) Stitch(ctx context.Context, images []image.Image, progress ports.StitchProgressFunc) (ports.StitchResult, error) {
	m.mu.Lock()
	m.calls++
	m.inputs = append(m.inputs, images)
	m.mu.Unlock()

	if m.StitchFunc != nil {
		return m.StitchFunc(ctx, images, progress)
	}
	return SideBySide(images), nil
}

// Calls returns how many times Stitch was invoked.
func (m *Stitcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastInput returns the images given to the latest call.
func (m *Stitcher) LastInput() []image.Image {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.inputs) == 0 {
		return nil
	}
	return m.inputs[len(m.inputs)-1]
}

// SideBySide places images left to right on one canvas.
func SideBySide(images []image.Image) ports.StitchResult {
	width, height := 0, 0
	for _, img := range images {
		width += img.Bounds().Dx()
		if h := img.Bounds().Dy(); h > height {
			height = h
		}
	}

	out := image.NewRGBA(image.Rect(0, 0, width, height))
	placements := make([]ports.Placement, 0, len(images))
	x := 0
	for i, img := range images {
		b := img.Bounds()
		r := image.Rect(x, 0, x+b.Dx(), b.Dy())
		draw.Draw(out, r, img, b.Min, draw.Src)
		placements = append(placements, ports.Placement{Index: i, Rect: r})
		x += b.Dx()
	}

	return ports.StitchResult{Status: ports.StitchOK, Composite: out, Placements: placements}
}

var _ ports.Stitcher = (*Stitcher)(nil)
