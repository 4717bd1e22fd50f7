//go:build gocv

package opencv

import (
	"context"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/user/panorama/pkg/ports"
)

const available = true

// capture wraps a VideoCapture. gocv handles are not safe for concurrent
// use, so every call holds mu.
type capture struct {
	mu   sync.Mutex
	vc   *gocv.VideoCapture
	info ports.VideoInfo
}

func openCapture(path string) (*capture, error) {
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenFailed, path, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: %s", ErrOpenFailed, path)
	}

	info := ports.VideoInfo{
		FrameCount: int(vc.Get(gocv.VideoCaptureFrameCount)),
		FrameRate:  vc.Get(gocv.VideoCaptureFPS),
		Width:      int(vc.Get(gocv.VideoCaptureFrameWidth)),
		Height:     int(vc.Get(gocv.VideoCaptureFrameHeight)),
		Codec:      vc.CodecString(),
	}
	return &capture{vc: vc, info: info}, nil
}

func (c *capture) Info() ports.VideoInfo {
	return c.info
}

func (c *capture) ReadFrame(ctx context.Context, index int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.vc.Set(gocv.VideoCapturePosFrames, float64(index))

	mat := gocv.NewMat()
	defer mat.Close()
	if ok := c.vc.Read(&mat); !ok || mat.Empty() {
		return nil, fmt.Errorf("%w: index %d", ErrReadFailed, index)
	}

	return mat.ToImage()
}

func (c *capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vc.Close()
}

func stitch(mode Mode, images []image.Image) (ports.StitchResult, error) {
	mats := make([]gocv.Mat, 0, len(images))
	defer func() {
		for _, m := range mats {
			m.Close()
		}
	}()
	for i, img := range images {
		m, err := gocv.ImageToMatRGB(img)
		if err != nil {
			return ports.StitchResult{}, fmt.Errorf("convert image %d: %w", i, err)
		}
		mats = append(mats, m)
	}

	cvMode := gocv.StitcherPanorama
	if mode == ModeScans {
		cvMode = gocv.StitcherScans
	}
	st := gocv.NewStitcher(cvMode)
	defer st.Close()

	pano := gocv.NewMat()
	defer pano.Close()

	status := ports.StitchStatus(st.Stitch(mats, &pano))
	if status != ports.StitchOK {
		return ports.StitchResult{Status: status}, nil
	}

	out, err := pano.ToImage()
	if err != nil {
		return ports.StitchResult{}, fmt.Errorf("convert panorama: %w", err)
	}
	return ports.StitchResult{Status: ports.StitchOK, Composite: out}, nil
}
