//go:build !gocv

package opencv

import (
	"context"
	"image"

	"github.com/user/panorama/pkg/ports"
)

const available = false

type capture struct{}

func openCapture(path string) (*capture, error) {
	return nil, ErrNotBuilt
}

func (c *capture) Info() ports.VideoInfo {
	return ports.VideoInfo{}
}

func (c *capture) ReadFrame(ctx context.Context, index int) (image.Image, error) {
	return nil, ErrNotBuilt
}

func (c *capture) Close() error {
	return nil
}

func stitch(mode Mode, images []image.Image) (ports.StitchResult, error) {
	return ports.StitchResult{}, ErrNotBuilt
}
