// Package ffmpegsource reads video frames through the ffmpeg command line
// tools. MP4 family containers are probed in-process.
package ffmpegsource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strconv"

	"github.com/user/panorama/pkg/adapters/mp4probe"
	"github.com/user/panorama/pkg/ports"
)

// ErrFrameUnavailable is returned when ffmpeg produced no image for an index.
var ErrFrameUnavailable = errors.New("ffmpegsource: frame unavailable")

// Opener opens videos for frame-accurate reads.
type Opener struct {
	logger ports.Logger
}

// New creates an Opener.
func New(logger ports.Logger) *Opener {
	return &Opener{logger: logger.WithComponent("ffmpeg")}
}

// Probe returns stream information for path.
func (o *Opener) Probe(ctx context.Context, path string) (ports.VideoInfo, error) {
	if mp4probe.Supports(path) {
		info, err := mp4probe.ProbeFile(path)
		if err == nil {
			return info, nil
		}
		o.logger.Debug("MP4 probe failed, falling back to ffprobe: %v", err)
	}
	return ffprobe(ctx, path)
}

// Open probes path and returns a source reading from it.
func (o *Opener) Open(ctx context.Context, path string) (ports.VideoSource, error) {
	bin, err := findFFmpeg()
	if err != nil {
		return nil, err
	}
	info, err := o.Probe(ctx, path)
	if err != nil {
		return nil, err
	}
	if info.FrameCount <= 0 {
		return nil, fmt.Errorf("%s: no frames", path)
	}
	return &source{ffmpeg: bin, path: path, info: info}, nil
}

type source struct {
	ffmpeg string
	path   string
	info   ports.VideoInfo
}

func (s *source) Info() ports.VideoInfo {
	return s.info
}

// ReadFrame decodes frame index. With a known frame rate ffmpeg seeks to
// the frame's timestamp before opening the input, so each read only decodes
// from the nearest keyframe.
func (s *source) ReadFrame(ctx context.Context, index int) (image.Image, error) {
	if index < 0 || index >= s.info.FrameCount {
		return nil, fmt.Errorf("%w: index %d out of range", ErrFrameUnavailable, index)
	}

	out, err := run(ctx, s.ffmpeg, frameArgs(s.path, index, s.info.FrameRate))
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: index %d", ErrFrameUnavailable, index)
	}

	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("decode png: %w", err)
	}
	return img, nil
}

func (s *source) Close() error {
	return nil
}

// frameArgs builds the ffmpeg arguments for one frame. The seek target sits
// half a frame before the frame's timestamp so rounding cannot skip it.
// Without a frame rate the frame is picked by number with a select filter.
func frameArgs(path string, index int, fps float64) []string {
	args := []string{"-v", "error"}
	switch {
	case fps <= 0:
		args = append(args, "-i", path, "-vf", `select=eq(n\,`+strconv.Itoa(index)+`)`, "-vsync", "0")
	case index == 0:
		args = append(args, "-i", path)
	default:
		seek := (float64(index) - 0.5) / fps
		args = append(args, "-ss", strconv.FormatFloat(seek, 'f', 6, 64), "-i", path)
	}
	return append(args,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)
}

var _ ports.VideoOpener = (*Opener)(nil)
