// Package sample implements the frame sampling stage.
package sample

import (
	"context"
	"fmt"

	"github.com/user/panorama/pkg/pipeline"
	"github.com/user/panorama/pkg/ports"
)

// Stage pulls every Nth frame out of a video.
type Stage struct {
	opener ports.VideoOpener
	sink   ports.DebugSink
	logger ports.Logger
}

// NewStage creates a new sample stage.
func NewStage(opener ports.VideoOpener, sink ports.DebugSink, logger ports.Logger) *Stage {
	return &Stage{
		opener: opener,
		sink:   sink,
		logger: logger.WithComponent("sample"),
	}
}

// Indices returns the frame indices visited for a video of frameCount
// frames: 0, stride, 2*stride, ... below frameCount.
func Indices(frameCount, stride int) []int {
	if stride <= 0 {
		stride = pipeline.DefaultStride
	}
	if frameCount <= 0 {
		return nil
	}
	out := make([]int, 0, (frameCount+stride-1)/stride)
	for i := 0; i < frameCount; i += stride {
		out = append(out, i)
	}
	return out
}

// Execute samples the video at input.Path. Sampling stops after
// input.MaxFrames frames when it is positive. Frames that fail to decode
// are skipped. Returning fewer than two frames is not an error.
func (s *Stage) Execute(ctx context.Context, input pipeline.SampleInput) (pipeline.SampleResult, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.SampleResult{}, err
	}

	src, err := s.opener.Open(ctx, input.Path)
	if err != nil {
		return pipeline.SampleResult{}, fmt.Errorf("%w: %s: %w", pipeline.ErrSourceUnreadable, input.Path, err)
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			s.logger.Warn("Failed to close video source: %v", cerr)
		}
	}()

	info := src.Info()
	indices := Indices(info.FrameCount, input.Stride)
	s.logger.Debug("Sampling up to %d of %d frames", len(indices), info.FrameCount)

	frames := make(pipeline.FrameSequence, 0, len(indices))
	for _, idx := range indices {
		if input.MaxFrames > 0 && len(frames) >= input.MaxFrames {
			s.logger.Debug("Reached frame limit %d", input.MaxFrames)
			break
		}
		if err := ctx.Err(); err != nil {
			return pipeline.SampleResult{}, err
		}

		img, err := src.ReadFrame(ctx, idx)
		if err != nil {
			if ctx.Err() != nil {
				return pipeline.SampleResult{}, ctx.Err()
			}
			s.logger.Debug("Skipping frame %d: %v", idx, err)
			continue
		}

		frame := pipeline.Frame{Index: idx, Image: pipeline.ToRGBA(img)}
		frames = append(frames, frame)

		if s.sink.Enabled() {
			if err := s.sink.SaveSampledFrame(idx, frame.Image); err != nil {
				s.logger.Warn("Failed to save debug frame %d: %v", idx, err)
			}
		}
	}

	s.logger.Debug("Sampled %d frames: %v", len(frames), frames.Indices())

	return pipeline.SampleResult{Frames: frames, Info: info}, nil
}

var _ pipeline.Stage[pipeline.SampleInput, pipeline.SampleResult] = (*Stage)(nil)
