// Package stitch implements the stitching stage. It hands the sampled frames
// to a ports.Stitcher once and turns the reported status into an outcome.
package stitch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/user/panorama/pkg/pipeline"
	"github.com/user/panorama/pkg/ports"
)

// Stage orchestrates a single stitching call.
type Stage struct {
	stitcher ports.Stitcher
	renderer ports.Renderer
	sink     ports.DebugSink
	logger   ports.Logger
}

// NewStage creates a new stitch stage. renderer is only used for the
// debug overlay and may be nil.
func NewStage(stitcher ports.Stitcher, renderer ports.Renderer, sink ports.DebugSink, logger ports.Logger) *Stage {
	return &Stage{
		stitcher: stitcher,
		renderer: renderer,
		sink:     sink,
		logger:   logger.WithComponent("stitch"),
	}
}

// Execute stitches input.Frames. Stitching problems are returned as a
// failed outcome with a nil error. The error return is reserved for
// cancellation.
func (s *Stage) Execute(ctx context.Context, input pipeline.StitchInput) (pipeline.StitchOutcome, error) {
	if len(input.Frames) < 2 {
		s.logger.Debug("Not enough frames to stitch: %d", len(input.Frames))
		return pipeline.Failure(pipeline.ErrInsufficientFrames), nil
	}

	s.logger.Debug("Stitching %d frames with %s", len(input.Frames), s.stitcher.Name())

	progress := input.OnProgress
	if progress == nil {
		progress = func(done, total int) {}
	}

	res, err := s.stitcher.Stitch(ctx, input.Frames.Images(), progress)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return pipeline.StitchOutcome{}, err
		}
		return pipeline.Failure(&pipeline.StitchError{Status: ports.StitchInternalFailure, Err: err}), nil
	}

	if res.Status != ports.StitchOK {
		s.logger.Debug("Stitcher reported %s", res.Status)
		return pipeline.Failure(&pipeline.StitchError{Status: res.Status}), nil
	}
	if res.Composite == nil {
		return pipeline.Failure(&pipeline.StitchError{
			Status: ports.StitchInternalFailure,
			Err:    errors.New("stitcher returned no composite"),
		}), nil
	}

	outcome := pipeline.Success(pipeline.ToRGBA(res.Composite))
	outcome.Placements = sourcePlacements(res.Placements, input.Frames)

	if s.sink.Enabled() {
		s.saveDebug(outcome)
	}

	return outcome, nil
}

// sourcePlacements rewrites capability-relative indices into source frame
// indices. Entries that point outside frames are dropped.
func sourcePlacements(in []ports.Placement, frames pipeline.FrameSequence) []ports.Placement {
	if len(in) == 0 {
		return nil
	}
	out := make([]ports.Placement, 0, len(in))
	for _, p := range in {
		if p.Index < 0 || p.Index >= len(frames) {
			continue
		}
		p.Index = frames[p.Index].Index
		out = append(out, p)
	}
	return out
}

func (s *Stage) saveDebug(outcome pipeline.StitchOutcome) {
	if err := s.sink.SaveRawComposite(outcome.Composite); err != nil {
		s.logger.Warn("Failed to save raw composite: %v", err)
	}

	if len(outcome.Placements) == 0 {
		return
	}

	data, err := json.MarshalIndent(outcome.Placements, "", "  ")
	if err == nil {
		err = s.sink.SaveAlignmentJSON(data)
	}
	if err != nil {
		s.logger.Warn("Failed to save alignment report: %v", err)
	}

	if s.renderer == nil {
		return
	}
	if err := s.sink.SaveOverlay(Overlay(s.renderer, outcome.Composite, outcome.Placements)); err != nil {
		s.logger.Warn("Failed to save overlay: %v", err)
	}
}

var overlayColor = color.RGBA{R: 255, G: 64, B: 64, A: 255}

// OverlayMaxWidth caps the width of the debug overlay. Wider composites are
// scaled down before the outlines are drawn.
const OverlayMaxWidth = 4096

// Overlay draws each placement's outline and source index on top of img.
func Overlay(renderer ports.Renderer, img image.Image, placements []ports.Placement) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	scale := 1.0
	if w > OverlayMaxWidth {
		scale = float64(OverlayMaxWidth) / float64(w)
		w, h = OverlayMaxWidth, max(1, int(float64(h)*scale+0.5))
		img = renderer.ResizeImage(img, w, h)
	}

	canvas := renderer.CreateCanvas(w, h, color.Black)
	canvas.DrawImage(img, 0, 0)

	style := ports.TextStyle{FontSize: 14, Color: overlayColor, Align: ports.AlignLeft}
	for _, p := range placements {
		r := scaleRect(p.Rect.Sub(b.Min), scale)
		canvas.DrawRectStroke(r.Min.X, r.Min.Y, r.Dx(), r.Dy(), overlayColor, 2)
		canvas.DrawText(fmt.Sprintf("#%d", p.Index), r.Min.X+4, r.Min.Y+16, style)
	}

	return canvas.ToImage()
}

func scaleRect(r image.Rectangle, scale float64) image.Rectangle {
	if scale == 1 {
		return r
	}
	f := func(v int) int { return int(math.Round(float64(v) * scale)) }
	return image.Rect(f(r.Min.X), f(r.Min.Y), f(r.Max.X), f(r.Max.Y))
}

var _ pipeline.Stage[pipeline.StitchInput, pipeline.StitchOutcome] = (*Stage)(nil)
