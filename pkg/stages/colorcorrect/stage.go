// Package colorcorrect implements the post-stitch colour correction stage.
package colorcorrect

import (
	"context"
	"errors"
	"runtime"

	"github.com/user/panorama/pkg/pipeline"
	"github.com/user/panorama/pkg/ports"
)

// ErrNoComposite is returned when the stage is given nothing to correct.
var ErrNoComposite = errors.New("colorcorrect: no composite")

// Stage applies Correct to a stitched composite.
type Stage struct {
	logger     ports.Logger
	numWorkers int
}

// NewStage creates a new colour correction stage.
func NewStage(logger ports.Logger, numWorkers int) *Stage {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &Stage{
		logger:     logger.WithComponent("colorcorrect"),
		numWorkers: numWorkers,
	}
}

// Execute corrects input.Composite using input.Reference.
func (s *Stage) Execute(ctx context.Context, input pipeline.CorrectInput) (pipeline.CorrectResult, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.CorrectResult{}, err
	}
	if input.Composite == nil {
		return pipeline.CorrectResult{}, ErrNoComposite
	}

	b := input.Composite.Bounds()
	s.logger.Debug("Correcting %dx%d composite with %d workers", b.Dx(), b.Dy(), s.numWorkers)

	out, stats := correct(input.Composite, input.Reference, s.numWorkers)
	if input.Reference != nil {
		s.logger.Debug("Reference brightness: mean V %.1f, equalized %.1f", stats.MeanV, stats.MeanEqualizedV)
	}

	return pipeline.CorrectResult{Image: out}, nil
}

var _ pipeline.Stage[pipeline.CorrectInput, pipeline.CorrectResult] = (*Stage)(nil)
