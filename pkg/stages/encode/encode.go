// Package encode implements the output encoding stage.
package encode

import (
	"context"
	"errors"
	"fmt"

	"github.com/user/panorama/pkg/pipeline"
	"github.com/user/panorama/pkg/ports"
)

// ErrNoImage is returned when there is nothing to encode.
var ErrNoImage = errors.New("encode: no image")

// Stage compresses the final composite to JPEG.
type Stage struct {
	renderer ports.Renderer
	logger   ports.Logger
}

// NewStage creates a new encode stage.
func NewStage(renderer ports.Renderer, logger ports.Logger) *Stage {
	return &Stage{
		renderer: renderer,
		logger:   logger.WithComponent("encode"),
	}
}

// Execute encodes input.Image.
func (s *Stage) Execute(ctx context.Context, input pipeline.EncodeInput) (pipeline.EncodeResult, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.EncodeResult{}, err
	}
	if input.Image == nil {
		return pipeline.EncodeResult{}, ErrNoImage
	}

	quality := input.Quality
	if quality <= 0 {
		quality = pipeline.DefaultJPEGQuality
	}

	data, err := s.renderer.EncodeImage(input.Image, ports.FormatJPEG, quality)
	if err != nil {
		return pipeline.EncodeResult{}, fmt.Errorf("encode jpeg: %w", err)
	}

	b := input.Image.Bounds()
	s.logger.Debug("Encoded %dx%d image: %d bytes", b.Dx(), b.Dy(), len(data))

	return pipeline.EncodeResult{Data: data, Width: b.Dx(), Height: b.Dy()}, nil
}

var _ pipeline.Stage[pipeline.EncodeInput, pipeline.EncodeResult] = (*Stage)(nil)
