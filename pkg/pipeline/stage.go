// Package pipeline defines the stage contract and the data that flows
// between the panorama stages.
package pipeline

import (
	"context"
)

// Stage is one step of the panorama pipeline.
type Stage[In, Out any] interface {
	// Execute runs the stage. Implementations check ctx before doing
	// expensive work and return ctx.Err() when it is done.
	Execute(ctx context.Context, input In) (Out, error)
}

// StageFunc adapts a plain function to the Stage interface.
type StageFunc[In, Out any] func(ctx context.Context, input In) (Out, error)

// Execute calls f.
func (f StageFunc[In, Out]) Execute(ctx context.Context, input In) (Out, error) {
	return f(ctx, input)
}
