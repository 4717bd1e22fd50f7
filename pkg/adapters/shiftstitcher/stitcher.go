// Package shiftstitcher is a translation-only stitcher for footage from a
// panning camera. Consecutive frames are aligned by an exhaustive search of
// integer offsets on a downscaled copy, refined level by level up to full
// resolution, and blended with edge feathering.
//
// It does not estimate rotation, perspective or lens distortion.
package shiftstitcher

import (
	"context"
	"image"
	"image/draw"
	"runtime"

	"github.com/user/panorama/pkg/ports"
)

// Options tunes the stitcher. Zero values select the defaults.
type Options struct {
	// WorkWidth is the width of the coarsest level searched exhaustively.
	WorkWidth int

	// MinOverlap is the smallest overlap area accepted, as a fraction of
	// the frame area.
	MinOverlap float64

	// MaxCost is the largest mean absolute luminance difference (0-255)
	// for a pair to count as matched.
	MaxCost float64

	// RefineRadius is the search radius used at each finer level.
	RefineRadius int

	// MaxCanvasPixels bounds the composite size.
	MaxCanvasPixels int

	// Workers is the size of the worker pool. Defaults to runtime.NumCPU().
	Workers int
}

const (
	DefaultWorkWidth       = 160
	DefaultMinOverlap      = 0.3
	DefaultMaxCost         = 30
	DefaultRefineRadius    = 2
	DefaultMaxCanvasPixels = 100_000_000
)

func (o Options) withDefaults() Options {
	if o.WorkWidth <= 0 {
		o.WorkWidth = DefaultWorkWidth
	}
	if o.MinOverlap <= 0 || o.MinOverlap > 1 {
		o.MinOverlap = DefaultMinOverlap
	}
	if o.MaxCost <= 0 {
		o.MaxCost = DefaultMaxCost
	}
	if o.RefineRadius <= 0 {
		o.RefineRadius = DefaultRefineRadius
	}
	if o.MaxCanvasPixels <= 0 {
		o.MaxCanvasPixels = DefaultMaxCanvasPixels
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	return o
}

// Stitcher implements ports.Stitcher. It holds no per-call state.
type Stitcher struct {
	opts Options
}

// New creates a Stitcher.
func New(opts Options) *Stitcher {
	return &Stitcher{opts: opts.withDefaults()}
}

func (s *Stitcher) Name() string {
	return "shift"
}

// Stitch aligns and blends images. progress is called once per
// consecutive pair.
func (s *Stitcher) Stitch(ctx context.Context, images []image.Image, progress ports.StitchProgressFunc) (ports.StitchResult, error) {
	if len(images) < 2 {
		return ports.StitchResult{Status: ports.StitchNeedMoreImages}, nil
	}

	size := images[0].Bounds().Size()
	for _, img := range images[1:] {
		if img.Bounds().Size() != size {
			return ports.StitchResult{Status: ports.StitchCameraParamsAdjustFail}, nil
		}
	}
	if size.X == 0 || size.Y == 0 {
		return ports.StitchResult{Status: ports.StitchNeedMoreImages}, nil
	}

	frames := make([]*image.RGBA, len(images))
	pyramids := make([]pyramid, len(images))
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return ports.StitchResult{}, err
		}
		frames[i] = asRGBA(img)
		pyramids[i] = buildPyramid(luminance(frames[i]), s.opts.WorkWidth)
	}

	pairs := make([]match, len(images)-1)
	for i := range pairs {
		if err := ctx.Err(); err != nil {
			return ports.StitchResult{}, err
		}
		pairs[i] = s.align(pyramids[i], pyramids[i+1])
		if progress != nil {
			progress(i+1, len(pairs))
		}
	}

	first, last := longestRun(pairs, s.opts.MaxCost)
	if last <= first {
		return ports.StitchResult{Status: ports.StitchHomographyEstFail}, nil
	}

	placements := place(size, pairs, first, last)
	canvas := bounds(placements)
	if int64(canvas.Dx())*int64(canvas.Dy()) > int64(s.opts.MaxCanvasPixels) {
		return ports.StitchResult{Status: ports.StitchCameraParamsAdjustFail}, nil
	}

	composite, err := blend(ctx, frames, placements, canvas, s.opts.Workers)
	if err != nil {
		return ports.StitchResult{}, err
	}

	for i := range placements {
		placements[i].Rect = placements[i].Rect.Sub(canvas.Min)
	}

	return ports.StitchResult{
		Status:     ports.StitchOK,
		Composite:  composite,
		Placements: placements,
	}, nil
}

// longestRun returns the first and last frame of the longest chain of
// consecutively matched pairs. The earliest chain wins ties.
func longestRun(pairs []match, maxCost float64) (first, last int) {
	bestLen, start := 0, -1
	for i, p := range pairs {
		if !p.ok || p.cost > maxCost {
			start = -1
			continue
		}
		if start < 0 {
			start = i
		}
		if n := i - start + 1; n > bestLen {
			bestLen, first, last = n, start, i+1
		}
	}
	return first, last
}

// place positions frames first..last by accumulating pair offsets.
func place(size image.Point, pairs []match, first, last int) []ports.Placement {
	out := make([]ports.Placement, 0, last-first+1)
	pos := image.Point{}
	out = append(out, ports.Placement{Index: first, Rect: image.Rectangle{Max: size}})
	for i := first; i < last; i++ {
		pos = pos.Add(pairs[i].offset)
		out = append(out, ports.Placement{
			Index: i + 1,
			Rect:  image.Rectangle{Min: pos, Max: pos.Add(size)},
			Cost:  pairs[i].cost,
		})
	}
	return out
}

func bounds(placements []ports.Placement) image.Rectangle {
	r := placements[0].Rect
	for _, p := range placements[1:] {
		r = r.Union(p.Rect)
	}
	return r
}

// asRGBA returns img as an RGBA image anchored at the origin.
func asRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

var _ ports.Stitcher = (*Stitcher)(nil)
