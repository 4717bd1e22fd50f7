package shiftstitcher

import (
	"context"
	"image"
	"math"
	"sync"

	"github.com/user/panorama/pkg/ports"
)

// blend composites the placed frames onto canvas. Every pixel is the
// average of the frames covering it, weighted by the distance to the
// nearest frame edge. Uncovered pixels are opaque black.
func blend(ctx context.Context, frames []*image.RGBA, placements []ports.Placement, canvas image.Rectangle, workers int) (*image.RGBA, error) {
	out := image.NewRGBA(image.Rect(0, 0, canvas.Dx(), canvas.Dy()))
	height := canvas.Dy()

	jobs := make(chan int, height)
	for y := 0; y < height; y++ {
		jobs <- y
	}
	close(jobs)

	var wg sync.WaitGroup
	for n := 0; n < min(workers, height); n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			acc := make([]float64, canvas.Dx()*4)
			for y := range jobs {
				if ctx.Err() != nil {
					return
				}
				blendRow(out, acc, frames, placements, canvas, y)
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// blendRow fills row y of out. acc holds r, g, b and weight per pixel.
func blendRow(out *image.RGBA, acc []float64, frames []*image.RGBA, placements []ports.Placement, canvas image.Rectangle, y int) {
	clear(acc)
	cy := canvas.Min.Y + y

	for _, p := range placements {
		r := p.Rect
		if cy < r.Min.Y || cy >= r.Max.Y {
			continue
		}
		frame := frames[p.Index]
		fy := cy - r.Min.Y
		wy := min(fy+1, r.Dy()-fy)
		src := frame.Pix[fy*frame.Stride:]

		for fx := 0; fx < r.Dx(); fx++ {
			weight := float64(min(wy, fx+1, r.Dx()-fx))
			i := (r.Min.X - canvas.Min.X + fx) * 4
			acc[i] += weight * float64(src[fx*4])
			acc[i+1] += weight * float64(src[fx*4+1])
			acc[i+2] += weight * float64(src[fx*4+2])
			acc[i+3] += weight
		}
	}

	row := out.Pix[y*out.Stride:]
	for x := 0; x < canvas.Dx(); x++ {
		i := x * 4
		row[i+3] = 0xff
		if acc[i+3] == 0 {
			continue
		}
		row[i] = uint8(math.Round(acc[i] / acc[i+3]))
		row[i+1] = uint8(math.Round(acc[i+1] / acc[i+3]))
		row[i+2] = uint8(math.Round(acc[i+2] / acc[i+3]))
	}
}
