package shiftstitcher

import (
	"image"
	"math"
	"sync"

	"golang.org/x/image/draw"
)

// pyramid holds luminance levels from full resolution (index 0) down to
// the working width.
type pyramid []*image.Gray

// match is the alignment of a frame relative to its predecessor: the
// predecessor's pixel (x, y) corresponds to (x-offset.X, y-offset.Y).
type match struct {
	offset image.Point
	cost   float64
	ok     bool
}

// luminance returns the BT.601 luma plane of img.
func luminance(img *image.RGBA) *image.Gray {
	b := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		dst := g.Pix[y*g.Stride:]
		for x := 0; x < b.Dx(); x++ {
			r, gr, bl := uint32(src[x*4]), uint32(src[x*4+1]), uint32(src[x*4+2])
			dst[x] = uint8((19595*r + 38470*gr + 7471*bl + 1<<15) >> 16)
		}
	}
	return g
}

// buildPyramid halves full until it is no wider than workWidth. Every
// level is resampled from full with Catmull-Rom.
func buildPyramid(full *image.Gray, workWidth int) pyramid {
	levels := pyramid{full}
	w, h := full.Bounds().Dx(), full.Bounds().Dy()
	for w > workWidth && h > 1 {
		w, h = (w+1)/2, (h+1)/2
		dst := image.NewGray(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), full, full.Bounds(), draw.Src, nil)
		levels = append(levels, dst)
	}
	return levels
}

// align finds the offset of b relative to a: an exhaustive search at the
// coarsest level, then a local refinement at every level down to full
// resolution.
func (s *Stitcher) align(a, b pyramid) match {
	top := len(a) - 1
	best, ok := s.search(a[top], b[top])
	if !ok {
		return match{}
	}

	for lvl := top; lvl >= 0; lvl-- {
		guess := best.offset
		if lvl < top {
			fx := float64(a[lvl].Bounds().Dx()) / float64(a[lvl+1].Bounds().Dx())
			fy := float64(a[lvl].Bounds().Dy()) / float64(a[lvl+1].Bounds().Dy())
			guess = image.Pt(int(math.Round(float64(guess.X)*fx)), int(math.Round(float64(guess.Y)*fy)))
		}
		if refined, ok := s.refine(a[lvl], b[lvl], guess); ok {
			best = refined
		} else {
			best = match{offset: guess, cost: math.Inf(1), ok: true}
		}
	}
	return best
}

// search evaluates every offset with enough overlap. Rows of candidates
// are spread over the worker pool and reduced in a fixed order.
func (s *Stitcher) search(a, b *image.Gray) (match, bool) {
	w, h := a.Bounds().Dx(), a.Bounds().Dy()
	minArea := s.opts.MinOverlap * float64(w*h)

	step := 1
	if w > 64 {
		step = 2
	}

	rows := 2*h - 1
	results := make([]match, rows)

	jobs := make(chan int, rows)
	for i := 0; i < rows; i++ {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for n := 0; n < min(s.opts.Workers, rows); n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				dy := i - (h - 1)
				var best match
				for dx := -(w - 1); dx <= w-1; dx++ {
					if float64((w-abs(dx))*(h-abs(dy))) < minArea {
						continue
					}
					c := cost(a, b, dx, dy, step)
					if cand := (match{offset: image.Pt(dx, dy), cost: c, ok: true}); better(cand, best) {
						best = cand
					}
				}
				results[i] = best
			}
		}()
	}
	wg.Wait()

	var best match
	for _, r := range results {
		if r.ok && better(r, best) {
			best = r
		}
	}
	return best, best.ok
}

// refine searches a square window around guess at full precision.
func (s *Stitcher) refine(a, b *image.Gray, guess image.Point) (match, bool) {
	w, h := a.Bounds().Dx(), a.Bounds().Dy()
	minArea := s.opts.MinOverlap * float64(w*h)
	r := s.opts.RefineRadius

	var best match
	for dy := guess.Y - r; dy <= guess.Y+r; dy++ {
		for dx := guess.X - r; dx <= guess.X+r; dx++ {
			if abs(dx) >= w || abs(dy) >= h {
				continue
			}
			if float64((w-abs(dx))*(h-abs(dy))) < minArea {
				continue
			}
			cand := match{offset: image.Pt(dx, dy), cost: cost(a, b, dx, dy, 1), ok: true}
			if better(cand, best) {
				best = cand
			}
		}
	}
	return best, best.ok
}

// better orders candidates by cost, then by the smaller displacement,
// then by dy and dx so the result never depends on visiting order.
func better(cand, cur match) bool {
	if !cur.ok {
		return true
	}
	if cand.cost != cur.cost {
		return cand.cost < cur.cost
	}
	cm := abs(cand.offset.X) + abs(cand.offset.Y)
	bm := abs(cur.offset.X) + abs(cur.offset.Y)
	if cm != bm {
		return cm < bm
	}
	if cand.offset.Y != cur.offset.Y {
		return cand.offset.Y < cur.offset.Y
	}
	return cand.offset.X < cur.offset.X
}

// cost is the mean absolute difference over the overlap of a and b with b
// shifted by (dx, dy), sampling every step pixels.
func cost(a, b *image.Gray, dx, dy, step int) float64 {
	w, h := a.Bounds().Dx(), a.Bounds().Dy()
	x0, x1 := max(0, dx), min(w, w+dx)
	y0, y1 := max(0, dy), min(h, h+dy)

	var sum, n int
	for y := y0; y < y1; y += step {
		ra := a.Pix[y*a.Stride:]
		rb := b.Pix[(y-dy)*b.Stride:]
		for x := x0; x < x1; x += step {
			d := int(ra[x]) - int(rb[x-dx])
			if d < 0 {
				d = -d
			}
			sum += d
			n++
		}
	}
	if n == 0 {
		return math.Inf(1)
	}
	return float64(sum) / float64(n)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
