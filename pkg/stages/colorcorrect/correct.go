package colorcorrect

import (
	"image"
	"runtime"
	"sync"
)

// bandRows is the height of one unit of work.
const bandRows = 32

// Stats describes the V channel of an image before and after equalisation.
type Stats struct {
	MeanV          float64
	MeanEqualizedV float64
}

// Correct equalises the brightness of composite. The composite is moved to
// HSV, its V channel is histogram-equalised, and the result is converted
// back with the original hue and saturation. The reference's V channel is
// equalised as well but does not contribute to the output.
//
// Correct is deterministic and does not modify its inputs. The output has
// the dimensions of composite and is anchored at the origin. workers <= 0
// uses one worker per CPU.
func Correct(composite, reference *image.RGBA, workers int) *image.RGBA {
	out, _ := correct(composite, reference, workers)
	return out
}

// correctGo is the pure Go rendition of the correction. Its HSV conversions
// round exactly like OpenCV's 8-bit ones, so it produces the same bytes as
// the gocv build.
func correctGo(composite, reference *image.RGBA, workers int) (*image.RGBA, Stats) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	planes := toHSV(composite, workers)
	lut := equalizeLUT(&planes.hist)

	var stats Stats
	if reference != nil {
		stats = referenceStatsGo(reference, workers)
	}

	w, h := planes.width, planes.height
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	forEachBand(h, workers, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			row := out.Pix[y*out.Stride : y*out.Stride+w*4]
			for x := 0; x < w; x++ {
				i := y*w + x
				r, g, b := hsvToRGB(planes.h[i], planes.s[i], lut[planes.v[i]])
				row[x*4], row[x*4+1], row[x*4+2], row[x*4+3] = r, g, b, 0xff
			}
		}
	})

	return out, stats
}

func referenceStatsGo(reference *image.RGBA, workers int) Stats {
	ref := toHSV(reference, workers)
	return Stats{MeanV: mean(ref.v), MeanEqualizedV: mean(equalize(ref.v))}
}

// hsvPlanes holds the three channels of an image as separate planes plus
// the histogram of V.
type hsvPlanes struct {
	width, height int
	h, s, v       []uint8
	hist          histogram
}

func toHSV(img *image.RGBA, workers int) *hsvPlanes {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	p := &hsvPlanes{
		width:  w,
		height: h,
		h:      make([]uint8, w*h),
		s:      make([]uint8, w*h),
		v:      make([]uint8, w*h),
	}

	var mu sync.Mutex
	forEachBand(h, workers, func(y0, y1 int) {
		var local histogram
		for y := y0; y < y1; y++ {
			off := img.PixOffset(b.Min.X, b.Min.Y+y)
			row := img.Pix[off : off+w*4]
			for x := 0; x < w; x++ {
				i := y*w + x
				hv, sv, vv := rgbToHSV(row[x*4], row[x*4+1], row[x*4+2])
				p.h[i], p.s[i], p.v[i] = hv, sv, vv
				local[vv]++
			}
		}
		mu.Lock()
		p.hist.add(&local)
		mu.Unlock()
	})

	return p
}

// forEachBand splits rows [0, height) into bands and runs fn on a pool of
// workers. It returns when every band is done. Bands never overlap.
func forEachBand(height, workers int, fn func(y0, y1 int)) {
	if height <= 0 {
		return
	}
	bands := (height + bandRows - 1) / bandRows
	if workers > bands {
		workers = bands
	}

	jobs := make(chan int, bands)
	for i := 0; i < bands; i++ {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for band := range jobs {
				y0 := band * bandRows
				fn(y0, min(y0+bandRows, height))
			}
		}()
	}
	wg.Wait()
}
