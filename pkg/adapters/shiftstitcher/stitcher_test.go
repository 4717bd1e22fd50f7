package shiftstitcher

import (
	"context"
	"image"
	"image/color"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/panorama/pkg/ports"
)

// scene renders a smooth random texture: bilinear value noise on a coarse
// grid, so it survives downscaling.
func scene(w, h int, seed int64) *image.RGBA {
	const cell = 8
	rng := rand.New(rand.NewSource(seed))
	gw, gh := w/cell+2, h/cell+2
	grid := make([][3]float64, gw*gh)
	for i := range grid {
		grid[i] = [3]float64{rng.Float64() * 255, rng.Float64() * 255, rng.Float64() * 255}
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx, gy := float64(x)/cell, float64(y)/cell
			x0, y0 := int(gx), int(gy)
			tx, ty := gx-float64(x0), gy-float64(y0)
			var c [3]float64
			for k := 0; k < 3; k++ {
				a := grid[y0*gw+x0][k]*(1-tx) + grid[y0*gw+x0+1][k]*tx
				b := grid[(y0+1)*gw+x0][k]*(1-tx) + grid[(y0+1)*gw+x0+1][k]*tx
				c[k] = a*(1-ty) + b*ty
			}
			img.SetRGBA(x, y, color.RGBA{R: uint8(math.Round(c[0])), G: uint8(math.Round(c[1])), B: uint8(math.Round(c[2])), A: 255})
		}
	}
	return img
}

func crop(img *image.RGBA, r image.Rectangle) image.Image {
	return img.SubImage(r)
}

func testOptions() Options {
	return Options{WorkWidth: 32, MaxCost: 10, Workers: 3}
}

func TestStitch_RecoversHorizontalShift(t *testing.T) {
	src := scene(200, 100, 1)
	images := []image.Image{
		crop(src, image.Rect(0, 0, 120, 100)),
		crop(src, image.Rect(40, 0, 160, 100)),
	}

	res, err := New(testOptions()).Stitch(context.Background(), images, nil)
	require.NoError(t, err)
	require.Equal(t, ports.StitchOK, res.Status)

	require.Len(t, res.Placements, 2)
	assert.Equal(t, image.Rect(0, 0, 120, 100), res.Placements[0].Rect)
	assert.Equal(t, image.Rect(40, 0, 160, 100), res.Placements[1].Rect)
	assert.Zero(t, res.Placements[1].Cost)

	composite := res.Composite.(*image.RGBA)
	assert.Equal(t, image.Rect(0, 0, 160, 100), composite.Bounds())
	for y := 0; y < 100; y += 7 {
		for x := 0; x < 160; x += 5 {
			require.Equal(t, src.RGBAAt(x, y), composite.RGBAAt(x, y), "pixel %d,%d", x, y)
		}
	}
}

func TestStitch_RecoversDiagonalShiftChain(t *testing.T) {
	src := scene(240, 160, 2)
	images := []image.Image{
		crop(src, image.Rect(0, 20, 120, 110)),
		crop(src, image.Rect(30, 26, 150, 116)),
		crop(src, image.Rect(64, 14, 184, 104)),
	}

	var progress [][2]int
	res, err := New(testOptions()).Stitch(context.Background(), images, func(done, total int) {
		progress = append(progress, [2]int{done, total})
	})
	require.NoError(t, err)
	require.Equal(t, ports.StitchOK, res.Status)
	assert.Equal(t, [][2]int{{1, 2}, {2, 2}}, progress)

	require.Len(t, res.Placements, 3)
	// canvas origin is the top-most frame edge, y=14 in the source
	assert.Equal(t, image.Pt(0, 6), res.Placements[0].Rect.Min)
	assert.Equal(t, image.Pt(30, 12), res.Placements[1].Rect.Min)
	assert.Equal(t, image.Pt(64, 0), res.Placements[2].Rect.Min)
	assert.Equal(t, image.Rect(0, 0, 184, 102), res.Composite.Bounds())
}

func TestStitch_NeedMoreImages(t *testing.T) {
	s := New(testOptions())

	res, err := s.Stitch(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, ports.StitchNeedMoreImages, res.Status)

	res, err = s.Stitch(context.Background(), []image.Image{scene(20, 20, 1)}, nil)
	require.NoError(t, err)
	assert.Equal(t, ports.StitchNeedMoreImages, res.Status)
	assert.Nil(t, res.Composite)
}

func TestStitch_SizeMismatch(t *testing.T) {
	images := []image.Image{scene(40, 30, 1), scene(41, 30, 1)}

	res, err := New(testOptions()).Stitch(context.Background(), images, nil)
	require.NoError(t, err)
	assert.Equal(t, ports.StitchCameraParamsAdjustFail, res.Status)
}

func TestStitch_UnrelatedFramesFail(t *testing.T) {
	images := []image.Image{scene(80, 60, 10), scene(80, 60, 11)}

	res, err := New(testOptions()).Stitch(context.Background(), images, nil)
	require.NoError(t, err)
	assert.Equal(t, ports.StitchHomographyEstFail, res.Status)
	assert.Nil(t, res.Composite)
}

func TestStitch_UsesLongestMatchedRun(t *testing.T) {
	src := scene(200, 80, 3)
	images := []image.Image{
		scene(100, 80, 99),
		crop(src, image.Rect(0, 0, 100, 80)),
		crop(src, image.Rect(30, 0, 130, 80)),
		crop(src, image.Rect(60, 0, 160, 80)),
	}

	res, err := New(testOptions()).Stitch(context.Background(), images, nil)
	require.NoError(t, err)
	require.Equal(t, ports.StitchOK, res.Status)

	require.Len(t, res.Placements, 3)
	assert.Equal(t, 1, res.Placements[0].Index)
	assert.Equal(t, 3, res.Placements[2].Index)
	assert.Equal(t, image.Rect(0, 0, 160, 80), res.Composite.Bounds())
}

func TestStitch_CanvasLimit(t *testing.T) {
	src := scene(200, 100, 4)
	images := []image.Image{
		crop(src, image.Rect(0, 0, 120, 100)),
		crop(src, image.Rect(40, 0, 160, 100)),
	}
	opts := testOptions()
	opts.MaxCanvasPixels = 120 * 100

	res, err := New(opts).Stitch(context.Background(), images, nil)
	require.NoError(t, err)
	assert.Equal(t, ports.StitchCameraParamsAdjustFail, res.Status)
}

func TestStitch_DeterministicAcrossWorkers(t *testing.T) {
	src := scene(200, 100, 5)
	images := []image.Image{
		crop(src, image.Rect(0, 0, 120, 100)),
		crop(src, image.Rect(50, 3, 170, 103)),
	}

	var first *image.RGBA
	for _, workers := range []int{1, 2, 8} {
		opts := testOptions()
		opts.Workers = workers
		res, err := New(opts).Stitch(context.Background(), images, nil)
		require.NoError(t, err)
		require.Equal(t, ports.StitchOK, res.Status)
		got := res.Composite.(*image.RGBA)
		if first == nil {
			first = got
			continue
		}
		assert.Equal(t, first.Pix, got.Pix, "workers=%d", workers)
	}
}

func TestStitch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	images := []image.Image{scene(40, 30, 1), scene(40, 30, 2)}
	_, err := New(testOptions()).Stitch(ctx, images, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLongestRun(t *testing.T) {
	ok := match{ok: true}
	bad := match{}
	costly := match{ok: true, cost: 100}

	tests := []struct {
		name        string
		pairs       []match
		first, last int
	}{
		{"all matched", []match{ok, ok, ok}, 0, 3},
		{"none matched", []match{bad, costly}, 0, 0},
		{"later run longer", []match{ok, bad, ok, ok}, 2, 4},
		{"tie keeps earliest", []match{ok, costly, ok}, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, last := longestRun(tt.pairs, 10)
			assert.Equal(t, tt.first, first)
			assert.Equal(t, tt.last, last)
		})
	}
}

func TestBuildPyramid(t *testing.T) {
	levels := buildPyramid(image.NewGray(image.Rect(0, 0, 130, 70)), 32)
	require.Len(t, levels, 4)
	assert.Equal(t, image.Rect(0, 0, 130, 70), levels[0].Bounds())
	assert.Equal(t, image.Rect(0, 0, 65, 35), levels[1].Bounds())
	assert.Equal(t, image.Rect(0, 0, 33, 18), levels[2].Bounds())
	assert.Equal(t, image.Rect(0, 0, 17, 9), levels[3].Bounds())
}
