package colorcorrect

import (
	"context"
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/panorama/pkg/adapters/logger"
	"github.com/user/panorama/pkg/pipeline"
)

func noise(w, h int, seed int64) *image.RGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(rng.Intn(256))
		img.Pix[i+1] = uint8(rng.Intn(256))
		img.Pix[i+2] = uint8(rng.Intn(256))
		img.Pix[i+3] = 0xff
	}
	return img
}

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestRGBToHSV(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
		h, s, v uint8
	}{
		{"black", 0, 0, 0, 0, 0, 0},
		{"white", 255, 255, 255, 0, 0, 255},
		{"gray", 128, 128, 128, 0, 0, 128},
		{"red", 255, 0, 0, 0, 255, 255},
		{"green", 0, 255, 0, 60, 255, 255},
		{"blue", 0, 0, 255, 120, 255, 255},
		{"magenta", 255, 0, 255, 150, 255, 255},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, s, v := rgbToHSV(tt.r, tt.g, tt.b)
			assert.Equal(t, [3]uint8{tt.h, tt.s, tt.v}, [3]uint8{h, s, v})
		})
	}
}

func TestHSVToRGB(t *testing.T) {
	r, g, b := hsvToRGB(0, 255, 255)
	assert.Equal(t, [3]uint8{255, 0, 0}, [3]uint8{r, g, b})

	for _, v := range []uint8{0, 1, 77, 128, 254, 255} {
		r, g, b := hsvToRGB(90, 0, v)
		assert.Equal(t, [3]uint8{v, v, v}, [3]uint8{r, g, b}, "gray %d", v)
	}
}

func TestHSVRoundTripIsClose(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		r0, g0, b0 := uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256))
		r, g, b := hsvToRGB(rgbToHSV(r0, g0, b0))
		// hue is quantised to 2 degrees, so saturated colours drift a little
		assert.InDelta(t, int(r0), int(r), 6)
		assert.InDelta(t, int(g0), int(g), 6)
		assert.InDelta(t, int(b0), int(b), 6)
	}
}

func TestEqualizeLUT(t *testing.T) {
	t.Run("two levels spread to the full range", func(t *testing.T) {
		var hist histogram
		hist[10], hist[20] = 2, 2
		lut := equalizeLUT(&hist)
		assert.Equal(t, uint8(0), lut[10])
		assert.Equal(t, uint8(255), lut[20])
	})

	t.Run("single level maps to itself", func(t *testing.T) {
		var hist histogram
		hist[77] = 100
		lut := equalizeLUT(&hist)
		assert.Equal(t, uint8(77), lut[77])
	})

	t.Run("uniform histogram is the identity", func(t *testing.T) {
		var hist histogram
		for i := range hist {
			hist[i] = 3
		}
		lut := equalizeLUT(&hist)
		for i := range lut {
			assert.Equal(t, uint8(i), lut[i])
		}
	})

	t.Run("lut is monotonic", func(t *testing.T) {
		rng := rand.New(rand.NewSource(1))
		var hist histogram
		for i := range hist {
			hist[i] = rng.Intn(50)
		}
		lut := equalizeLUT(&hist)
		for i := 1; i < len(lut); i++ {
			assert.GreaterOrEqual(t, lut[i], lut[i-1])
		}
	})
}

func TestCorrect_PreservesDimensions(t *testing.T) {
	src := noise(97, 41, 3)
	sub := src.SubImage(image.Rect(5, 7, 85, 40)).(*image.RGBA)

	out := Correct(sub, nil, 4)
	assert.Equal(t, image.Rect(0, 0, 80, 33), out.Bounds())
	for i := 3; i < len(out.Pix); i += 4 {
		require.Equal(t, uint8(0xff), out.Pix[i])
	}
}

func TestCorrect_DeterministicAcrossWorkerCounts(t *testing.T) {
	composite := noise(120, 150, 11)
	reference := noise(40, 30, 12)

	want := Correct(composite, reference, 1)
	for _, workers := range []int{1, 2, 3, 8, 64} {
		got := Correct(composite, reference, workers)
		assert.Equal(t, want.Pix, got.Pix, "workers=%d", workers)
	}
}

func TestCorrect_ReferenceDoesNotChangeOutput(t *testing.T) {
	composite := noise(64, 64, 21)

	withNil := Correct(composite, nil, 2)
	withDark := Correct(composite, solid(64, 64, color.RGBA{A: 255}), 2)
	withNoise := Correct(composite, noise(10, 10, 22), 2)

	assert.Equal(t, withNil.Pix, withDark.Pix)
	assert.Equal(t, withNil.Pix, withNoise.Pix)
}

func TestCorrect_DoesNotModifyInputs(t *testing.T) {
	composite := noise(50, 50, 31)
	reference := noise(50, 50, 32)
	before := append([]uint8(nil), composite.Pix...)
	refBefore := append([]uint8(nil), reference.Pix...)

	Correct(composite, reference, 3)

	assert.Equal(t, before, composite.Pix)
	assert.Equal(t, refBefore, reference.Pix)
}

func TestCorrect_ConstantGrayIsUnchanged(t *testing.T) {
	img := solid(33, 17, color.RGBA{R: 128, G: 128, B: 128, A: 255})
	out := Correct(img, nil, 2)
	assert.Equal(t, img.Pix, out.Pix)
}

func TestCorrect_StretchesLowContrast(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(0, 0, color.RGBA{R: 100, G: 100, B: 100, A: 255})
	img.SetRGBA(1, 0, color.RGBA{R: 110, G: 110, B: 110, A: 255})

	out := Correct(img, nil, 1)
	assert.Equal(t, color.RGBA{R: 0, G: 0, B: 0, A: 255}, out.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, out.RGBAAt(1, 0))
}

func TestStage_Execute(t *testing.T) {
	stage := NewStage(logger.NewNoop(), 2)
	composite := noise(30, 20, 41)

	result, err := stage.Execute(context.Background(), pipeline.CorrectInput{
		Composite: composite,
		Reference: noise(30, 20, 42),
	})
	require.NoError(t, err)
	assert.Equal(t, Correct(composite, nil, 1).Pix, result.Image.Pix)
}

func TestStage_Errors(t *testing.T) {
	stage := NewStage(logger.NewNoop(), 0)

	_, err := stage.Execute(context.Background(), pipeline.CorrectInput{})
	assert.ErrorIs(t, err, ErrNoComposite)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = stage.Execute(ctx, pipeline.CorrectInput{Composite: noise(4, 4, 1)})
	assert.ErrorIs(t, err, context.Canceled)
}
