//go:build gocv

package colorcorrect

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/user/panorama/pkg/pipeline"
)

// correct runs the correction through OpenCV. workers only applies to the
// pure Go fallback, which is used for empty images and for images that
// cannot be moved into a Mat.
func correct(composite, reference *image.RGBA, workers int) (*image.RGBA, Stats) {
	if composite.Bounds().Empty() || (reference != nil && reference.Bounds().Empty()) {
		return correctGo(composite, reference, workers)
	}

	out, err := equalizeComposite(composite)
	if err != nil {
		return correctGo(composite, reference, workers)
	}

	var stats Stats
	if reference != nil {
		if stats, err = referenceStats(reference); err != nil {
			stats = referenceStatsGo(reference, workers)
		}
	}
	return out, stats
}

func equalizeComposite(composite *image.RGBA) (*image.RGBA, error) {
	hsv, err := toHSVMat(composite)
	if err != nil {
		return nil, err
	}
	defer hsv.Close()

	channels := gocv.Split(hsv)
	defer closeAll(channels)

	eq := gocv.NewMat()
	defer eq.Close()
	gocv.EqualizeHist(channels[2], &eq)
	eq.CopyTo(&channels[2])

	merged := gocv.NewMat()
	defer merged.Close()
	gocv.Merge(channels, &merged)

	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(merged, &bgr, gocv.ColorHSVToBGR)

	img, err := bgr.ToImage()
	if err != nil {
		return nil, err
	}
	return pipeline.ToRGBA(img), nil
}

// referenceStats equalises the reference's V channel. The equalised plane
// only feeds the brightness log line.
func referenceStats(reference *image.RGBA) (Stats, error) {
	hsv, err := toHSVMat(reference)
	if err != nil {
		return Stats{}, err
	}
	defer hsv.Close()

	channels := gocv.Split(hsv)
	defer closeAll(channels)

	eq := gocv.NewMat()
	defer eq.Close()
	gocv.EqualizeHist(channels[2], &eq)

	return Stats{MeanV: channels[2].Mean().Val1, MeanEqualizedV: eq.Mean().Val1}, nil
}

func toHSVMat(img *image.RGBA) (gocv.Mat, error) {
	if img.Rect.Min != (image.Point{}) {
		img = pipeline.ToRGBA(img)
	}
	bgr, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.Mat{}, err
	}
	defer bgr.Close()

	hsv := gocv.NewMat()
	gocv.CvtColor(bgr, &hsv, gocv.ColorBGRToHSV)
	return hsv, nil
}

func closeAll(mats []gocv.Mat) {
	for i := range mats {
		mats[i].Close()
	}
}
