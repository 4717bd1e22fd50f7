//go:build !gocv

package colorcorrect

import "image"

func correct(composite, reference *image.RGBA, workers int) (*image.RGBA, Stats) {
	return correctGo(composite, reference, workers)
}
