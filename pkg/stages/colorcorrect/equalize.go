package colorcorrect

import "math"

// histogram counts 8-bit levels.
type histogram [256]int

func (h *histogram) add(o *histogram) {
	for i := range h {
		h[i] += o[i]
	}
}

// equalizeLUT builds the lookup table of histogram equalisation: the
// cumulative histogram scaled by 255 / (total - count of the lowest
// populated level). A single-level histogram maps that level to itself.
func equalizeLUT(hist *histogram) [256]uint8 {
	var lut [256]uint8
	total := 0
	for _, c := range hist {
		total += c
	}
	if total == 0 {
		for i := range lut {
			lut[i] = uint8(i)
		}
		return lut
	}

	i := 0
	for hist[i] == 0 {
		i++
	}
	if hist[i] == total {
		for j := range lut {
			lut[j] = uint8(i)
		}
		return lut
	}

	scale := float32(255) / float32(total-hist[i])
	sum := 0
	lut[i] = 0
	for i++; i < len(hist); i++ {
		sum += hist[i]
		x := math.RoundToEven(float64(float32(sum) * scale))
		if x > 255 {
			x = 255
		}
		lut[i] = uint8(x)
	}
	return lut
}

// equalize returns a histogram-equalised copy of a single channel plane.
func equalize(plane []uint8) []uint8 {
	var hist histogram
	for _, v := range plane {
		hist[v]++
	}
	lut := equalizeLUT(&hist)
	out := make([]uint8, len(plane))
	for i, v := range plane {
		out[i] = lut[v]
	}
	return out
}

func mean(plane []uint8) float64 {
	if len(plane) == 0 {
		return 0
	}
	sum := 0
	for _, v := range plane {
		sum += int(v)
	}
	return float64(sum) / float64(len(plane))
}
