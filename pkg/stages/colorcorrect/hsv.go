package colorcorrect

import "math"

// 8-bit HSV uses fixed point division tables with a 12 bit shift.
// H is stored as 0..179, S and V as 0..255.
const hsvShift = 12

var (
	sdivTable [256]int
	hdivTable [256]int
)

func init() {
	for i := 1; i < 256; i++ {
		sdivTable[i] = int(math.Round(float64(255<<hsvShift) / float64(i)))
		hdivTable[i] = int(math.Round(float64(180<<hsvShift) / (6 * float64(i))))
	}
}

// rgbToHSV converts one 8-bit RGB pixel.
func rgbToHSV(r, g, b uint8) (h, s, v uint8) {
	ri, gi, bi := int(r), int(g), int(b)

	vmax := max(ri, gi, bi)
	vmin := min(ri, gi, bi)
	diff := vmax - vmin

	sv := (diff*sdivTable[vmax] + (1 << (hsvShift - 1))) >> hsvShift

	var hv int
	switch vmax {
	case ri:
		hv = gi - bi
	case gi:
		hv = bi - ri + 2*diff
	default:
		hv = ri - gi + 4*diff
	}
	hv = (hv*hdivTable[diff] + (1 << (hsvShift - 1))) >> hsvShift
	if hv < 0 {
		hv += 180
	}

	return uint8(hv), uint8(sv), uint8(vmax)
}

// sectorTable selects (b, g, r) from the four candidate levels per hue sector.
var sectorTable = [6][3]int{{1, 3, 0}, {1, 0, 2}, {3, 0, 1}, {0, 2, 1}, {0, 1, 3}, {2, 1, 0}}

// hsvToRGB converts one 8-bit HSV pixel back to RGB.
func hsvToRGB(h, s, v uint8) (r, g, b uint8) {
	vf := float32(v) * (1.0 / 255)
	if s == 0 {
		c := to8(vf)
		return c, c, c
	}

	sf := float32(s) * (1.0 / 255)
	hf := float32(h) * (6.0 / 180)
	for hf < 0 {
		hf += 6
	}
	for hf >= 6 {
		hf -= 6
	}

	sector := int(math.Floor(float64(hf)))
	hf -= float32(sector)
	if sector < 0 || sector >= 6 {
		sector, hf = 0, 0
	}

	tab := [4]float32{
		vf,
		vf * (1 - sf),
		vf * (1 - sf*hf),
		vf * (1 - sf*(1-hf)),
	}
	sel := sectorTable[sector]
	return to8(tab[sel[2]]), to8(tab[sel[1]]), to8(tab[sel[0]])
}

func to8(f float32) uint8 {
	x := math.RoundToEven(float64(f * 255))
	switch {
	case x <= 0:
		return 0
	case x >= 255:
		return 255
	default:
		return uint8(x)
	}
}
