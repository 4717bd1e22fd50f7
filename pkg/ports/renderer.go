package ports

import (
	"image"
	"image/color"
)

// Renderer abstracts image encoding and drawing.
type Renderer interface {
	// CreateCanvas creates a drawing canvas filled with bg.
	CreateCanvas(width, height int, bg color.Color) Canvas

	// EncodeImage encodes img. quality is only used for JPEG.
	EncodeImage(img image.Image, format ImageFormat, quality int) ([]byte, error)

	// ResizeImage scales img to the given dimensions.
	ResizeImage(img image.Image, width, height int) image.Image
}

// Canvas provides the drawing operations used for annotated previews.
type Canvas interface {
	DrawImage(img image.Image, x, y int)
	DrawRectStroke(x, y, w, h int, c color.Color, strokeWidth float64)
	DrawText(text string, x, y int, style TextStyle)
	ToImage() image.Image
}

// TextStyle defines text rendering properties.
type TextStyle struct {
	FontSize float64
	FontPath string
	Color    color.Color
	Align    TextAlign
}

// TextAlign specifies text alignment.
type TextAlign int

const (
	AlignLeft TextAlign = iota
	AlignCenter
	AlignRight
)

// ImageFormat specifies image encoding format.
type ImageFormat int

const (
	FormatJPEG ImageFormat = iota
	FormatPNG
)

// String returns the file extension for the format.
func (f ImageFormat) String() string {
	switch f {
	case FormatPNG:
		return "png"
	default:
		return "jpg"
	}
}
