package ports

import (
	"image"
)

// DebugSink receives intermediate results for inspection.
type DebugSink interface {
	// Enabled reports whether anything is saved. Callers skip building
	// debug artefacts when it returns false.
	Enabled() bool

	// SaveSampledFrame saves one sampled frame by its source index.
	SaveSampledFrame(index int, img image.Image) error

	// SaveAlignmentJSON saves the frame placements reported by the stitcher.
	SaveAlignmentJSON(data []byte) error

	// SaveOverlay saves the composite annotated with frame outlines.
	SaveOverlay(img image.Image) error

	// SaveRawComposite saves the composite before color correction.
	SaveRawComposite(img image.Image) error
}
