// Package nullsink provides a debug sink that discards everything.
package nullsink

import (
	"image"

	"github.com/user/panorama/pkg/ports"
)

// Sink is a no-op ports.DebugSink.
type Sink struct{}

// New creates a new Sink.
func New() *Sink {
	return &Sink{}
}

func (s *Sink) Enabled() bool                                     { return false }
func (s *Sink) SaveSampledFrame(index int, img image.Image) error { return nil }
func (s *Sink) SaveAlignmentJSON(data []byte) error               { return nil }
func (s *Sink) SaveOverlay(img image.Image) error                 { return nil }
func (s *Sink) SaveRawComposite(img image.Image) error            { return nil }

var _ ports.DebugSink = (*Sink)(nil)
