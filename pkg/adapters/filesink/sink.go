// Package filesink writes debug artefacts under a base directory.
package filesink

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/user/panorama/pkg/ports"
)

// Sink saves debug output to files:
//
//	<base>/frames/frame-0005.png
//	<base>/alignment.json
//	<base>/overlay.png
//	<base>/composite-raw.png
type Sink struct {
	baseDir  string
	fs       ports.FileSystem
	renderer ports.Renderer
}

// New creates a new Sink.
func New(baseDir string, fs ports.FileSystem, renderer ports.Renderer) *Sink {
	return &Sink{
		baseDir:  baseDir,
		fs:       fs,
		renderer: renderer,
	}
}

func (s *Sink) Enabled() bool {
	return true
}

func (s *Sink) SaveSampledFrame(index int, img image.Image) error {
	dir := filepath.Join(s.baseDir, "frames")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	return s.savePNG(filepath.Join(dir, fmt.Sprintf("frame-%04d.png", index)), img)
}

func (s *Sink) SaveAlignmentJSON(data []byte) error {
	return s.fs.WriteFile(filepath.Join(s.baseDir, "alignment.json"), data)
}

func (s *Sink) SaveOverlay(img image.Image) error {
	return s.savePNG(filepath.Join(s.baseDir, "overlay.png"), img)
}

func (s *Sink) SaveRawComposite(img image.Image) error {
	return s.savePNG(filepath.Join(s.baseDir, "composite-raw.png"), img)
}

func (s *Sink) savePNG(path string, img image.Image) error {
	data, err := s.renderer.EncodeImage(img, ports.FormatPNG, 0)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return s.fs.WriteFile(path, data)
}

var _ ports.DebugSink = (*Sink)(nil)
