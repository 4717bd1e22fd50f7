package mocks

import (
	"image"
	"sync"

	"github.com/user/panorama/pkg/ports"
)

// DebugSink records everything it is given.
type DebugSink struct {
	mu sync.RWMutex

	enabled bool

	SampledFrames map[int]image.Image
	AlignmentJSON []byte
	Overlay       image.Image
	RawComposite  image.Image
}

// NewDebugSink creates a DebugSink that reports enabled from Enabled.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled:       enabled,
		SampledFrames: make(map[int]image.Image),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SaveSampledFrame(index int, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SampledFrames[index] = img
	return nil
}

func (m *DebugSink) SaveAlignmentJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AlignmentJSON = data
	return nil
}

func (m *DebugSink) SaveOverlay(img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Overlay = img
	return nil
}

func (m *DebugSink) SaveRawComposite(img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RawComposite = img
	return nil
}

// SampledCount returns how many sampled frames were saved.
func (m *DebugSink) SampledCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.SampledFrames)
}

var _ ports.DebugSink = (*DebugSink)(nil)
