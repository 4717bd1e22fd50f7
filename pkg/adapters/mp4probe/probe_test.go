package mp4probe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupports(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"clip.mp4", true},
		{"CLIP.MP4", true},
		{"dir/clip.m4v", true},
		{"clip.mov", true},
		{"clip.webm", false},
		{"clip.avi", false},
		{"mp4", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Supports(tt.path), tt.path)
	}
}

func TestCodecName(t *testing.T) {
	tests := map[string]string{
		"avc1": "h264",
		"avc3": "h264",
		"hvc1": "hevc",
		"hev1": "hevc",
		"av01": "av1",
		"vp09": "vp9",
		"mp4a": "unknown",
	}

	for fourCC, want := range tests {
		assert.Equal(t, want, CodecName(fourCC), fourCC)
	}
}

func TestFrameRate(t *testing.T) {
	// 50 samples of 512 ticks at 12800 Hz
	assert.InDelta(t, 25.0, frameRate(50, 12800, 50*512), 1e-9)
	// 30000/1001
	assert.InDelta(t, 29.97, frameRate(300, 30000, 300*1001), 0.001)

	assert.Zero(t, frameRate(0, 1000, 100))
	assert.Zero(t, frameRate(10, 0, 100))
	assert.Zero(t, frameRate(10, 1000, 0))
}

func TestProbeBytes_NotMP4(t *testing.T) {
	_, err := ProbeBytes([]byte("definitely not an mp4 container"))
	assert.Error(t, err)
}

func TestProbeFile_Missing(t *testing.T) {
	_, err := ProbeFile(filepath.Join(t.TempDir(), "missing.mp4"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
