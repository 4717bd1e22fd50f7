package filesink

import (
	"image"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/panorama/pkg/mocks"
	"github.com/user/panorama/pkg/ports"
)

var testBaseDir = filepath.Join("debug")

func newSink() (*Sink, *mocks.FileSystem) {
	fs := mocks.NewFileSystem()
	renderer := &mocks.Renderer{
		EncodeImageFunc: func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
			return []byte(format.String()), nil
		},
	}
	return New(testBaseDir, fs, renderer), fs
}

func TestSink_Enabled(t *testing.T) {
	sink, _ := newSink()
	assert.True(t, sink.Enabled())
}

func TestSink_SaveSampledFrame(t *testing.T) {
	sink, fs := newSink()

	require.NoError(t, sink.SaveSampledFrame(15, image.NewRGBA(image.Rect(0, 0, 4, 4))))

	saved, ok := fs.GetFile(filepath.Join(testBaseDir, "frames", "frame-0015.png"))
	require.True(t, ok)
	assert.Equal(t, "png", string(saved))
	assert.True(t, fs.HasDir(filepath.Join(testBaseDir, "frames")))
}

func TestSink_SaveAlignmentJSON(t *testing.T) {
	sink, fs := newSink()
	data := []byte(`[{"index":0}]`)

	require.NoError(t, sink.SaveAlignmentJSON(data))

	saved, ok := fs.GetFile(filepath.Join(testBaseDir, "alignment.json"))
	require.True(t, ok)
	assert.Equal(t, data, saved)
}

func TestSink_SaveImages(t *testing.T) {
	sink, fs := newSink()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))

	require.NoError(t, sink.SaveOverlay(img))
	require.NoError(t, sink.SaveRawComposite(img))

	_, ok := fs.GetFile(filepath.Join(testBaseDir, "overlay.png"))
	assert.True(t, ok)
	_, ok = fs.GetFile(filepath.Join(testBaseDir, "composite-raw.png"))
	assert.True(t, ok)
}

func TestSink_EncodeErrorIsReturned(t *testing.T) {
	fs := mocks.NewFileSystem()
	renderer := &mocks.Renderer{
		EncodeImageFunc: func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
			return nil, assert.AnError
		},
	}
	sink := New(testBaseDir, fs, renderer)

	err := sink.SaveOverlay(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	assert.ErrorIs(t, err, assert.AnError)
	assert.Empty(t, fs.GetAllFiles())
}
