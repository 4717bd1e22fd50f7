package stitch

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/panorama/pkg/adapters/logger"
	"github.com/user/panorama/pkg/mocks"
	"github.com/user/panorama/pkg/pipeline"
	"github.com/user/panorama/pkg/ports"
)

func frames(indices ...int) pipeline.FrameSequence {
	out := make(pipeline.FrameSequence, len(indices))
	for i, idx := range indices {
		out[i] = pipeline.Frame{Index: idx, Image: image.NewRGBA(image.Rect(0, 0, 8, 6))}
	}
	return out
}

func newStage(stitcher ports.Stitcher, sink ports.DebugSink) *Stage {
	return NewStage(stitcher, &mocks.Renderer{}, sink, logger.NewNoop())
}

func TestStage_TooFewFramesNeverCallsStitcher(t *testing.T) {
	for _, n := range []int{0, 1} {
		stitcher := &mocks.Stitcher{}
		stage := newStage(stitcher, mocks.NewDebugSink(false))

		input := pipeline.StitchInput{Frames: frames(make([]int, n)...)}
		outcome, err := stage.Execute(context.Background(), input)
		require.NoError(t, err)

		assert.False(t, outcome.OK())
		assert.Nil(t, outcome.Composite)
		assert.ErrorIs(t, outcome.Failure, pipeline.ErrInsufficientFrames)
		assert.Equal(t, 0, stitcher.Calls())
	}
}

func TestStage_SuccessCallsStitcherOnce(t *testing.T) {
	stitcher := &mocks.Stitcher{}
	stage := newStage(stitcher, mocks.NewDebugSink(false))

	outcome, err := stage.Execute(context.Background(), pipeline.StitchInput{Frames: frames(0, 5, 10)})
	require.NoError(t, err)

	require.True(t, outcome.OK())
	assert.Nil(t, outcome.Failure)
	assert.Equal(t, image.Rect(0, 0, 24, 6), outcome.Composite.Bounds())
	assert.Equal(t, 1, stitcher.Calls())
	assert.Len(t, stitcher.LastInput(), 3)
}

func TestStage_MapsEveryNonOKStatus(t *testing.T) {
	statuses := []ports.StitchStatus{
		ports.StitchNeedMoreImages,
		ports.StitchHomographyEstFail,
		ports.StitchCameraParamsAdjustFail,
		ports.StitchStatus(42),
	}

	for _, status := range statuses {
		t.Run(status.String(), func(t *testing.T) {
			stitcher := mocks.NewFailingStitcher(status)
			stage := newStage(stitcher, mocks.NewDebugSink(false))

			outcome, err := stage.Execute(context.Background(), pipeline.StitchInput{Frames: frames(0, 5)})
			require.NoError(t, err)

			assert.False(t, outcome.OK())
			assert.Nil(t, outcome.Composite)
			assert.ErrorIs(t, outcome.Failure, pipeline.ErrStitchFailure)

			got, ok := pipeline.StitchStatusOf(outcome.Failure)
			require.True(t, ok)
			assert.Equal(t, status, got)
			assert.Equal(t, 1, stitcher.Calls())
		})
	}
}

func TestStage_UnknownStatusName(t *testing.T) {
	assert.Equal(t, "status(42)", ports.StitchStatus(42).String())
}

func TestStage_CapabilityErrorIsInternalFailure(t *testing.T) {
	cause := errors.New("stitcher binary missing")
	stitcher := &mocks.Stitcher{
		StitchFunc: func(ctx context.Context, images []image.Image, progress ports.StitchProgressFunc) (ports.StitchResult, error) {
			return ports.StitchResult{}, cause
		},
	}
	stage := newStage(stitcher, mocks.NewDebugSink(false))

	outcome, err := stage.Execute(context.Background(), pipeline.StitchInput{Frames: frames(0, 5)})
	require.NoError(t, err)

	status, ok := pipeline.StitchStatusOf(outcome.Failure)
	require.True(t, ok)
	assert.Equal(t, ports.StitchInternalFailure, status)
	assert.ErrorIs(t, outcome.Failure, cause)
}

func TestStage_CancellationPassesThrough(t *testing.T) {
	stitcher := &mocks.Stitcher{
		StitchFunc: func(ctx context.Context, images []image.Image, progress ports.StitchProgressFunc) (ports.StitchResult, error) {
			return ports.StitchResult{}, context.Canceled
		},
	}
	stage := newStage(stitcher, mocks.NewDebugSink(false))

	_, err := stage.Execute(context.Background(), pipeline.StitchInput{Frames: frames(0, 5)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStage_OKWithoutCompositeIsInternalFailure(t *testing.T) {
	stitcher := &mocks.Stitcher{
		StitchFunc: func(ctx context.Context, images []image.Image, progress ports.StitchProgressFunc) (ports.StitchResult, error) {
			return ports.StitchResult{Status: ports.StitchOK}, nil
		},
	}
	stage := newStage(stitcher, mocks.NewDebugSink(false))

	outcome, err := stage.Execute(context.Background(), pipeline.StitchInput{Frames: frames(0, 5)})
	require.NoError(t, err)

	status, ok := pipeline.StitchStatusOf(outcome.Failure)
	require.True(t, ok)
	assert.Equal(t, ports.StitchInternalFailure, status)
}

func TestStage_ForwardsProgress(t *testing.T) {
	stitcher := &mocks.Stitcher{
		StitchFunc: func(ctx context.Context, images []image.Image, progress ports.StitchProgressFunc) (ports.StitchResult, error) {
			for i := 1; i < len(images); i++ {
				progress(i, len(images)-1)
			}
			return mocks.SideBySide(images), nil
		},
	}
	stage := newStage(stitcher, mocks.NewDebugSink(false))

	var calls [][2]int
	input := pipeline.StitchInput{
		Frames:     frames(0, 5, 10),
		OnProgress: func(done, total int) { calls = append(calls, [2]int{done, total}) },
	}
	_, err := stage.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{1, 2}, {2, 2}}, calls)
}

func TestStage_PlacementsUseSourceIndices(t *testing.T) {
	sink := mocks.NewDebugSink(true)
	stage := newStage(&mocks.Stitcher{}, sink)

	outcome, err := stage.Execute(context.Background(), pipeline.StitchInput{Frames: frames(0, 5, 10)})
	require.NoError(t, err)

	require.Len(t, outcome.Placements, 3)
	assert.Equal(t, 0, outcome.Placements[0].Index)
	assert.Equal(t, 5, outcome.Placements[1].Index)
	assert.Equal(t, 10, outcome.Placements[2].Index)
	assert.Equal(t, image.Rect(8, 0, 16, 6), outcome.Placements[1].Rect)

	var report []ports.Placement
	require.NoError(t, json.Unmarshal(sink.AlignmentJSON, &report))
	assert.Equal(t, outcome.Placements, report)
	assert.NotNil(t, sink.RawComposite)
	assert.NotNil(t, sink.Overlay)
}

func TestStage_DebugDisabledSavesNothing(t *testing.T) {
	sink := mocks.NewDebugSink(false)
	stage := newStage(&mocks.Stitcher{}, sink)

	_, err := stage.Execute(context.Background(), pipeline.StitchInput{Frames: frames(0, 5)})
	require.NoError(t, err)
	assert.Nil(t, sink.AlignmentJSON)
	assert.Nil(t, sink.Overlay)
	assert.Nil(t, sink.RawComposite)
}

func TestOverlay(t *testing.T) {
	canvas := &mocks.Canvas{}
	renderer := &mocks.Renderer{
		CreateCanvasFunc: func(width, height int, bg color.Color) ports.Canvas { return canvas },
	}
	placements := []ports.Placement{
		{Index: 0, Rect: image.Rect(0, 0, 10, 10)},
		{Index: 15, Rect: image.Rect(7, 0, 17, 10)},
	}

	Overlay(renderer, image.NewRGBA(image.Rect(0, 0, 17, 10)), placements)

	assert.Equal(t, 1, canvas.Images)
	assert.Equal(t, 2, canvas.Strokes)
	assert.Equal(t, []string{"#0", "#15"}, canvas.Texts)
}

func TestOverlay_ScalesWideComposites(t *testing.T) {
	canvas := &mocks.Canvas{}
	var resized image.Point
	var canvasSize image.Point
	renderer := &mocks.Renderer{
		CreateCanvasFunc: func(width, height int, bg color.Color) ports.Canvas {
			canvasSize = image.Pt(width, height)
			return canvas
		},
		ResizeImageFunc: func(img image.Image, width, height int) image.Image {
			resized = image.Pt(width, height)
			return image.NewRGBA(image.Rect(0, 0, width, height))
		},
	}
	wide := image.NewRGBA(image.Rect(0, 0, 2*OverlayMaxWidth, 100))
	placements := []ports.Placement{
		{Index: 3, Rect: image.Rect(0, 0, 200, 100)},
		{Index: 9, Rect: image.Rect(1000, 10, 1400, 90)},
	}

	Overlay(renderer, wide, placements)

	assert.Equal(t, image.Pt(OverlayMaxWidth, 50), resized)
	assert.Equal(t, image.Pt(OverlayMaxWidth, 50), canvasSize)
	assert.Equal(t, []image.Rectangle{
		image.Rect(0, 0, 100, 50),
		image.Rect(500, 5, 700, 45),
	}, canvas.Rects)
	assert.Equal(t, []string{"#3", "#9"}, canvas.Texts)
}

func TestOverlay_KeepsNarrowComposites(t *testing.T) {
	renderer := &mocks.Renderer{
		ResizeImageFunc: func(img image.Image, width, height int) image.Image {
			t.Fatal("narrow composites must not be resized")
			return nil
		},
	}

	out := Overlay(renderer, image.NewRGBA(image.Rect(0, 0, 64, 32)), nil)
	assert.Equal(t, image.Rect(0, 0, 64, 32), out.Bounds())
}
