// Package controller sequences the panorama stages for one video and
// reports progress and completion to the caller.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/user/panorama/pkg/history"
	"github.com/user/panorama/pkg/metrics"
	"github.com/user/panorama/pkg/pipeline"
	"github.com/user/panorama/pkg/ports"
)

// TotalSteps is the total passed to ProgressFunc for step progress.
const TotalSteps = 4

// ErrPanic wraps a panic recovered from a stage.
var ErrPanic = errors.New("controller: stage panicked")

// ProgressFunc receives progress as current out of total. Step progress
// uses total TotalSteps; progress inside the stitching step uses total 100.
// It is called on the run's worker goroutine.
type ProgressFunc func(current, total int)

// CompleteFunc receives the outcome of a run. It is called exactly once.
type CompleteFunc func(result pipeline.PanoramaResult, err error)

// Stages holds the pipeline stages the controller runs in order.
type Stages struct {
	Sample  pipeline.Stage[pipeline.SampleInput, pipeline.SampleResult]
	Stitch  pipeline.Stage[pipeline.StitchInput, pipeline.StitchOutcome]
	Correct pipeline.Stage[pipeline.CorrectInput, pipeline.CorrectResult]
	Encode  pipeline.Stage[pipeline.EncodeInput, pipeline.EncodeResult]
}

// Options configures a Controller. Zero values select defaults, and the
// History, Metrics and Store hooks are optional.
type Options struct {
	OutputPath   string
	Stride       int
	JPEGQuality  int
	StitcherName string

	History history.Repository
	Metrics *metrics.Recorder
	Store   ports.ObjectStore
}

// Controller runs the sample, stitch, correct and write steps.
type Controller struct {
	opener ports.VideoOpener
	stages Stages
	fs     ports.FileSystem
	logger ports.Logger
	opts   Options
}

// New creates a new Controller.
func New(opener ports.VideoOpener, stages Stages, fs ports.FileSystem, logger ports.Logger, opts Options) *Controller {
	if opts.OutputPath == "" {
		opts.OutputPath = pipeline.DefaultOutputPath
	}
	if opts.Stride <= 0 {
		opts.Stride = pipeline.DefaultStride
	}
	if opts.JPEGQuality <= 0 {
		opts.JPEGQuality = pipeline.DefaultJPEGQuality
	}
	return &Controller{
		opener: opener,
		stages: stages,
		fs:     fs,
		logger: logger.WithComponent("controller"),
		opts:   opts,
	}
}

// Run starts a run on its own goroutine and returns immediately.
// onComplete is called exactly once, after which the session's Done
// channel is closed.
func (c *Controller) Run(ctx context.Context, videoPath string, maxFrames int, onProgress ProgressFunc, onComplete CompleteFunc) *Session {
	s := newSession(ctx, videoPath)

	go func() {
		defer close(s.done)
		defer s.cancel()
		defer func() {
			if p := recover(); p != nil {
				c.logger.Error("Completion callback panicked: %v", p)
			}
		}()

		result, err := c.runSession(s, maxFrames, onProgress)
		if onComplete != nil {
			onComplete(result, err)
		}
	}()

	return s
}

// Execute runs the pipeline synchronously.
func (c *Controller) Execute(ctx context.Context, videoPath string, maxFrames int, onProgress ProgressFunc) (pipeline.PanoramaResult, error) {
	s := newSession(ctx, videoPath)
	defer close(s.done)
	defer s.cancel()
	return c.runSession(s, maxFrames, onProgress)
}

// Save writes result to path, or to the configured output path when path
// is empty. The encoded bytes are reused when present.
func (c *Controller) Save(ctx context.Context, result pipeline.PanoramaResult, path string) error {
	if path == "" {
		path = c.opts.OutputPath
	}

	data := result.Encoded
	if len(data) == 0 {
		if result.Composite == nil {
			return fmt.Errorf("%w: no composite to save", pipeline.ErrOutputWrite)
		}
		encoded, err := c.stages.Encode.Execute(ctx, pipeline.EncodeInput{
			Image:   result.Composite,
			Quality: c.opts.JPEGQuality,
		})
		if err != nil {
			return fmt.Errorf("encode stage: %w", err)
		}
		data = encoded.Data
	}

	if err := c.fs.WriteFile(path, data); err != nil {
		return fmt.Errorf("%w: %s: %w", pipeline.ErrOutputWrite, path, err)
	}
	c.logger.Info("Output saved to %s", path)
	return nil
}

// runSession executes the pipeline for s, converts panics into errors and
// records the outcome.
func (c *Controller) runSession(s *Session, maxFrames int, onProgress ProgressFunc) (result pipeline.PanoramaResult, err error) {
	c.opts.Metrics.RunStarted()

	defer func() {
		if p := recover(); p != nil {
			c.logger.Error("Stage panicked: %v", p)
			result = pipeline.PanoramaResult{}
			err = fmt.Errorf("%w: %v", ErrPanic, p)
		}
		c.finish(s, result, err)
	}()

	return c.execute(s, maxFrames, onProgress)
}

func (c *Controller) execute(s *Session, maxFrames int, onProgress ProgressFunc) (pipeline.PanoramaResult, error) {
	ctx := s.ctx
	report := func(current, total int) {
		s.setProgress(float64(current) / float64(total))
		if onProgress != nil {
			onProgress(current, total)
		}
	}

	// 1. Probe
	info, err := c.opener.Probe(ctx, s.VideoPath)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return pipeline.PanoramaResult{}, fmt.Errorf("probe stage: %w", ctxErr)
		}
		return pipeline.PanoramaResult{}, fmt.Errorf("probe stage: %w: %s: %w", pipeline.ErrSourceUnreadable, s.VideoPath, err)
	}
	duration := info.Duration()
	c.logger.Info("Video duration: %.2f seconds", duration.Seconds())
	c.logger.Info("Generating panorama, please wait...")

	start := time.Now()
	elapsed := func() time.Duration { return time.Since(start) }
	failed := func(stage string, err error) (pipeline.PanoramaResult, error) {
		c.logger.Info("Processing time: %.2f seconds", elapsed().Seconds())
		return pipeline.PanoramaResult{}, fmt.Errorf("%s stage: %w", stage, err)
	}

	// 2. Sample
	if err := ctx.Err(); err != nil {
		return failed("sample", err)
	}
	s.setState(StateSampling)
	stageStart := time.Now()
	sampled, err := c.stages.Sample.Execute(ctx, pipeline.SampleInput{
		Path:      s.VideoPath,
		MaxFrames: maxFrames,
		Stride:    c.opts.Stride,
	})
	c.opts.Metrics.ObserveStage("sample", time.Since(stageStart))
	if err != nil {
		return failed("sample", err)
	}
	c.opts.Metrics.FramesSampled(len(sampled.Frames))
	c.logger.Info("Sampled %d frames", len(sampled.Frames))
	report(1, TotalSteps)

	// 3. Stitch
	if err := ctx.Err(); err != nil {
		return failed("stitch", err)
	}
	s.setState(StateStitching)
	stageStart = time.Now()
	outcome, err := c.stages.Stitch.Execute(ctx, pipeline.StitchInput{
		Frames:     sampled.Frames,
		OnProgress: stitchProgress(report),
	})
	c.opts.Metrics.ObserveStage("stitch", time.Since(stageStart))
	if err != nil {
		return failed("stitch", err)
	}
	if !outcome.OK() {
		c.logger.Warn("Stitching failed: %v", outcome.Failure)
		return failed("stitch", outcome.Failure)
	}
	report(2, TotalSteps)

	// 4. Correct against the first sampled frame
	if err := ctx.Err(); err != nil {
		return failed("correct", err)
	}
	s.setState(StateCorrecting)
	stageStart = time.Now()
	corrected, err := c.stages.Correct.Execute(ctx, pipeline.CorrectInput{
		Composite: outcome.Composite,
		Reference: sampled.Frames[0].Image,
	})
	c.opts.Metrics.ObserveStage("correct", time.Since(stageStart))
	if err != nil {
		return failed("correct", err)
	}
	report(3, TotalSteps)

	processing := elapsed()
	c.logger.Info("Processing time: %.2f seconds", processing.Seconds())

	result := pipeline.PanoramaResult{
		SessionID:      s.ID,
		Composite:      corrected.Image,
		OutputPath:     c.opts.OutputPath,
		SourcePath:     s.VideoPath,
		SourceDuration: duration,
		ProcessingTime: processing,
		FrameCount:     info.FrameCount,
		SampledFrames:  len(sampled.Frames),
		StitcherName:   c.opts.StitcherName,
	}
	c.logger.Info("Panorama generated: %dx%d", result.Width(), result.Height())

	// 5. Encode and write
	if err := ctx.Err(); err != nil {
		return pipeline.PanoramaResult{}, fmt.Errorf("write stage: %w", err)
	}
	s.setState(StateWriting)
	stageStart = time.Now()
	encoded, err := c.stages.Encode.Execute(ctx, pipeline.EncodeInput{
		Image:   corrected.Image,
		Quality: c.opts.JPEGQuality,
	})
	if err != nil {
		return pipeline.PanoramaResult{}, fmt.Errorf("encode stage: %w", err)
	}
	result.Encoded = encoded.Data

	if err := c.fs.WriteFile(c.opts.OutputPath, encoded.Data); err != nil {
		c.opts.Metrics.ObserveStage("write", time.Since(stageStart))
		c.logger.Error("Failed to write output: %v", err)
		return result, fmt.Errorf("write stage: %w: %s: %w", pipeline.ErrOutputWrite, c.opts.OutputPath, err)
	}
	c.opts.Metrics.ObserveStage("write", time.Since(stageStart))
	c.logger.Info("Output saved to %s", c.opts.OutputPath)

	result.ObjectURL = c.mirror(ctx, s.ID, encoded.Data)
	report(4, TotalSteps)

	return result, nil
}

// stitchProgress maps capability progress into the stitching step, which
// spans 25% to 50% of the run. Only increasing whole percents are reported.
func stitchProgress(report ProgressFunc) ports.StitchProgressFunc {
	var mu sync.Mutex
	last := 100 / TotalSteps
	return func(done, total int) {
		if total <= 0 {
			return
		}
		frac := float64(done) / float64(total)
		if frac < 0 {
			frac = 0
		}
		if frac > 1 {
			frac = 1
		}
		pct := int((1 + frac) * 100 / TotalSteps)

		mu.Lock()
		defer mu.Unlock()
		if pct <= last || pct >= 2*100/TotalSteps {
			return
		}
		last = pct
		report(pct, 100)
	}
}

// mirror uploads the output to the object store. Failures are logged only.
func (c *Controller) mirror(ctx context.Context, id string, data []byte) string {
	if c.opts.Store == nil {
		return ""
	}
	url, err := c.opts.Store.Put(ctx, id+".jpg", data, "image/jpeg")
	if err != nil {
		c.logger.Warn("Failed to mirror output: %v", err)
		return ""
	}
	c.logger.Debug("Output mirrored to %s", url)
	return url
}

// finish updates the session and the optional history and metrics hooks.
func (c *Controller) finish(s *Session, result pipeline.PanoramaResult, err error) {
	state := StateCompleted
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		state = StateCancelled
		c.logger.Warn("Generation cancelled")
	case err != nil:
		state = StateFailed
		c.logger.Error("Generation failed, please try again: %v", err)
	default:
		c.logger.Info("Generated")
	}

	var stored *pipeline.PanoramaResult
	if err == nil || result.Composite != nil {
		r := result
		stored = &r
	}
	s.finish(state, stored, err)

	c.opts.Metrics.RunFinished(string(state))
	c.record(s, state, result, err)
}

func (c *Controller) record(s *Session, state State, result pipeline.PanoramaResult, err error) {
	if c.opts.History == nil {
		return
	}

	snap := s.Snapshot()
	rec := history.Record{
		ID:             s.ID,
		VideoPath:      s.VideoPath,
		Status:         historyStatus(state),
		Stitcher:       c.opts.StitcherName,
		FrameCount:     result.FrameCount,
		SampledFrames:  result.SampledFrames,
		Width:          result.Width(),
		Height:         result.Height(),
		SourceDuration: result.SourceDuration,
		ProcessingTime: result.ProcessingTime,
		ObjectURL:      result.ObjectURL,
		StartedAt:      snap.StartedAt,
		FinishedAt:     snap.FinishedAt,
	}
	if err != nil {
		rec.Error = err.Error()
		if status, ok := pipeline.StitchStatusOf(err); ok {
			code := int(status)
			rec.StitchStatus = &code
		}
	} else {
		rec.OutputPath = result.OutputPath
	}

	if err := c.opts.History.Save(context.WithoutCancel(s.ctx), rec); err != nil {
		c.logger.Warn("Failed to save run history: %v", err)
	}
}

func historyStatus(state State) history.Status {
	switch state {
	case StateCompleted:
		return history.StatusCompleted
	case StateCancelled:
		return history.StatusCancelled
	default:
		return history.StatusFailed
	}
}
