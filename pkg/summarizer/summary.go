// Package summarizer provides summary generation for panorama runs.
package summarizer

import "time"

// Summary contains all data collected during a panorama run.
type Summary struct {
	// Metadata
	GeneratedAt time.Time

	// Source video
	Source SourceInfo

	// Run outcome
	Run RunInfo

	// Run settings
	Settings Settings

	// Output image details
	Output OutputInfo
}

// SourceInfo describes the input video.
type SourceInfo struct {
	Path       string
	Codec      string
	FrameCount int
	FrameRate  float64
	Width      int
	Height     int
	Duration   time.Duration
}

// RunInfo describes how the run ended.
type RunInfo struct {
	ID             string
	Succeeded      bool
	Error          string
	StitchStatus   string // set for stitch failures
	ProcessingTime time.Duration
}

// Settings contains the run configuration.
type Settings struct {
	MaxFrames int // 0 = unbounded
	Stride    int
	Stitcher  string
	Quality   int
	Workers   int
}

// OutputInfo contains information about the output image.
type OutputInfo struct {
	Path          string
	ObjectURL     string
	SampledFrames int
	Width         int
	Height        int
	FileSize      int64
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithSource sets source video information.
func (b *Builder) WithSource(source SourceInfo) *Builder {
	b.summary.Source = source
	return b
}

// WithRun sets the run outcome.
func (b *Builder) WithRun(run RunInfo) *Builder {
	b.summary.Run = run
	return b
}

// WithError marks the run as failed with err. A nil err marks it as
// succeeded.
func (b *Builder) WithError(err error) *Builder {
	if err == nil {
		b.summary.Run.Succeeded = true
		b.summary.Run.Error = ""
		return b
	}
	b.summary.Run.Succeeded = false
	b.summary.Run.Error = err.Error()
	return b
}

// WithSettings sets run settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// WithOutput sets output image information.
func (b *Builder) WithOutput(output OutputInfo) *Builder {
	b.summary.Output = output
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
