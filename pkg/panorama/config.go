package panorama

import (
	"github.com/user/panorama/pkg/config"
	"github.com/user/panorama/pkg/pipeline"
)

// ConfigBuilder provides a fluent interface for building a config.Config
// in code, for callers that do not load YAML or the environment.
type ConfigBuilder struct {
	config config.Config
}

// NewConfigBuilder creates a ConfigBuilder starting from config.Defaults.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		config: config.Defaults(),
	}
}

// Build returns the final Config, applying constraints.
func (b *ConfigBuilder) Build() config.Config {
	cfg := b.config

	if cfg.MaxFrames < 0 {
		cfg.MaxFrames = 0
	}
	if cfg.Stride < 1 {
		cfg.Stride = pipeline.DefaultStride
	}
	if cfg.Quality < 1 {
		cfg.Quality = 1
	}
	if cfg.Quality > 100 {
		cfg.Quality = 100
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = pipeline.DefaultOutputPath
	}

	return cfg
}

// WithOutput sets the output image path.
func (b *ConfigBuilder) WithOutput(path string) *ConfigBuilder {
	b.config.OutputPath = path
	return b
}

// WithMaxFrames sets the sampled frame limit. 0 means unbounded.
func (b *ConfigBuilder) WithMaxFrames(n int) *ConfigBuilder {
	b.config.MaxFrames = n
	return b
}

// WithStride sets the sampling interval.
func (b *ConfigBuilder) WithStride(stride int) *ConfigBuilder {
	b.config.Stride = stride
	return b
}

// WithQuality sets the JPEG quality (1-100).
func (b *ConfigBuilder) WithQuality(quality int) *ConfigBuilder {
	b.config.Quality = quality
	return b
}

// WithWorkers sets the color correction and stitching worker count.
func (b *ConfigBuilder) WithWorkers(workers int) *ConfigBuilder {
	b.config.Workers = workers
	return b
}

// WithFFmpegPath sets a custom ffmpeg executable.
func (b *ConfigBuilder) WithFFmpegPath(path string) *ConfigBuilder {
	b.config.FFmpegPath = path
	return b
}

// WithShiftStitcher selects the built-in translation stitcher.
func (b *ConfigBuilder) WithShiftStitcher() *ConfigBuilder {
	b.config.Stitcher.Kind = "shift"
	return b
}

// WithOpenCVStitcher selects cv::Stitcher in the given mode
// ("panorama" or "scans"). Requires a build with -tags gocv.
func (b *ConfigBuilder) WithOpenCVStitcher(mode string) *ConfigBuilder {
	b.config.Stitcher.Kind = "opencv"
	b.config.Stitcher.Mode = mode
	return b
}

// WithExecStitcher selects an external stitching command.
func (b *ConfigBuilder) WithExecStitcher(command string, args ...string) *ConfigBuilder {
	b.config.Stitcher.Kind = "exec"
	b.config.Stitcher.Command = command
	b.config.Stitcher.Args = args
	return b
}

// WithDebug enables debug dumps under dir.
func (b *ConfigBuilder) WithDebug(dir string) *ConfigBuilder {
	b.config.Debug = true
	if dir != "" {
		b.config.DebugDir = dir
	}
	return b
}

// WithS3 mirrors outputs to bucket.
func (b *ConfigBuilder) WithS3(bucket, region, prefix string) *ConfigBuilder {
	b.config.Storage.Bucket = bucket
	b.config.Storage.Region = region
	b.config.Storage.Prefix = prefix
	return b
}

// WithDatabase stores run history in Postgres.
func (b *ConfigBuilder) WithDatabase(url string) *ConfigBuilder {
	b.config.Database.URL = url
	return b
}
