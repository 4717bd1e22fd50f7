// Package panorama provides a high-level API that wires the adapters and
// stages for turning a video into a panoramic image.
package panorama

import (
	"context"
	"errors"
	"fmt"

	"github.com/user/panorama/pkg/adapters/execstitcher"
	"github.com/user/panorama/pkg/adapters/ffmpegsource"
	"github.com/user/panorama/pkg/adapters/filesink"
	"github.com/user/panorama/pkg/adapters/ggrenderer"
	"github.com/user/panorama/pkg/adapters/nullsink"
	"github.com/user/panorama/pkg/adapters/opencv"
	"github.com/user/panorama/pkg/adapters/osfilesystem"
	"github.com/user/panorama/pkg/adapters/s3store"
	"github.com/user/panorama/pkg/adapters/shiftstitcher"
	"github.com/user/panorama/pkg/config"
	"github.com/user/panorama/pkg/controller"
	"github.com/user/panorama/pkg/history"
	"github.com/user/panorama/pkg/metrics"
	"github.com/user/panorama/pkg/ports"
	"github.com/user/panorama/pkg/stages/colorcorrect"
	"github.com/user/panorama/pkg/stages/encode"
	"github.com/user/panorama/pkg/stages/sample"
	"github.com/user/panorama/pkg/stages/stitch"
)

var (
	// ErrUnknownSource is returned for an unsupported frame source name.
	ErrUnknownSource = errors.New("panorama: unknown frame source")

	// ErrUnknownStitcher is returned for an unsupported stitcher kind.
	ErrUnknownStitcher = errors.New("panorama: unknown stitcher")
)

// Pipeline is a fully wired controller together with the collaborators
// callers may need directly.
type Pipeline struct {
	Controller *controller.Controller

	Opener   ports.VideoOpener
	Stitcher ports.Stitcher
	Renderer ports.Renderer
	FS       ports.FileSystem
	Store    ports.ObjectStore // nil when storage is disabled

	History history.Repository
	Metrics *metrics.Recorder

	closers []func()
}

// New builds a Pipeline from cfg. Close must be called to release the
// history database, if one was opened.
func New(ctx context.Context, cfg config.Config, logger ports.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		Renderer: ggrenderer.New(),
		FS:       osfilesystem.New(),
		Metrics:  metrics.New(),
	}

	var err error
	if p.Opener, err = NewOpener(cfg, logger); err != nil {
		return nil, err
	}
	if p.Stitcher, err = NewStitcher(cfg.Stitcher, cfg.Workers, logger); err != nil {
		return nil, err
	}

	if cfg.Database.Enabled() {
		pg, err := history.NewPostgres(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		p.History = pg
		p.closers = append(p.closers, pg.Close)
	} else {
		p.History = history.NewMemory()
	}

	if cfg.Storage.Enabled() {
		store, err := s3store.New(ctx, s3store.Config{
			Bucket:          cfg.Storage.Bucket,
			Region:          cfg.Storage.Region,
			Prefix:          cfg.Storage.Prefix,
			Endpoint:        cfg.Storage.Endpoint,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
		})
		if err != nil {
			p.Close()
			return nil, err
		}
		p.Store = store
	}

	var sink ports.DebugSink = nullsink.New()
	if cfg.Debug {
		sink = filesink.New(cfg.DebugDir, p.FS, p.Renderer)
	}

	p.Controller = controller.New(p.Opener, controller.Stages{
		Sample:  sample.NewStage(p.Opener, sink, logger),
		Stitch:  stitch.NewStage(p.Stitcher, p.Renderer, sink, logger),
		Correct: colorcorrect.NewStage(logger, cfg.Workers),
		Encode:  encode.NewStage(p.Renderer, logger),
	}, p.FS, logger, controller.Options{
		OutputPath:   cfg.OutputPath,
		Stride:       cfg.Stride,
		JPEGQuality:  cfg.Quality,
		StitcherName: p.Stitcher.Name(),
		History:      p.History,
		Metrics:      p.Metrics,
		Store:        p.Store,
	})

	return p, nil
}

// Close releases resources opened by New.
func (p *Pipeline) Close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		p.closers[i]()
	}
	p.closers = nil
}

// NewOpener returns the frame source selected by cfg.Source.
func NewOpener(cfg config.Config, logger ports.Logger) (ports.VideoOpener, error) {
	switch cfg.Source {
	case "", "ffmpeg":
		ffmpegsource.SetFFmpegPath(cfg.FFmpegPath)
		return ffmpegsource.New(logger), nil
	case "opencv":
		if !opencv.Available() {
			return nil, fmt.Errorf("source %q: %w", cfg.Source, opencv.ErrNotBuilt)
		}
		return opencv.NewOpener(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, cfg.Source)
	}
}

// NewStitcher returns the stitching capability selected by sc.
func NewStitcher(sc config.StitcherConfig, workers int, logger ports.Logger) (ports.Stitcher, error) {
	switch sc.Kind {
	case "", "shift":
		return shiftstitcher.New(shiftstitcher.Options{
			WorkWidth:  sc.WorkWidth,
			MinOverlap: sc.MinOverlap,
			MaxCost:    sc.MaxCost,
			Workers:    workers,
		}), nil
	case "opencv":
		if !opencv.Available() {
			return nil, fmt.Errorf("stitcher %q: %w", sc.Kind, opencv.ErrNotBuilt)
		}
		mode := opencv.ModePanorama
		if sc.Mode == "scans" {
			mode = opencv.ModeScans
		}
		return opencv.NewStitcher(mode), nil
	case "exec":
		return execstitcher.New(sc.Command, sc.Args, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStitcher, sc.Kind)
	}
}
