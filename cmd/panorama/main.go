// Package main provides the CLI entry point for panorama.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/user/panorama/pkg/adapters/logger"
	"github.com/user/panorama/pkg/adapters/osfilesystem"
	"github.com/user/panorama/pkg/config"
	"github.com/user/panorama/pkg/controller"
	"github.com/user/panorama/pkg/panorama"
	"github.com/user/panorama/pkg/pipeline"
	"github.com/user/panorama/pkg/ports"
	"github.com/user/panorama/pkg/server"
	"github.com/user/panorama/pkg/summarizer"
)

var version = "dev"

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "panorama",
		Usage:   l10n.T("Stitch a panning video into a single panoramic image"),
		Version: version,
		Description: l10n.T("panorama samples frames from a video, stitches them into one image, " +
			"equalizes its colors and writes it as a JPEG."),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    l10n.T("YAML configuration file"),
				EnvVars:  []string{config.EnvPrefix + "CONFIG"},
				Category: l10n.T("Configuration"),
			},
		},
		Commands: []*cli.Command{
			stitchCommand(),
			probeCommand(),
			serveCommand(),
			historyCommand(),
		},
	}
}

func init() {
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Fprintln(c.App.Writer, l10n.F("panorama version %s", c.App.Version))
	}
}

func logFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "log-level",
			Aliases:  []string{"l"},
			Usage:    l10n.T("Log level (debug, info, warn, error)"),
			Category: l10n.T("Logging"),
		},
		&cli.StringFlag{
			Name:     "log-format",
			Usage:    l10n.T("Log format (console, text, json)"),
			Category: l10n.T("Logging"),
		},
		&cli.BoolFlag{
			Name:     "quiet",
			Aliases:  []string{"Q"},
			Usage:    l10n.T("Suppress all log output"),
			Category: l10n.T("Logging"),
		},
		&cli.BoolFlag{
			Name:     "no-color",
			Usage:    l10n.T("Disable colored log output"),
			Category: l10n.T("Logging"),
		},
	}
}

func pipelineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "output",
			Aliases:  []string{"o"},
			Usage:    l10n.T("Output JPEG file path (default: panorama_result.jpg)"),
			Category: l10n.T("Output"),
		},
		&cli.IntFlag{
			Name:     "quality",
			Aliases:  []string{"q"},
			Usage:    l10n.T("JPEG quality (1-100)"),
			Category: l10n.T("Output"),
		},
		&cli.IntFlag{
			Name:     "max-frames",
			Aliases:  []string{"n"},
			Usage:    l10n.T("Maximum number of sampled frames (0 = unlimited)"),
			Category: l10n.T("Sampling"),
		},
		&cli.IntFlag{
			Name:     "stride",
			Usage:    l10n.T("Sample one frame every N frames (default: 5)"),
			Category: l10n.T("Sampling"),
		},
		&cli.StringFlag{
			Name:     "source",
			Usage:    l10n.T("Frame source (ffmpeg, opencv)"),
			Category: l10n.T("Sampling"),
		},
		&cli.StringFlag{
			Name:     "ffmpeg-path",
			Usage:    l10n.T("Path to ffmpeg executable"),
			Category: l10n.T("Sampling"),
		},
		&cli.StringFlag{
			Name:     "stitcher",
			Usage:    l10n.T("Stitching backend (shift, opencv, exec)"),
			Category: l10n.T("Stitching"),
		},
		&cli.StringFlag{
			Name:     "mode",
			Usage:    l10n.T("OpenCV stitcher mode (panorama, scans)"),
			Category: l10n.T("Stitching"),
		},
		&cli.StringFlag{
			Name:     "stitcher-cmd",
			Usage:    l10n.T("External stitcher command for the exec backend"),
			Category: l10n.T("Stitching"),
		},
		&cli.IntFlag{
			Name:     "workers",
			Aliases:  []string{"w"},
			Usage:    l10n.T("Number of parallel workers"),
			Category: l10n.T("Stitching"),
		},
		&cli.BoolFlag{
			Name:     "debug",
			Aliases:  []string{"d"},
			Usage:    l10n.T("Enable debug output"),
			Category: l10n.T("Debug"),
		},
		&cli.StringFlag{
			Name:     "debug-dir",
			Usage:    l10n.T("Directory for debug output"),
			Category: l10n.T("Debug"),
		},
	}
}

func stitchCommand() *cli.Command {
	flags := append(pipelineFlags(),
		&cli.StringFlag{
			Name:     "summary",
			Aliases:  []string{"s"},
			Usage:    l10n.T("Output execution summary to file (Markdown format)"),
			Category: l10n.T("Output"),
		},
		&cli.StringFlag{
			Name:     "save-as",
			Usage:    l10n.T("Also save the panorama to this path"),
			Category: l10n.T("Output"),
		},
	)
	return &cli.Command{
		Name:        "stitch",
		Usage:       l10n.T("Create a panorama from a video"),
		Description: l10n.T("Sample frames from the video, stitch them, equalize colors and save a JPEG."),
		ArgsUsage:   "VIDEO",
		Flags:       append(flags, logFlags()...),
		Action:      runStitch,
	}
}

func probeCommand() *cli.Command {
	return &cli.Command{
		Name:      "probe",
		Usage:     l10n.T("Show stream information for a video"),
		ArgsUsage: "VIDEO",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "source", Usage: l10n.T("Frame source (ffmpeg, opencv)"), Category: l10n.T("Sampling")},
			&cli.StringFlag{Name: "ffmpeg-path", Usage: l10n.T("Path to ffmpeg executable"), Category: l10n.T("Sampling")},
		}, logFlags()...),
		Action: runProbe,
	}
}

func serveCommand() *cli.Command {
	flags := append(pipelineFlags(),
		&cli.StringFlag{
			Name:     "addr",
			Usage:    l10n.T("HTTP listen address (default: :8080)"),
			Category: l10n.T("Server"),
		},
		&cli.StringSliceFlag{
			Name:     "allowed-origin",
			Usage:    l10n.T("Allowed CORS origin (repeatable)"),
			Value:    cli.NewStringSlice("*"),
			Category: l10n.T("Server"),
		},
	)
	return &cli.Command{
		Name:   "serve",
		Usage:  l10n.T("Serve the HTTP API"),
		Flags:  append(flags, logFlags()...),
		Action: runServe,
	}
}

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: l10n.T("List recorded runs"),
		Flags: append([]cli.Flag{
			&cli.IntFlag{Name: "limit", Value: 20, Usage: l10n.T("Maximum number of runs to list")},
			&cli.StringFlag{Name: "database-url", Usage: l10n.T("Postgres URL for run history"), Category: l10n.T("Storage")},
		}, logFlags()...),
		Action: runHistory,
	}
}

// loadConfig resolves the configuration file and environment, then applies
// the flags the user set explicitly.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.Context, osfilesystem.New(), c.String("config"), nil)
	if err != nil && !errors.Is(err, config.ErrInvalid) {
		return cfg, err
	}

	if c.IsSet("output") {
		cfg.OutputPath = c.String("output")
	}
	if c.IsSet("quality") {
		cfg.Quality = c.Int("quality")
	}
	if c.IsSet("max-frames") {
		cfg.MaxFrames = c.Int("max-frames")
	}
	if c.IsSet("stride") {
		cfg.Stride = c.Int("stride")
	}
	if c.IsSet("source") {
		cfg.Source = c.String("source")
	}
	if c.IsSet("ffmpeg-path") {
		cfg.FFmpegPath = c.String("ffmpeg-path")
	}
	if c.IsSet("stitcher") {
		cfg.Stitcher.Kind = c.String("stitcher")
	}
	if c.IsSet("mode") {
		cfg.Stitcher.Mode = c.String("mode")
	}
	if c.IsSet("stitcher-cmd") {
		fields := strings.Fields(c.String("stitcher-cmd"))
		if len(fields) > 0 {
			cfg.Stitcher.Kind = "exec"
			cfg.Stitcher.Command = fields[0]
			cfg.Stitcher.Args = fields[1:]
		}
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}
	if c.IsSet("debug-dir") {
		cfg.DebugDir = c.String("debug-dir")
	}
	if c.IsSet("addr") {
		cfg.Server.Addr = c.String("addr")
	}
	if c.IsSet("database-url") {
		cfg.Database.URL = c.String("database-url")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.Log.Format = c.String("log-format")
	}

	return cfg, cfg.Validate()
}

// newLogger returns the ports.Logger for cfg together with a slog logger
// for components that log structured records directly.
func newLogger(c *cli.Context, cfg config.Config) (ports.Logger, *slog.Logger) {
	level := ports.ParseLogLevel(cfg.Log.Level)
	if c.Bool("quiet") {
		level = ports.LevelQuiet
	}

	fd := os.Stderr.Fd()
	noColor := c.Bool("no-color") || !(isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))
	base := slog.New(logger.NewHandler(cfg.Log.Format, os.Stderr, level, noColor))

	if level == ports.LevelQuiet {
		return logger.NewNoop(), base
	}
	if cfg.Log.Format == "console" {
		return logger.NewConsole(level), base
	}
	return logger.NewSlog(base), base
}

// signalContext returns a context that is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context, log ports.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

func videoArg(c *cli.Context) (string, error) {
	if c.NArg() < 1 {
		return "", cli.Exit(l10n.T("Video argument is required"), 2)
	}
	return c.Args().First(), nil
}

func runStitch(c *cli.Context) error {
	videoPath, err := videoArg(c)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log, _ := newLogger(c, cfg)

	ctx, cancel := signalContext(c.Context, log)
	defer cancel()

	p, err := panorama.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer p.Close()

	log.Debug("Configuration: %s", cfg.String())

	result, runErr := p.Controller.Execute(ctx, videoPath, cfg.MaxFrames, func(current, total int) {
		if total == controller.TotalSteps {
			log.Debug("Step %d of %d", current, total)
		}
	})

	if path := c.String("save-as"); path != "" && result.Composite != nil {
		if err := p.Controller.Save(ctx, result, path); err != nil {
			log.Error("Failed to write output: %v", err)
		} else {
			log.Info("Output saved to %s", path)
		}
	}

	if path := c.String("summary"); path != "" {
		writeSummary(ctx, p, cfg, videoPath, result, runErr, path, log)
	}

	return runErr
}

func writeSummary(ctx context.Context, p *panorama.Pipeline, cfg config.Config, videoPath string, result pipeline.PanoramaResult, runErr error, path string, log ports.Logger) {
	source := summarizer.SourceInfo{
		Path:       videoPath,
		FrameCount: result.FrameCount,
		Duration:   result.SourceDuration,
	}
	if info, err := p.Opener.Probe(ctx, videoPath); err == nil {
		source.Codec = info.Codec
		source.FrameCount = info.FrameCount
		source.FrameRate = info.FrameRate
		source.Width = info.Width
		source.Height = info.Height
		source.Duration = info.Duration()
	}

	run := summarizer.RunInfo{
		ID:             result.SessionID,
		ProcessingTime: result.ProcessingTime,
	}
	if status, ok := pipeline.StitchStatusOf(runErr); ok {
		run.StitchStatus = status.String()
	}

	summary := summarizer.NewBuilder().
		WithSource(source).
		WithRun(run).
		WithError(runErr).
		WithSettings(summarizer.Settings{
			MaxFrames: cfg.MaxFrames,
			Stride:    cfg.Stride,
			Stitcher:  p.Stitcher.Name(),
			Quality:   cfg.Quality,
			Workers:   cfg.Workers,
		}).
		WithOutput(summarizer.OutputInfo{
			Path:          result.OutputPath,
			ObjectURL:     result.ObjectURL,
			SampledFrames: result.SampledFrames,
			Width:         result.Width(),
			Height:        result.Height(),
			FileSize:      int64(len(result.Encoded)),
		}).
		Build()

	writer := summarizer.NewWriter(summarizer.NewMarkdownFormatter(summarizer.WithTranslator(translate)), p.FS)
	if err := writer.Write(path, summary); err != nil {
		log.Error("Failed to write summary: %s", err)
		return
	}
	log.Info("Summary saved to %s", path)
}

func translate(s string) string {
	return l10n.T(s)
}

func runProbe(c *cli.Context) error {
	videoPath, err := videoArg(c)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log, _ := newLogger(c, cfg)

	opener, err := panorama.NewOpener(cfg, log)
	if err != nil {
		return err
	}

	info, err := opener.Probe(c.Context, videoPath)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", pipeline.ErrSourceUnreadable, videoPath, err)
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", l10n.T("Codec"), info.Codec)
	fmt.Fprintf(w, "%s\t%dx%d\n", l10n.T("Frame Size"), info.Width, info.Height)
	fmt.Fprintf(w, "%s\t%d\n", l10n.T("Frame Count"), info.FrameCount)
	fmt.Fprintf(w, "%s\t%.3f\n", l10n.T("Frame Rate"), info.FrameRate)
	fmt.Fprintf(w, "%s\t%.2f s\n", l10n.T("Video Duration"), info.Duration().Seconds())
	return w.Flush()
}

func runServe(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log, base := newLogger(c, cfg)

	ctx, cancel := signalContext(c.Context, log)
	defer cancel()

	p, err := panorama.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer p.Close()

	registry := controller.NewRegistry(cfg.Server.SessionLimit)
	handlers := server.NewHandlers(p.Controller, registry, p.History, p.Metrics, base,
		server.WithDefaultMaxFrames(cfg.MaxFrames))
	router := server.NewRouter(handlers, base, server.Config{
		AllowedOrigins: c.StringSlice("allowed-origin"),
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		base.Info("server starting", slog.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	base.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	registry.CancelAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	if err := registry.Wait(shutdownCtx); err != nil {
		base.Warn("runs still active at shutdown", slog.Any("error", err))
	}

	base.Info("server stopped")
	return nil
}

func runHistory(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if !cfg.Database.Enabled() {
		return cli.Exit(l10n.T("Run history requires a database URL"), 2)
	}
	log, _ := newLogger(c, cfg)

	p, err := panorama.New(c.Context, cfg, log)
	if err != nil {
		return err
	}
	defer p.Close()

	records, err := p.History.List(c.Context, c.Int("limit"))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join([]string{"ID", l10n.T("Status"), l10n.T("Video"), l10n.T("Size"), l10n.T("Finished")}, "\t"))
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%dx%d\t%s\n",
			rec.ID, rec.Status, rec.VideoPath, rec.Width, rec.Height,
			rec.FinishedAt.Local().Format(time.DateTime))
	}
	return w.Flush()
}
