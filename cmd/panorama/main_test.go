package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/user/panorama/pkg/config"
)

func runConfigApp(t *testing.T, args ...string) (config.Config, error) {
	t.Helper()

	var got config.Config
	app := &cli.App{
		Name:  "panorama",
		Flags: []cli.Flag{&cli.StringFlag{Name: "config"}},
		Commands: []*cli.Command{{
			Name:  "check",
			Flags: append(pipelineFlags(), logFlags()...),
			Action: func(c *cli.Context) error {
				var err error
				got, err = loadConfig(c)
				return err
			},
		}},
	}
	err := app.Run(append([]string{"panorama", "check"}, args...))
	return got, err
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := runConfigApp(t)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.OutputPath != config.Defaults().OutputPath {
		t.Errorf("OutputPath = %q, want default", cfg.OutputPath)
	}
	if cfg.Stitcher.Kind != "shift" {
		t.Errorf("Stitcher.Kind = %q, want shift", cfg.Stitcher.Kind)
	}
}

func TestLoadConfig_FlagsOverride(t *testing.T) {
	cfg, err := runConfigApp(t,
		"-o", "out.jpg",
		"-n", "7",
		"--stride", "3",
		"-q", "80",
		"--stitcher-cmd", "stitch-tool --fast",
		"--log-level", "debug",
	)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	if cfg.OutputPath != "out.jpg" {
		t.Errorf("OutputPath = %q, want out.jpg", cfg.OutputPath)
	}
	if cfg.MaxFrames != 7 {
		t.Errorf("MaxFrames = %d, want 7", cfg.MaxFrames)
	}
	if cfg.Stride != 3 {
		t.Errorf("Stride = %d, want 3", cfg.Stride)
	}
	if cfg.Quality != 80 {
		t.Errorf("Quality = %d, want 80", cfg.Quality)
	}
	if cfg.Stitcher.Kind != "exec" || cfg.Stitcher.Command != "stitch-tool" {
		t.Errorf("Stitcher = %+v, want exec stitch-tool", cfg.Stitcher)
	}
	if len(cfg.Stitcher.Args) != 1 || cfg.Stitcher.Args[0] != "--fast" {
		t.Errorf("Stitcher.Args = %v, want [--fast]", cfg.Stitcher.Args)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, err := runConfigApp(t, "-q", "0")
	if !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestStitch_RequiresVideo(t *testing.T) {
	app := newApp()
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.Run([]string{"panorama", "stitch"})
	var exit cli.ExitCoder
	if !errors.As(err, &exit) {
		t.Fatalf("expected exit error, got %v", err)
	}
	if exit.ExitCode() != 2 {
		t.Errorf("exit code = %d, want 2", exit.ExitCode())
	}
}

func TestVersionFlag(t *testing.T) {
	var buf bytes.Buffer
	app := newApp()
	app.Writer = &buf

	if err := app.Run([]string{"panorama", "--version"}); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte(version)) {
		t.Errorf("unexpected version output: %q", buf.String())
	}
}
