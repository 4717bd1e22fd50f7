// Package execstitcher delegates stitching to an external program.
//
// The frames are written as frame_000.png, frame_001.png, ... into a
// temporary directory and the program is run as
//
//	<command> <args...> -o <dir>/panorama.png <frames...>
//
// A zero exit status with a readable output image is success. Any other
// exit status is reported as the stitch status, so a wrapper around
// OpenCV can pass cv::Stitcher::Status through unchanged.
package execstitcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/user/panorama/pkg/ports"
)

// ErrNoCommand is returned when no program was configured.
var ErrNoCommand = errors.New("execstitcher: no command configured")

// CommandError is a failed run of the external program with its stderr.
type CommandError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("stitch command error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Stitcher runs an external stitching program.
type Stitcher struct {
	command string
	args    []string
	tempDir string
	logger  ports.Logger
}

// New creates a Stitcher running command with the leading args.
func New(command string, args []string, logger ports.Logger) *Stitcher {
	return &Stitcher{
		command: command,
		args:    args,
		logger:  logger.WithComponent("execstitcher"),
	}
}

// WithTempDir sets the parent directory for frame files.
func (s *Stitcher) WithTempDir(dir string) *Stitcher {
	s.tempDir = dir
	return s
}

func (s *Stitcher) Name() string {
	return "exec:" + filepath.Base(s.command)
}

func (s *Stitcher) Stitch(ctx context.Context, images []image.Image, progress ports.StitchProgressFunc) (ports.StitchResult, error) {
	if s.command == "" {
		return ports.StitchResult{}, ErrNoCommand
	}

	dir, err := os.MkdirTemp(s.tempDir, "panorama-stitch-*")
	if err != nil {
		return ports.StitchResult{}, fmt.Errorf("create temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			s.logger.Warn("Failed to remove %s: %v", dir, err)
		}
	}()

	frames, err := writeFrames(ctx, dir, images)
	if err != nil {
		return ports.StitchResult{}, err
	}

	outPath := filepath.Join(dir, "panorama.png")
	args := append(append(append([]string{}, s.args...), "-o", outPath), frames...)

	cmd := exec.CommandContext(ctx, s.command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	s.logger.Debug("Running %s with %d frames", s.command, len(frames))

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ports.StitchResult{}, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
			s.logger.Debug("Stitch command exited with %d: %s", exitErr.ExitCode(), stderr.String())
			return ports.StitchResult{Status: ports.StitchStatus(exitErr.ExitCode())}, nil
		}
		return ports.StitchResult{}, &CommandError{Args: args, Stderr: stderr.String(), Err: err}
	}

	composite, err := readPNG(outPath)
	if err != nil {
		return ports.StitchResult{}, &CommandError{Args: args, Stderr: stderr.String(), Err: err}
	}

	if progress != nil {
		progress(1, 1)
	}

	return ports.StitchResult{Status: ports.StitchOK, Composite: composite}, nil
}

func writeFrames(ctx context.Context, dir string, images []image.Image) ([]string, error) {
	paths := make([]string, len(images))
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		paths[i] = filepath.Join(dir, fmt.Sprintf("frame_%03d.png", i))

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode frame %d: %w", i, err)
		}
		if err := os.WriteFile(paths[i], buf.Bytes(), 0o644); err != nil {
			return nil, fmt.Errorf("write frame %d: %w", i, err)
		}
	}
	return paths, nil
}

func readPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode output: %w", err)
	}
	return img, nil
}

var _ ports.Stitcher = (*Stitcher)(nil)
