package ffmpegsource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
)

var (
	// ErrFFmpegNotFound is returned when ffmpeg is not installed.
	ErrFFmpegNotFound = errors.New("ffmpegsource: ffmpeg not found")

	// ErrFFprobeNotFound is returned when ffprobe is needed but missing.
	ErrFFprobeNotFound = errors.New("ffmpegsource: ffprobe not found")
)

var (
	pathMu           sync.RWMutex
	customFFmpegPath string
)

// SetFFmpegPath overrides the ffmpeg executable. ffprobe is looked up
// next to it. An empty path restores the default lookup.
func SetFFmpegPath(path string) {
	pathMu.Lock()
	defer pathMu.Unlock()
	customFFmpegPath = path
}

// IsAvailable reports whether ffmpeg can be found.
func IsAvailable() bool {
	_, err := findFFmpeg()
	return err == nil
}

// findFFmpeg searches for ffmpeg in PATH and common locations.
// If a custom path was set with SetFFmpegPath, only that path is used.
func findFFmpeg() (string, error) {
	if custom := customPath(); custom != "" {
		if _, err := os.Stat(custom); err == nil {
			return custom, nil
		}
		return "", fmt.Errorf("%w: custom path %s not found", ErrFFmpegNotFound, custom)
	}
	return findTool("ffmpeg", ErrFFmpegNotFound)
}

// findFFprobe searches for ffprobe, preferring the sibling of a custom
// ffmpeg path.
func findFFprobe() (string, error) {
	if custom := customPath(); custom != "" {
		sibling := filepath.Join(filepath.Dir(custom), executable("ffprobe"))
		if _, err := os.Stat(sibling); err == nil {
			return sibling, nil
		}
	}
	return findTool("ffprobe", ErrFFprobeNotFound)
}

func customPath() string {
	pathMu.RLock()
	defer pathMu.RUnlock()
	return customFFmpegPath
}

func findTool(name string, notFound error) (string, error) {
	execName := executable(name)
	if path, err := exec.LookPath(execName); err == nil {
		return path, nil
	}

	var dirs []string
	if runtime.GOOS == "windows" {
		dirs = []string{
			`C:\ffmpeg\bin`,
			`C:\Program Files\ffmpeg\bin`,
			`C:\Program Files (x86)\ffmpeg\bin`,
		}
	} else {
		dirs = []string{
			"/usr/bin",
			"/usr/local/bin",
			"/opt/homebrew/bin",
			"/snap/bin",
		}
	}

	for _, dir := range dirs {
		p := filepath.Join(dir, execName)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", notFound
}

func executable(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

// FFmpegError is a failed ffmpeg or ffprobe run with its stderr output.
type FFmpegError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *FFmpegError) Error() string {
	return fmt.Sprintf("ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *FFmpegError) Unwrap() error {
	return e.Err
}

// run executes bin and returns its stdout.
func run(ctx context.Context, bin string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, bin, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s cancelled: %w", filepath.Base(bin), ctx.Err())
		}
		return nil, &FFmpegError{
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	return stdout.Bytes(), nil
}
