package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	domain "github.com/bryanwahyu/shelfsnap/internal/domain/scans"
)

// Extractor runs the ffmpeg binary to sample frames out of a video.
type Extractor struct {
	binary  string
	timeout time.Duration
	logger  *zap.Logger
}

func NewExtractor(binary string, timeout time.Duration, logger *zap.Logger) *Extractor {
	if binary == "" {
		binary = "ffmpeg"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{binary: binary, timeout: timeout, logger: logger}
}

// Probe reports whether the binary can be started. Only "executable not found"
// counts as unavailable; a non-zero exit from -version still means available.
func (e *Extractor) Probe(ctx context.Context) bool {
	cmd := exec.CommandContext(ctx, e.binary, "-version")
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard

	err := cmd.Run()
	if err == nil {
		return true
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return false
	}
	return true
}

// Extract writes frame_NNN.jpg files into outDir at the given rate and returns
// how many it finds afterwards. A non-zero exit yields a *domain.ToolError.
func (e *Extractor) Extract(ctx context.Context, videoPath, outDir string, fps int) (int, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, e.binary,
		"-i", videoPath,
		"-vf", fmt.Sprintf("fps=%d", fps),
		filepath.Join(outDir, domain.FrameFilePattern),
		"-hide_banner",
		"-loglevel", "error",
	)

	// stderr disimpan untuk log, tidak diteruskan ke client
	var stderr bytes.Buffer
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr
	cmd.WaitDelay = 5 * time.Second

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			exitCode = ee.ExitCode()
		}
		return 0, &domain.ToolError{
			ExitCode: exitCode,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return 0, fmt.Errorf("read frames dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, ent := range entries {
		if !ent.IsDir() {
			names = append(names, ent.Name())
		}
	}
	n := domain.CountFrames(names)

	e.logger.Debug("ffmpeg finished",
		zap.String("video", videoPath),
		zap.Int("frames", n),
		zap.Duration("took", time.Since(start)),
	)
	return n, nil
}
