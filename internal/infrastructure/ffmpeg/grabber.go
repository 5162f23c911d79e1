package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/types/errs"
)

const _defaultBinary = "ffmpeg"

// FrameGrabber shells out to ffmpeg for a single PNG frame.
type FrameGrabber struct {
	binary string
	run    func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

func New(binary string) *FrameGrabber {
	if strings.TrimSpace(binary) == "" {
		binary = _defaultBinary
	}

	return &FrameGrabber{binary: binary, run: runCommand}
}

// Available reports whether the ffmpeg binary can be found.
func (g *FrameGrabber) Available() error {
	if _, err := exec.LookPath(g.binary); err != nil {
		return fmt.Errorf("FrameGrabber - Available - exec.LookPath: %w", err)
	}

	return nil
}

func (g *FrameGrabber) Grab(ctx context.Context, path string, offset time.Duration) ([]byte, error) {
	stdout, stderr, err := g.run(ctx, g.binary, Args(path, offset)...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("FrameGrabber - Grab: %w", ctxErr)
		}
		return nil, fmt.Errorf("FrameGrabber - Grab - ffmpeg: %w: %s", err, lastLine(stderr))
	}

	// ffmpeg exits cleanly without writing a frame when the offset lies past
	// the end of the clip.
	if len(stdout) == 0 {
		return nil, fmt.Errorf("FrameGrabber - Grab - offset %s: %w", offset, errs.ErrSeekRejected)
	}

	return stdout, nil
}

// Args builds the ffmpeg invocation writing one PNG frame at offset to stdout.
func Args(path string, offset time.Duration) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-ss", strconv.FormatFloat(offset.Seconds(), 'f', 3, 64),
		"-i", path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && stdout.Len() > 0 {
		// Some builds exit non-zero after flushing the frame.
		return stdout.Bytes(), stderr.Bytes(), nil
	}

	return stdout.Bytes(), stderr.Bytes(), err
}

func lastLine(b []byte) string {
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")

	return strings.TrimSpace(lines[len(lines)-1])
}
