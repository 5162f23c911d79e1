package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/infrastructure"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/infrastructure/metrics"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/types/errs"
)

type Config struct {
	Offset  time.Duration
	Width   int
	Height  int
	Quality int
	Timeout time.Duration
}

// ThumbnailUseCase turns a video into a still JPEG. It never touches
// persisted state.
type ThumbnailUseCase struct {
	grabber infrastructure.FrameGrabber
	p       infrastructure.ImageProcessor
	cfg     Config
}

func New(grabber infrastructure.FrameGrabber, p infrastructure.ImageProcessor, cfg Config) *ThumbnailUseCase {
	return &ThumbnailUseCase{grabber, p, cfg}
}

// Extract grabs the frame at the configured offset, falling back to the first
// frame for clips shorter than the offset. Every failure wraps
// errs.ErrThumbnail.
func (uc *ThumbnailUseCase) Extract(ctx context.Context, video io.Reader) ([]byte, error) {
	if uc.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.cfg.Timeout)
		defer cancel()
	}

	thumb, err := uc.extract(ctx, video)
	if err != nil {
		metrics.RecordThumbnail(metrics.StatusError)

		return nil, fmt.Errorf("ThumbnailUseCase - Extract: %w: %w", errs.ErrThumbnail, err)
	}

	metrics.RecordThumbnail(metrics.StatusSuccess)

	return thumb, nil
}

func (uc *ThumbnailUseCase) extract(ctx context.Context, video io.Reader) ([]byte, error) {
	path, cleanup, err := spool(video)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	frame, err := uc.grabber.Grab(ctx, path, uc.cfg.Offset)
	if errors.Is(err, errs.ErrSeekRejected) && uc.cfg.Offset > 0 {
		frame, err = uc.grabber.Grab(ctx, path, 0)
	}
	if err != nil {
		return nil, fmt.Errorf("uc.grabber.Grab: %w", err)
	}

	thumb, err := uc.p.Thumbnail(ctx, frame, uc.cfg.Width, uc.cfg.Height, uc.cfg.Quality)
	if err != nil {
		return nil, fmt.Errorf("uc.p.Thumbnail: %w", err)
	}

	return thumb, nil
}

// spool copies the video to a temp file; ffmpeg needs a seekable input.
func spool(video io.Reader) (string, func(), error) {
	f, err := os.CreateTemp("", "thumbnail-*.video")
	if err != nil {
		return "", nil, fmt.Errorf("os.CreateTemp: %w", err)
	}

	cleanup := func() {
		_ = os.Remove(f.Name())
	}

	_, err = io.Copy(f, video)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		cleanup()

		return "", nil, fmt.Errorf("spool: %w", err)
	}

	return f.Name(), cleanup, nil
}
