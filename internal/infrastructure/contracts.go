package infrastructure

import (
	"context"
	"time"

	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/dto"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/entity"
	"github.com/segmentio/kafka-go"
)

type (
	IntentsSender interface {
		SendIntents(ctx context.Context, intents []*entity.CleanupIntent) error
		Close() error
	}

	// IntentsReceiver delivers queued intents. A message is redelivered until
	// it is committed.
	IntentsReceiver interface {
		ReadIntent(ctx context.Context) (kafka.Message, error)
		CommitIntent(ctx context.Context, msg kafka.Message) error
		Close() error
	}

	// FrameGrabber returns one encoded frame of the video at path. A seek
	// past the end of the clip yields errs.ErrSeekRejected.
	FrameGrabber interface {
		Grab(ctx context.Context, path string, offset time.Duration) ([]byte, error)
	}

	ImageProcessor interface {
		Thumbnail(ctx context.Context, data []byte, width, height, quality int) ([]byte, error)
		Inspect(data []byte) (dto.ImageInfo, error)
	}
)
