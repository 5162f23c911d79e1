package repo

import (
	"context"
	"io"
	"time"

	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/dto"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/entity"
	"github.com/google/uuid"
)

type (
	// BlobRepo is the object store. Delete of a missing key succeeds.
	BlobRepo interface {
		Upload(ctx context.Context, key string, data io.Reader, contentType string, size int64) error
		Delete(ctx context.Context, key string) error
		PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
		PublicURL(key string) string
	}

	MediaRepo interface {
		Create(ctx context.Context, media *entity.MediaAsset) error
		GetByID(ctx context.Context, id int64) (*entity.MediaAsset, error)
		List(ctx context.Context, filter dto.MediaFilter) ([]*entity.MediaAsset, error)
		// Update writes every mutable column of media when the stored version
		// matches media.Version, then bumps the version.
		Update(ctx context.Context, media *entity.MediaAsset) error
		// Delete removes the row. A version <= 0 skips the optimistic check.
		Delete(ctx context.Context, id int64, version int64) error
	}

	RegistrationImageRepo interface {
		GetBySlot(ctx context.Context, slot entity.Slot) (*entity.RegistrationImage, error)
		List(ctx context.Context) ([]*entity.RegistrationImage, error)
		// Upsert inserts the slot row or overwrites the existing one in place.
		// prevVersion is the version the caller read, 0 for an empty slot; a
		// row changed or created since then yields ErrConflict.
		Upsert(ctx context.Context, img *entity.RegistrationImage, prevVersion int64) error
		// Relabel moves the row to another slot without touching its image.
		Relabel(ctx context.Context, id, version int64, to entity.Slot, at time.Time) error
		Delete(ctx context.Context, id, version int64) error
	}

	CleanupIntentRepo interface {
		Create(ctx context.Context, intent *entity.CleanupIntent) error
		GetByID(ctx context.Context, id uuid.UUID) (*entity.CleanupIntent, error)
		MarkCompleted(ctx context.Context, id uuid.UUID) error
		GetStalePending(ctx context.Context, staleBefore time.Time, maxRetries, limit int) ([]*entity.CleanupIntent, error)
		MarkAsProcessingBatch(ctx context.Context, ids uuid.UUIDs) error
		IncrementRetryCountBatch(ctx context.Context, ids uuid.UUIDs, lastError string) error
		MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) (int64, error)
		RequeueStuckProcessing(ctx context.Context, stuckBefore time.Time) (int64, error)
		DeleteFinishedBefore(ctx context.Context, before time.Time) (int64, error)
	}

	Transactor interface {
		WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error
	}
)
