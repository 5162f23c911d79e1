package usecase

import (
	"context"
	"io"

	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/dto"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/entity"
	"github.com/google/uuid"
)

type (
	MediaUseCase interface {
		IssueUpload(ctx context.Context, parent entity.Parent, prefix, fileName, fileType string) (*dto.UploadAuthorization, error)
		Create(ctx context.Context, in dto.NewMedia) (*entity.MediaAsset, error)
		Ingest(ctx context.Context, in dto.IngestMedia) (*entity.MediaAsset, error)
		Get(ctx context.Context, parent entity.Parent, id int64) (*entity.MediaAsset, error)
		List(ctx context.Context, filter dto.MediaFilter) ([]*entity.MediaAsset, error)
		Update(ctx context.Context, parent entity.Parent, id int64, patch dto.MediaPatch) (*entity.MediaAsset, error)
		Delete(ctx context.Context, parent entity.Parent, id int64) (*entity.MediaAsset, error)
	}

	SlotUseCase interface {
		Upload(ctx context.Context, slot entity.Slot, in dto.SlotUpload) (*entity.RegistrationImage, error)
		PromoteNext(ctx context.Context) (*entity.RegistrationImage, error)
		Delete(ctx context.Context, slot entity.Slot) (*entity.RegistrationImage, error)
		List(ctx context.Context) ([]*entity.RegistrationImage, error)
	}

	CleanupUseCase interface {
		DeleteObjects(ctx context.Context, keys []string) error
		Track(ctx context.Context, aggregate entity.Aggregate, aggregateID int64, keys []string) (*entity.CleanupIntent, error)
		Complete(ctx context.Context, id uuid.UUID) error
		Finish(ctx context.Context, intent *entity.CleanupIntent) error
		Resume(ctx context.Context, id uuid.UUID) error
		ClaimStaleIntents(ctx context.Context, maxRetries, limit int) ([]*entity.CleanupIntent, error)
		IncrementRetryCountBatch(ctx context.Context, intents []*entity.CleanupIntent, cause error) error
		MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) error
		RequeueStuck(ctx context.Context) error
		CleanupIntents(ctx context.Context) error
	}

	ThumbnailUseCase interface {
		Extract(ctx context.Context, video io.Reader) ([]byte, error)
	}
)
