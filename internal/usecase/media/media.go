package media

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/dto"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/entity"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/repo"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/usecase"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/logger"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/objectkey"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/types/errs"
)

type MediaUseCase struct {
	blobRepo   repo.BlobRepo
	mediaRepo  repo.MediaRepo
	transactor repo.Transactor
	cleanup    usecase.CleanupUseCase
	thumbnails usecase.ThumbnailUseCase

	presignTTL time.Duration
	logger     logger.Interface
}

func New(
	blobRepo repo.BlobRepo,
	mediaRepo repo.MediaRepo,
	transactor repo.Transactor,
	cleanup usecase.CleanupUseCase,
	thumbnails usecase.ThumbnailUseCase,
	presignTTL time.Duration,
	l logger.Interface,
) *MediaUseCase {
	return &MediaUseCase{
		blobRepo:   blobRepo,
		mediaRepo:  mediaRepo,
		transactor: transactor,
		cleanup:    cleanup,
		thumbnails: thumbnails,
		presignTTL: presignTTL,
		logger:     l,
	}
}

// IssueUpload authorizes one direct PUT. Nothing is reserved or recorded, so
// an unused authorization needs no cleanup.
func (uc *MediaUseCase) IssueUpload(ctx context.Context, parent entity.Parent, prefix, fileName, fileType string) (*dto.UploadAuthorization, error) {
	fileName = strings.TrimSpace(fileName)
	fileType = strings.TrimSpace(fileType)
	if fileName == "" || fileType == "" {
		return nil, fmt.Errorf("MediaUseCase - IssueUpload: fileName and fileType are required: %w", errs.ErrValidation)
	}

	prefix, err := resolvePrefix(parent, prefix)
	if err != nil {
		return nil, fmt.Errorf("MediaUseCase - IssueUpload: %w", err)
	}

	key := objectkey.New(prefix, fileName)

	uploadURL, err := uc.blobRepo.PresignPut(ctx, key, fileType, uc.presignTTL)
	if err != nil {
		return nil, fmt.Errorf("MediaUseCase - IssueUpload - uc.blobRepo.PresignPut: %w: %w", errs.ErrStorage, err)
	}

	return &dto.UploadAuthorization{
		UploadURL:   uploadURL,
		PublicURL:   uc.blobRepo.PublicURL(key),
		Key:         key,
		ContentType: fileType,
		ExpiresAt:   time.Now().UTC().Add(uc.presignTTL),
	}, nil
}

func (uc *MediaUseCase) Create(ctx context.Context, in dto.NewMedia) (*entity.MediaAsset, error) {
	media, err := newAsset(in)
	if err != nil {
		return nil, fmt.Errorf("MediaUseCase - Create: %w", err)
	}

	if err := uc.mediaRepo.Create(ctx, media); err != nil {
		return nil, fmt.Errorf("MediaUseCase - Create - uc.mediaRepo.Create: %w", err)
	}

	return media, nil
}

func (uc *MediaUseCase) Get(ctx context.Context, parent entity.Parent, id int64) (*entity.MediaAsset, error) {
	media, err := uc.mediaRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("MediaUseCase - Get - uc.mediaRepo.GetByID: %w", err)
	}

	if media.Parent != parent {
		return nil, fmt.Errorf("MediaUseCase - Get: media %d is not under %s: %w", id, parent, errs.ErrRecordNotFound)
	}

	return media, nil
}

func (uc *MediaUseCase) List(ctx context.Context, filter dto.MediaFilter) ([]*entity.MediaAsset, error) {
	items, err := uc.mediaRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("MediaUseCase - List - uc.mediaRepo.List: %w", err)
	}

	return items, nil
}

// Update applies only the supplied fields. Objects the row stops referencing
// are released after the row is written.
func (uc *MediaUseCase) Update(ctx context.Context, parent entity.Parent, id int64, patch dto.MediaPatch) (*entity.MediaAsset, error) {
	if patch.IsEmpty() {
		return nil, fmt.Errorf("MediaUseCase - Update: nothing to update: %w", errs.ErrValidation)
	}

	current, err := uc.Get(ctx, parent, id)
	if err != nil {
		return nil, fmt.Errorf("MediaUseCase - Update: %w", err)
	}

	updated := patch.Apply(*current)
	released := unreferenced(current, &updated)

	var intent *entity.CleanupIntent
	err = uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := uc.mediaRepo.Update(ctx, &updated); err != nil {
			return fmt.Errorf("uc.mediaRepo.Update: %w", err)
		}

		if len(released) > 0 {
			tracked, err := uc.cleanup.Track(ctx, entity.AggregateBlob, id, released)
			if err != nil {
				return fmt.Errorf("uc.cleanup.Track: %w", err)
			}
			intent = tracked
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("MediaUseCase - Update: %w", err)
	}

	if intent != nil {
		if err := uc.cleanup.Finish(ctx, intent); err != nil {
			uc.logger.Warn("MediaUseCase - Update - replaced objects of media %d left for the sweep: %v", id, err)
		}
	}

	return &updated, nil
}

// Delete removes the record after its objects. The returned record carries
// the URLs that were cleaned up.
//
// A failed object delete fails the call and keeps the row; the pending
// intent lets the sweep finish the job.
func (uc *MediaUseCase) Delete(ctx context.Context, parent entity.Parent, id int64) (*entity.MediaAsset, error) {
	media, err := uc.Get(ctx, parent, id)
	if err != nil {
		return nil, fmt.Errorf("MediaUseCase - Delete: %w", err)
	}

	keys := objectkey.DeriveKeys(media.ObjectURLs()...)

	var intent *entity.CleanupIntent
	if len(keys) > 0 {
		intent, err = uc.cleanup.Track(ctx, entity.AggregateMedia, media.ID, keys)
		if err != nil {
			return nil, fmt.Errorf("MediaUseCase - Delete - uc.cleanup.Track: %w", err)
		}

		if err := uc.cleanup.DeleteObjects(ctx, keys); err != nil {
			return nil, fmt.Errorf("MediaUseCase - Delete - uc.cleanup.DeleteObjects: %w", err)
		}
	}

	err = uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := uc.mediaRepo.Delete(ctx, media.ID, media.Version); err != nil {
			return fmt.Errorf("uc.mediaRepo.Delete: %w", err)
		}

		if intent != nil {
			if err := uc.cleanup.Complete(ctx, intent.ID); err != nil {
				return fmt.Errorf("uc.cleanup.Complete: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("MediaUseCase - Delete: %w", err)
	}

	return media, nil
}

func newAsset(in dto.NewMedia) (*entity.MediaAsset, error) {
	if _, ok := entity.ParseParent(string(in.Parent)); !ok {
		return nil, fmt.Errorf("unknown parent %q: %w", in.Parent, errs.ErrValidation)
	}

	athleteID := in.AthleteID
	switch in.Parent {
	case entity.ParentAthlete:
		if athleteID == nil || *athleteID <= 0 {
			return nil, fmt.Errorf("athleteId is required: %w", errs.ErrValidation)
		}
	case entity.ParentGallery:
		athleteID = nil
	}

	media := &entity.MediaAsset{
		Parent:       in.Parent,
		AthleteID:    athleteID,
		Name:         strings.TrimSpace(in.Name),
		Description:  in.Description,
		Date:         in.Date,
		Category:     in.Category,
		MediaURL:     strings.TrimSpace(in.MediaURL),
		MediaType:    strings.TrimSpace(in.MediaType),
		ThumbnailURL: strings.TrimSpace(in.ThumbnailURL),
	}
	if !media.IsVideo() {
		media.ThumbnailURL = ""
	}

	return media, nil
}

// unreferenced lists keys before holds that after no longer does.
func unreferenced(before, after *entity.MediaAsset) []string {
	still := make(map[string]struct{})
	for _, k := range objectkey.DeriveKeys(after.ObjectURLs()...) {
		still[k] = struct{}{}
	}

	var out []string
	for _, k := range objectkey.DeriveKeys(before.ObjectURLs()...) {
		if _, ok := still[k]; !ok {
			out = append(out, k)
		}
	}

	return out
}
