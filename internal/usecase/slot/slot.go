package slot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/dto"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/entity"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/infrastructure"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/infrastructure/metrics"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/repo"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/usecase"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/logger"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/objectkey"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/types/errs"
)

const (
	KeyPrefix = "registration/session-images/"

	transitionUpload  = "upload"
	transitionPromote = "promote_next"
	transitionDelete  = "delete"
)

// SlotUseCase runs the current/next/camp registration image slots.
//
// Objects behind a slot are released after the row change commits. A failed
// release never fails the transition: the slot must stay reusable, and the
// pending cleanup intent lets the sweep retry the delete.
type SlotUseCase struct {
	blobRepo   repo.BlobRepo
	slotRepo   repo.RegistrationImageRepo
	transactor repo.Transactor
	cleanup    usecase.CleanupUseCase
	p          infrastructure.ImageProcessor

	logger logger.Interface
}

func New(
	blobRepo repo.BlobRepo,
	slotRepo repo.RegistrationImageRepo,
	transactor repo.Transactor,
	cleanup usecase.CleanupUseCase,
	p infrastructure.ImageProcessor,
	l logger.Interface,
) *SlotUseCase {
	return &SlotUseCase{
		blobRepo:   blobRepo,
		slotRepo:   slotRepo,
		transactor: transactor,
		cleanup:    cleanup,
		p:          p,
		logger:     l,
	}
}

func (uc *SlotUseCase) List(ctx context.Context) ([]*entity.RegistrationImage, error) {
	images, err := uc.slotRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("SlotUseCase - List - uc.slotRepo.List: %w", err)
	}

	return images, nil
}

// Upload writes a new object for slot and points the slot row at it, creating
// the row on first use. The object it replaces is released.
func (uc *SlotUseCase) Upload(ctx context.Context, slot entity.Slot, in dto.SlotUpload) (*entity.RegistrationImage, error) {
	if err := uc.validate(slot, in); err != nil {
		metrics.RecordSlotTransition(transitionUpload, metrics.StatusError)

		return nil, fmt.Errorf("SlotUseCase - Upload: %w", err)
	}

	// Every upload gets its own key. A fixed per-slot key would let an upload
	// to next overwrite the object a promoted current row still points at.
	key := objectkey.New(KeyPrefix+string(slot)+"/", in.FileName)

	err := uc.blobRepo.Upload(ctx, key, bytes.NewReader(in.Data), in.ContentType, int64(len(in.Data)))
	if err != nil {
		metrics.RecordSlotTransition(transitionUpload, metrics.StatusError)

		return nil, fmt.Errorf("SlotUseCase - Upload - uc.blobRepo.Upload: %w: %w", errs.ErrStorage, err)
	}

	img := &entity.RegistrationImage{
		Slot:      slot,
		ImageURL:  uc.blobRepo.PublicURL(key),
		Title:     strings.TrimSpace(in.Title),
		UpdatedAt: time.Now().UTC(),
	}

	var intent *entity.CleanupIntent
	err = uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		previous, err := uc.slotRepo.GetBySlot(ctx, slot)
		if err != nil && !errors.Is(err, errs.ErrRecordNotFound) {
			return fmt.Errorf("uc.slotRepo.GetBySlot: %w", err)
		}

		var prevVersion int64
		if previous != nil {
			prevVersion = previous.Version
		}

		if err := uc.slotRepo.Upsert(ctx, img, prevVersion); err != nil {
			return fmt.Errorf("uc.slotRepo.Upsert: %w", err)
		}

		if previous != nil && previous.ImageURL != img.ImageURL {
			intent, err = uc.track(ctx, previous)
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		if delErr := uc.blobRepo.Delete(ctx, key); delErr != nil {
			uc.logger.Error(delErr, "SlotUseCase - Upload - uc.blobRepo.Delete")
		}
		metrics.RecordSlotTransition(transitionUpload, metrics.StatusError)

		return nil, fmt.Errorf("SlotUseCase - Upload: %w", err)
	}

	uc.release(ctx, intent)
	metrics.RecordSlotTransition(transitionUpload, metrics.StatusSuccess)

	return img, nil
}

// PromoteNext moves the next image into current. The old current row and the
// relabel commit together; afterwards exactly one current row exists and next
// is empty. Camp is never touched.
func (uc *SlotUseCase) PromoteNext(ctx context.Context) (*entity.RegistrationImage, error) {
	var (
		promoted entity.RegistrationImage
		intent   *entity.CleanupIntent
	)

	err := uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		next, err := uc.slotRepo.GetBySlot(ctx, entity.SlotNext)
		if err != nil {
			if errors.Is(err, errs.ErrRecordNotFound) {
				return errs.ErrNoNextImage
			}
			return fmt.Errorf("uc.slotRepo.GetBySlot next: %w", err)
		}

		current, err := uc.slotRepo.GetBySlot(ctx, entity.SlotCurrent)
		if err != nil && !errors.Is(err, errs.ErrRecordNotFound) {
			return fmt.Errorf("uc.slotRepo.GetBySlot current: %w", err)
		}

		if current != nil {
			if err := uc.slotRepo.Delete(ctx, current.ID, current.Version); err != nil {
				return fmt.Errorf("uc.slotRepo.Delete: %w", err)
			}

			intent, err = uc.track(ctx, current)
			if err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		if err := uc.slotRepo.Relabel(ctx, next.ID, next.Version, entity.SlotCurrent, now); err != nil {
			return fmt.Errorf("uc.slotRepo.Relabel: %w", err)
		}

		promoted = *next
		promoted.Slot = entity.SlotCurrent
		promoted.Version++
		promoted.UpdatedAt = now

		return nil
	})
	if err != nil {
		metrics.RecordSlotTransition(transitionPromote, metrics.StatusError)

		return nil, fmt.Errorf("SlotUseCase - PromoteNext: %w", err)
	}

	uc.release(ctx, intent)
	metrics.RecordSlotTransition(transitionPromote, metrics.StatusSuccess)

	return &promoted, nil
}

// Delete empties slot and returns the removed row.
func (uc *SlotUseCase) Delete(ctx context.Context, slot entity.Slot) (*entity.RegistrationImage, error) {
	if _, ok := entity.ParseSlot(string(slot)); !ok {
		return nil, fmt.Errorf("SlotUseCase - Delete: unknown slot %q: %w", slot, errs.ErrValidation)
	}

	var (
		deleted *entity.RegistrationImage
		intent  *entity.CleanupIntent
	)

	err := uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		img, err := uc.slotRepo.GetBySlot(ctx, slot)
		if err != nil {
			return fmt.Errorf("uc.slotRepo.GetBySlot: %w", err)
		}

		if err := uc.slotRepo.Delete(ctx, img.ID, img.Version); err != nil {
			return fmt.Errorf("uc.slotRepo.Delete: %w", err)
		}

		intent, err = uc.track(ctx, img)
		if err != nil {
			return err
		}
		deleted = img

		return nil
	})
	if err != nil {
		metrics.RecordSlotTransition(transitionDelete, metrics.StatusError)

		return nil, fmt.Errorf("SlotUseCase - Delete: %w", err)
	}

	uc.release(ctx, intent)
	metrics.RecordSlotTransition(transitionDelete, metrics.StatusSuccess)

	return deleted, nil
}

func (uc *SlotUseCase) validate(slot entity.Slot, in dto.SlotUpload) error {
	if _, ok := entity.ParseSlot(string(slot)); !ok {
		return fmt.Errorf("unknown slot %q: %w", slot, errs.ErrValidation)
	}

	if len(in.Data) == 0 {
		return fmt.Errorf("image is required: %w", errs.ErrValidation)
	}

	if !strings.HasPrefix(in.ContentType, "image/") {
		return fmt.Errorf("image must be an image, got %q: %w", in.ContentType, errs.ErrValidation)
	}

	if _, err := uc.p.Inspect(in.Data); err != nil {
		return fmt.Errorf("image is not decodable: %w: %w", errs.ErrValidation, err)
	}

	return nil
}

// track records the release of img's object. Images whose URL carries no key
// have nothing to release.
func (uc *SlotUseCase) track(ctx context.Context, img *entity.RegistrationImage) (*entity.CleanupIntent, error) {
	keys := objectkey.DeriveKeys(img.ImageURL)
	if len(keys) == 0 {
		return nil, nil
	}

	intent, err := uc.cleanup.Track(ctx, entity.AggregateBlob, img.ID, keys)
	if err != nil {
		return nil, fmt.Errorf("uc.cleanup.Track: %w", err)
	}

	return intent, nil
}

func (uc *SlotUseCase) release(ctx context.Context, intent *entity.CleanupIntent) {
	if intent == nil {
		return
	}

	if err := uc.cleanup.Finish(ctx, intent); err != nil {
		uc.logger.Warn("SlotUseCase - release - keys %v left for the sweep: %v", intent.Keys, err)
	}
}
