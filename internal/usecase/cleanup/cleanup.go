package cleanup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/entity"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/infrastructure/metrics"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/repo"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/logger"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/objectkey"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/types/errs"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const _defaultParallelDeletes = 4

type Config struct {
	// StaleAfter is how long an intent may stay pending or processing before
	// the sweep takes it over.
	StaleAfter time.Duration
	// Retention keeps finished intents around for inspection.
	Retention       time.Duration
	ParallelDeletes int
}

type CleanupUseCase struct {
	blobRepo   repo.BlobRepo
	mediaRepo  repo.MediaRepo
	intentRepo repo.CleanupIntentRepo
	transactor repo.Transactor

	cfg    Config
	logger logger.Interface
}

func New(
	blobRepo repo.BlobRepo,
	mediaRepo repo.MediaRepo,
	intentRepo repo.CleanupIntentRepo,
	transactor repo.Transactor,
	cfg Config,
	l logger.Interface,
) *CleanupUseCase {
	if cfg.ParallelDeletes <= 0 {
		cfg.ParallelDeletes = _defaultParallelDeletes
	}

	return &CleanupUseCase{
		blobRepo:   blobRepo,
		mediaRepo:  mediaRepo,
		intentRepo: intentRepo,
		transactor: transactor,
		cfg:        cfg,
		logger:     l,
	}
}

// DeleteObjects issues one delete per distinct non-empty key. A missing object
// counts as deleted; any other failure fails the whole call with
// errs.ErrStorage.
func (uc *CleanupUseCase) DeleteObjects(ctx context.Context, keys []string) error {
	unique := dedupe(keys)
	if len(unique) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.cfg.ParallelDeletes)

	for _, key := range unique {
		g.Go(func() error {
			if err := uc.blobRepo.Delete(gctx, key); err != nil {
				return fmt.Errorf("key %s: %w", key, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("CleanupUseCase - DeleteObjects - uc.blobRepo.Delete: %w: %w", errs.ErrStorage, err)
	}

	return nil
}

// Track records the intent to delete keys on behalf of an aggregate. Inside a
// transaction it commits together with the caller's row changes.
func (uc *CleanupUseCase) Track(ctx context.Context, aggregate entity.Aggregate, aggregateID int64, keys []string) (*entity.CleanupIntent, error) {
	keys = dedupe(keys)
	if len(keys) == 0 {
		return nil, fmt.Errorf("CleanupUseCase - Track: no keys: %w", errs.ErrValidation)
	}

	now := time.Now().UTC()
	intent := &entity.CleanupIntent{
		ID:          uuid.New(),
		Aggregate:   aggregate,
		AggregateID: aggregateID,
		Keys:        keys,
		Status:      entity.IntentPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.intentRepo.Create(ctx, intent); err != nil {
		return nil, fmt.Errorf("CleanupUseCase - Track - uc.intentRepo.Create: %w", err)
	}

	metrics.RecordIntent(string(aggregate), "tracked", 1)

	return intent, nil
}

func (uc *CleanupUseCase) Complete(ctx context.Context, id uuid.UUID) error {
	if err := uc.intentRepo.MarkCompleted(ctx, id); err != nil {
		return fmt.Errorf("CleanupUseCase - Complete - uc.intentRepo.MarkCompleted: %w", err)
	}

	return nil
}

// Finish deletes the keys of a blob-only intent and completes it. On failure
// the intent stays pending for the sweep.
func (uc *CleanupUseCase) Finish(ctx context.Context, intent *entity.CleanupIntent) error {
	if err := uc.DeleteObjects(ctx, intent.Keys); err != nil {
		return fmt.Errorf("CleanupUseCase - Finish - uc.DeleteObjects: %w", err)
	}

	if err := uc.Complete(ctx, intent.ID); err != nil {
		return fmt.Errorf("CleanupUseCase - Finish: %w", err)
	}

	metrics.RecordIntent(string(intent.Aggregate), "completed", 1)

	return nil
}

// Resume drives an intent forward to completion. For a media aggregate the
// row goes last, together with any objects it references by then.
func (uc *CleanupUseCase) Resume(ctx context.Context, id uuid.UUID) error {
	intent, err := uc.intentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			uc.logger.Warn("CleanupUseCase - Resume - intent %s is gone", id)

			return nil
		}
		return fmt.Errorf("CleanupUseCase - Resume - uc.intentRepo.GetByID: %w", err)
	}

	if intent.Status == entity.IntentCompleted || intent.Status == entity.IntentFailed {
		return nil
	}

	err = uc.resume(ctx, intent)
	if err != nil {
		incErr := uc.intentRepo.IncrementRetryCountBatch(ctx, uuid.UUIDs{intent.ID}, err.Error())
		if incErr != nil {
			uc.logger.Error(incErr, "CleanupUseCase - Resume - uc.intentRepo.IncrementRetryCountBatch")
		}
		metrics.RecordIntent(string(intent.Aggregate), "retried", 1)

		return fmt.Errorf("CleanupUseCase - Resume: %w", err)
	}

	metrics.RecordIntent(string(intent.Aggregate), "completed", 1)

	return nil
}

func (uc *CleanupUseCase) resume(ctx context.Context, intent *entity.CleanupIntent) error {
	keys := intent.Keys

	var media *entity.MediaAsset
	if intent.Aggregate == entity.AggregateMedia {
		m, err := uc.mediaRepo.GetByID(ctx, intent.AggregateID)
		switch {
		case err == nil:
			media = m
			keys = append(keys, objectkey.DeriveKeys(m.ObjectURLs()...)...)
		case errors.Is(err, errs.ErrRecordNotFound):
		default:
			return fmt.Errorf("uc.mediaRepo.GetByID: %w", err)
		}
	}

	if err := uc.DeleteObjects(ctx, keys); err != nil {
		return err
	}

	return uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if media != nil {
			err := uc.mediaRepo.Delete(ctx, media.ID, media.Version)
			if err != nil && !errors.Is(err, errs.ErrRecordNotFound) {
				return fmt.Errorf("uc.mediaRepo.Delete: %w", err)
			}
		}

		if err := uc.intentRepo.MarkCompleted(ctx, intent.ID); err != nil {
			return fmt.Errorf("uc.intentRepo.MarkCompleted: %w", err)
		}

		return nil
	})
}

// ClaimStaleIntents picks pending intents no request is working on anymore
// and marks them processing.
func (uc *CleanupUseCase) ClaimStaleIntents(ctx context.Context, maxRetries, limit int) ([]*entity.CleanupIntent, error) {
	var intents []*entity.CleanupIntent

	err := uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		staleBefore := time.Now().UTC().Add(-uc.cfg.StaleAfter)

		intents, err = uc.intentRepo.GetStalePending(ctx, staleBefore, maxRetries, limit)
		if err != nil {
			return fmt.Errorf("uc.intentRepo.GetStalePending: %w", err)
		}
		if len(intents) == 0 {
			return nil
		}

		if err := uc.intentRepo.MarkAsProcessingBatch(ctx, ids(intents)); err != nil {
			return fmt.Errorf("uc.intentRepo.MarkAsProcessingBatch: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("CleanupUseCase - ClaimStaleIntents: %w", err)
	}

	return intents, nil
}

func (uc *CleanupUseCase) IncrementRetryCountBatch(ctx context.Context, intents []*entity.CleanupIntent, cause error) error {
	if len(intents) == 0 {
		return nil
	}

	msg := ""
	if cause != nil {
		msg = cause.Error()
	}

	err := uc.intentRepo.IncrementRetryCountBatch(ctx, ids(intents), msg)
	if err != nil {
		return fmt.Errorf("CleanupUseCase - IncrementRetryCountBatch - uc.intentRepo.IncrementRetryCountBatch: %w", err)
	}

	for _, intent := range intents {
		metrics.RecordIntent(string(intent.Aggregate), "retried", 1)
	}

	return nil
}

func (uc *CleanupUseCase) MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) error {
	count, err := uc.intentRepo.MarkMaxRetriesAsFailed(ctx, maxRetries)
	if err != nil {
		return fmt.Errorf("CleanupUseCase - MarkMaxRetriesAsFailed - uc.intentRepo.MarkMaxRetriesAsFailed: %w", err)
	}

	if count > 0 {
		metrics.RecordIntent("any", "failed", int(count))
		uc.logger.Warn("cleanup intents gave up after %d retries, count = %d; orphaned objects need manual reconciliation", maxRetries, count)
	}

	return nil
}

// RequeueStuck returns processing intents whose consumer never reported back.
func (uc *CleanupUseCase) RequeueStuck(ctx context.Context) error {
	count, err := uc.intentRepo.RequeueStuckProcessing(ctx, time.Now().UTC().Add(-uc.cfg.StaleAfter))
	if err != nil {
		return fmt.Errorf("CleanupUseCase - RequeueStuck - uc.intentRepo.RequeueStuckProcessing: %w", err)
	}

	if count > 0 {
		metrics.RecordIntent("any", "requeued", int(count))
		uc.logger.Info("requeued stuck cleanup intents, count = %d", count)
	}

	return nil
}

func (uc *CleanupUseCase) CleanupIntents(ctx context.Context) error {
	count, err := uc.intentRepo.DeleteFinishedBefore(ctx, time.Now().UTC().Add(-uc.cfg.Retention))
	if err != nil {
		return fmt.Errorf("CleanupUseCase - CleanupIntents - uc.intentRepo.DeleteFinishedBefore: %w", err)
	}

	if count > 0 {
		uc.logger.Info("deleted old cleanup intents, count = %d", count)
	}

	return nil
}

func dedupe(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))

	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}

	return out
}

func ids(intents []*entity.CleanupIntent) uuid.UUIDs {
	out := make(uuid.UUIDs, 0, len(intents))
	for _, intent := range intents {
		out = append(out, intent.ID)
	}

	return out
}
