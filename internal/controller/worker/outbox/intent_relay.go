package outbox

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/infrastructure"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/usecase"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/logger"
)

// IntentRelay is the reconciliation sweep. It hands cleanup intents that were
// left pending (crash, blob outage) to the queue, gives up on intents past
// the retry limit, and prunes finished ones.
type IntentRelay struct {
	cleanup usecase.CleanupUseCase
	sender  infrastructure.IntentsSender
	logger  logger.Interface

	pollInterval        time.Duration
	cleanupInterval     time.Duration
	markFailedInterval  time.Duration
	processBatchTimeout time.Duration
	batchSize           int
	maxRetries          int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started atomic.Bool
}

func New(
	cleanup usecase.CleanupUseCase,
	sender infrastructure.IntentsSender,
	l logger.Interface,
	pollInterval time.Duration,
	cleanupInterval time.Duration,
	markFailedInterval time.Duration,
	processBatchTimeout time.Duration,
	batchSize int,
	maxRetries int,
) *IntentRelay {
	return &IntentRelay{
		cleanup:             cleanup,
		sender:              sender,
		logger:              l,
		pollInterval:        pollInterval,
		cleanupInterval:     cleanupInterval,
		markFailedInterval:  markFailedInterval,
		processBatchTimeout: processBatchTimeout,
		batchSize:           batchSize,
		maxRetries:          maxRetries,
	}
}

func (r *IntentRelay) Start(ctx context.Context) error {
	if !r.started.CompareAndSwap(false, true) {
		return fmt.Errorf("IntentRelay - Start - worker already started")
	}

	r.ctx, r.cancel = context.WithCancel(ctx)

	r.worker(r.pollInterval, func() {
		batchCtx, batchCancel := context.WithTimeout(r.ctx, r.processBatchTimeout)
		r.processIntentsBatch(batchCtx)
		batchCancel()
	})

	r.worker(r.markFailedInterval, func() {
		r.settle(r.ctx)
	})

	r.worker(r.cleanupInterval, func() {
		err := r.cleanup.CleanupIntents(r.ctx)
		if err != nil {
			r.logger.Error(err, "IntentRelay - Start - worker - r.cleanup.CleanupIntents")
		}
	})

	return nil
}

func (r *IntentRelay) processIntentsBatch(ctx context.Context) {
	intents, err := r.cleanup.ClaimStaleIntents(ctx, r.maxRetries, r.batchSize)
	if err != nil {
		r.logger.Error(err, "IntentRelay - processIntentsBatch - r.cleanup.ClaimStaleIntents")

		return
	}
	if len(intents) == 0 {
		return
	}

	err = r.sender.SendIntents(ctx, intents)
	if err != nil {
		r.logger.Error(err, "IntentRelay - processIntentsBatch - r.sender.SendIntents")

		incErr := r.cleanup.IncrementRetryCountBatch(ctx, intents, err)
		if incErr != nil {
			r.logger.Error(incErr, "IntentRelay - processIntentsBatch - r.cleanup.IncrementRetryCountBatch")
		}

		return
	}

	r.logger.Debug("IntentRelay - dispatched cleanup intents, count = %d", len(intents))
}

// settle fails intents over the retry limit and returns intents whose
// consumer never reported back to pending.
func (r *IntentRelay) settle(ctx context.Context) {
	err := r.cleanup.MarkMaxRetriesAsFailed(ctx, r.maxRetries)
	if err != nil {
		r.logger.Error(err, "IntentRelay - settle - r.cleanup.MarkMaxRetriesAsFailed")
	}

	err = r.cleanup.RequeueStuck(ctx)
	if err != nil {
		r.logger.Error(err, "IntentRelay - settle - r.cleanup.RequeueStuck")
	}
}

func (r *IntentRelay) worker(interval time.Duration, task func()) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-r.ctx.Done():
				return
			case <-ticker.C:
				task()
			}
		}
	}()
}

func (r *IntentRelay) Shutdown(ctx context.Context) error {
	if !r.started.Load() {
		return nil
	}

	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})

	go func() {
		r.wg.Wait()
		if err := r.sender.Close(); err != nil {
			r.logger.Error(err, "IntentRelay - Shutdown - r.sender.Close")
		}
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("IntentRelay - Shutdown: %w", ctx.Err())
	}
}
