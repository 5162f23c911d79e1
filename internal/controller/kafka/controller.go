package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/infrastructure"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/usecase"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// KafkaController finishes cleanup intents dispatched by the relay. A message
// is committed only once its intent is resolved; otherwise the relay picks the
// intent up again after it goes stale.
type KafkaController struct {
	cleanup usecase.CleanupUseCase
	ir      infrastructure.IntentsReceiver
	logger  logger.Interface

	commitTimeout  time.Duration
	processTimeout time.Duration

	workers int
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	started atomic.Bool
}

func New(
	cleanup usecase.CleanupUseCase,
	ir infrastructure.IntentsReceiver,
	l logger.Interface,
	commitTimeout time.Duration,
	processTimeout time.Duration,
	workers int,
) *KafkaController {
	if workers < 1 {
		workers = 1
	}

	return &KafkaController{
		cleanup:        cleanup,
		ir:             ir,
		logger:         l,
		commitTimeout:  commitTimeout,
		processTimeout: processTimeout,
		workers:        workers,
	}
}

func (c *KafkaController) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return fmt.Errorf("KafkaController - Start - controller already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)

	tasks := make(chan kafka.Message, c.workers*2)

	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.worker(tasks)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(tasks)

		for {
			select {
			case <-c.ctx.Done():
				return
			default:
				msg, err := c.ir.ReadIntent(c.ctx)
				if err != nil {
					if !errors.Is(err, context.Canceled) {
						c.logger.Error(err, "KafkaController - Start - c.ir.ReadIntent")
					}
					continue
				}

				select {
				case tasks <- msg:
				case <-c.ctx.Done():
					return
				}
			}
		}
	}()

	return nil
}

func (c *KafkaController) handleIntent(ctx context.Context, msg kafka.Message) error {
	id, err := intentID(msg)
	if err != nil {
		// nothing will ever parse it; commit so it does not block the partition
		c.logger.Warn("KafkaController - handleIntent - dropping malformed message at offset %d: %v", msg.Offset, err)

		return nil
	}

	err = c.cleanup.Resume(ctx, id)
	if err != nil {
		return fmt.Errorf("KafkaController - handleIntent - c.cleanup.Resume: %w", err)
	}

	return nil
}

func (c *KafkaController) worker(tasks <-chan kafka.Message) {
	defer c.wg.Done()

	for msg := range tasks {
		c.process(msg)
	}
}

func (c *KafkaController) process(msg kafka.Message) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error(fmt.Errorf("panic %v", r), "KafkaController - process - panic")
		}
	}()

	processCtx, processCancel := context.WithTimeout(c.ctx, c.processTimeout)
	err := c.handleIntent(processCtx, msg)
	processCancel()
	if err != nil {
		c.logger.Error(err, "KafkaController - process - c.handleIntent")

		return
	}

	commitCtx, commitCancel := context.WithTimeout(c.ctx, c.commitTimeout)
	err = c.ir.CommitIntent(commitCtx, msg)
	commitCancel()
	if err != nil {
		c.logger.Error(err, "KafkaController - process - c.ir.CommitIntent")
	}
}

func (c *KafkaController) Shutdown(ctx context.Context) error {
	if !c.started.Load() {
		return nil
	}

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})

	go func() {
		c.wg.Wait()
		if err := c.ir.Close(); err != nil {
			c.logger.Error(err, "KafkaController - Shutdown - c.ir.Close")
		}
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("KafkaController - Shutdown: %w", ctx.Err())
	}
}
