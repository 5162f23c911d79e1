package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/entity"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/repo/repotest"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/usecase/cleanup"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu     sync.Mutex
	sent   uuid.UUIDs
	err    error
	closed bool
}

func (s *fakeSender) SendIntents(_ context.Context, intents []*entity.CleanupIntent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	for _, in := range intents {
		s.sent = append(s.sent, in.ID)
	}

	return nil
}

func (s *fakeSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true

	return nil
}

func (s *fakeSender) Sent() uuid.UUIDs {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append(uuid.UUIDs(nil), s.sent...)
}

const maxRetries = 3

type env struct {
	intents *repotest.CleanupIntentRepo
	sender  *fakeSender
	cleanup *cleanup.CleanupUseCase
	relay   *IntentRelay
}

func newEnv(interval time.Duration) *env {
	e := &env{
		intents: repotest.NewCleanupIntentRepo(),
		sender:  &fakeSender{},
	}

	media := repotest.NewMediaRepo()
	tx := repotest.NewTransactor(media, e.intents)
	e.cleanup = cleanup.New(repotest.NewBlobRepo(), media, e.intents, tx, cleanup.Config{
		StaleAfter: time.Minute,
		Retention:  time.Hour,
	}, logger.Nop())

	e.relay = New(e.cleanup, e.sender, logger.Nop(), interval, interval, interval, time.Second, 10, maxRetries)

	return e
}

func (e *env) track(t *testing.T, age time.Duration) *entity.CleanupIntent {
	t.Helper()

	intent, err := e.cleanup.Track(context.Background(), entity.AggregateBlob, 1, []string{"gallery/" + uuid.NewString() + ".jpg"})
	require.NoError(t, err)
	e.intents.Age(intent.ID, age)

	return intent
}

func (e *env) status(t *testing.T, id uuid.UUID) entity.CleanupIntent {
	t.Helper()

	for _, in := range e.intents.All() {
		if in.ID == id {
			return in
		}
	}
	t.Fatalf("intent %s not found", id)

	return entity.CleanupIntent{}
}

func TestProcessIntentsBatch_DispatchesOnlyStale(t *testing.T) {
	e := newEnv(time.Hour)
	stale := e.track(t, 5*time.Minute)
	fresh := e.track(t, 0)

	e.relay.processIntentsBatch(context.Background())

	assert.Equal(t, uuid.UUIDs{stale.ID}, e.sender.Sent())
	assert.Equal(t, entity.IntentProcessing, e.status(t, stale.ID).Status)
	assert.Equal(t, entity.IntentPending, e.status(t, fresh.ID).Status)
}

func TestProcessIntentsBatch_SendFailureRetries(t *testing.T) {
	e := newEnv(time.Hour)
	e.sender.err = errors.New("broker unreachable")
	intent := e.track(t, 5*time.Minute)

	e.relay.processIntentsBatch(context.Background())

	got := e.status(t, intent.ID)
	assert.Equal(t, entity.IntentPending, got.Status)
	assert.Equal(t, 1, got.RetryCount)
	assert.Equal(t, "broker unreachable", got.LastError)
}

func TestSettle(t *testing.T) {
	e := newEnv(time.Hour)
	ctx := context.Background()

	exhausted := e.track(t, 5*time.Minute)
	for i := 0; i < maxRetries; i++ {
		require.NoError(t, e.cleanup.IncrementRetryCountBatch(ctx, []*entity.CleanupIntent{exhausted}, errors.New("denied")))
	}

	stuck := e.track(t, 5*time.Minute)
	e.relay.processIntentsBatch(ctx)
	require.Equal(t, entity.IntentProcessing, e.status(t, stuck.ID).Status)
	e.intents.Age(stuck.ID, 5*time.Minute)

	e.relay.settle(ctx)

	assert.Equal(t, entity.IntentFailed, e.status(t, exhausted.ID).Status)

	got := e.status(t, stuck.ID)
	assert.Equal(t, entity.IntentPending, got.Status)
	assert.Equal(t, 1, got.RetryCount)
}

func TestStartAndShutdown(t *testing.T) {
	e := newEnv(10 * time.Millisecond)
	intent := e.track(t, 5*time.Minute)

	require.NoError(t, e.relay.Start(context.Background()))
	assert.Error(t, e.relay.Start(context.Background()))

	assert.Eventually(t, func() bool {
		return len(e.sender.Sent()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, intent.ID, e.sender.Sent()[0])

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, e.relay.Shutdown(ctx))

	e.sender.mu.Lock()
	defer e.sender.mu.Unlock()
	assert.True(t, e.sender.closed)
}

func TestShutdown_NotStarted(t *testing.T) {
	e := newEnv(time.Hour)

	assert.NoError(t, e.relay.Shutdown(context.Background()))
	assert.False(t, e.sender.closed)
}
