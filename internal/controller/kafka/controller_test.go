package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/dto"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/entity"
	kafkapc "github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/infrastructure/kafka"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/repo/repotest"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/usecase/cleanup"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/logger"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReceiver struct {
	msgs chan kafka.Message

	mu        sync.Mutex
	committed []int64
	closed    bool
}

func newFakeReceiver() *fakeReceiver {
	return &fakeReceiver{msgs: make(chan kafka.Message, 8)}
}

func (r *fakeReceiver) ReadIntent(ctx context.Context) (kafka.Message, error) {
	select {
	case msg := <-r.msgs:
		return msg, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReceiver) CommitIntent(_ context.Context, msg kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.committed = append(r.committed, msg.Offset)

	return nil
}

func (r *fakeReceiver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true

	return nil
}

func (r *fakeReceiver) Committed() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]int64(nil), r.committed...)
}

type env struct {
	blobs   *repotest.BlobRepo
	media   *repotest.MediaRepo
	intents *repotest.CleanupIntentRepo
	cleanup *cleanup.CleanupUseCase
	ir      *fakeReceiver
	c       *KafkaController
}

func newEnv() *env {
	e := &env{
		blobs:   repotest.NewBlobRepo(),
		media:   repotest.NewMediaRepo(),
		intents: repotest.NewCleanupIntentRepo(),
		ir:      newFakeReceiver(),
	}

	tx := repotest.NewTransactor(e.media, e.intents)
	e.cleanup = cleanup.New(e.blobs, e.media, e.intents, tx, cleanup.Config{StaleAfter: time.Minute, Retention: time.Hour}, logger.Nop())
	e.c = New(e.cleanup, e.ir, logger.Nop(), time.Second, time.Second, 2)

	return e
}

// pendingDelete leaves a media row whose delete stopped after the intent was
// written.
func (e *env) pendingDelete(t *testing.T) (*entity.MediaAsset, *entity.CleanupIntent) {
	t.Helper()
	ctx := context.Background()

	m := &entity.MediaAsset{
		Parent:    entity.ParentGallery,
		Name:      "Regionals",
		MediaURL:  e.blobs.Put("gallery/regionals.jpg", []byte("jpg")),
		MediaType: "image/jpeg",
	}
	require.NoError(t, e.media.Create(ctx, m))

	intent, err := e.cleanup.Track(ctx, entity.AggregateMedia, m.ID, []string{"gallery/regionals.jpg"})
	require.NoError(t, err)

	return m, intent
}

func message(t *testing.T, intent *entity.CleanupIntent, offset int64) kafka.Message {
	t.Helper()

	value, err := json.Marshal(dto.NewIntentMessage(intent))
	require.NoError(t, err)

	return kafka.Message{
		Offset:  offset,
		Value:   value,
		Headers: []kafka.Header{{Key: kafkapc.HeaderIntentID, Value: []byte(intent.ID.String())}},
	}
}

func (e *env) status(id uuid.UUID) entity.IntentStatus {
	for _, in := range e.intents.All() {
		if in.ID == id {
			return in.Status
		}
	}

	return ""
}

func TestIntentID(t *testing.T) {
	id := uuid.New()

	got, err := intentID(kafka.Message{Headers: []kafka.Header{{Key: kafkapc.HeaderIntentID, Value: []byte(id.String())}}})
	require.NoError(t, err)
	assert.Equal(t, id, got)

	value, err := json.Marshal(dto.IntentMessage{IntentID: id})
	require.NoError(t, err)
	got, err = intentID(kafka.Message{Value: value})
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = intentID(kafka.Message{Value: []byte(`{"keys":["a"]}`)})
	assert.Error(t, err)

	_, err = intentID(kafka.Message{Value: []byte("garbage")})
	assert.Error(t, err)
}

func TestHandleIntent_FinishesMediaDelete(t *testing.T) {
	e := newEnv()
	m, intent := e.pendingDelete(t)

	require.NoError(t, e.c.handleIntent(context.Background(), message(t, intent, 1)))

	assert.False(t, e.blobs.Has("gallery/regionals.jpg"))
	assert.Equal(t, 0, e.media.Len())
	assert.Equal(t, entity.IntentCompleted, e.status(intent.ID))

	_, err := e.media.GetByID(context.Background(), m.ID)
	assert.Error(t, err)
}

func TestHandleIntent_MalformedIsDropped(t *testing.T) {
	e := newEnv()

	assert.NoError(t, e.c.handleIntent(context.Background(), kafka.Message{Value: []byte("garbage")}))
}

func TestController_CommitsOnlyResolvedIntents(t *testing.T) {
	e := newEnv()
	_, ok := e.pendingDelete(t)

	failing, err := e.cleanup.Track(context.Background(), entity.AggregateBlob, 7, []string{"gallery/locked.jpg"})
	require.NoError(t, err)
	e.blobs.DeleteErr["gallery/locked.jpg"] = errors.New("access denied")

	require.NoError(t, e.c.Start(context.Background()))
	assert.Error(t, e.c.Start(context.Background()))

	e.ir.msgs <- message(t, failing, 10)
	e.ir.msgs <- message(t, ok, 11)

	assert.Eventually(t, func() bool {
		return e.status(ok.ID) == entity.IntentCompleted
	}, time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		for _, in := range e.intents.All() {
			if in.ID == failing.ID {
				return in.RetryCount == 1
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, e.c.Shutdown(ctx))

	assert.Equal(t, []int64{11}, e.ir.Committed())
	assert.Equal(t, entity.IntentPending, e.status(failing.ID))

	e.ir.mu.Lock()
	defer e.ir.mu.Unlock()
	assert.True(t, e.ir.closed)
}
