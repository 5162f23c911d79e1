package repotest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/entity"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/repo"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/types/errs"
	"github.com/google/uuid"
)

var _ repo.CleanupIntentRepo = (*CleanupIntentRepo)(nil)

type CleanupIntentRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]entity.CleanupIntent

	CreateErr error
}

func NewCleanupIntentRepo() *CleanupIntentRepo {
	return &CleanupIntentRepo{rows: make(map[uuid.UUID]entity.CleanupIntent)}
}

func (r *CleanupIntentRepo) Snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := make(map[uuid.UUID]entity.CleanupIntent, len(r.rows))
	for id, in := range r.rows {
		rows[id] = in
	}

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		r.rows = rows
	}
}

func (r *CleanupIntentRepo) Create(_ context.Context, intent *entity.CleanupIntent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CreateErr != nil {
		return fmt.Errorf("%w: %w", errs.ErrStore, r.CreateErr)
	}

	in := *intent
	in.Keys = append([]string(nil), intent.Keys...)
	r.rows[in.ID] = in

	return nil
}

func (r *CleanupIntentRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.CleanupIntent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	in, ok := r.rows[id]
	if !ok {
		return nil, errs.ErrRecordNotFound
	}

	return &in, nil
}

func (r *CleanupIntentRepo) MarkCompleted(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	in, ok := r.rows[id]
	if !ok {
		return errs.ErrRecordNotFound
	}

	now := time.Now().UTC()
	in.Status = entity.IntentCompleted
	in.UpdatedAt = now
	in.ProcessedAt = &now
	r.rows[id] = in

	return nil
}

func (r *CleanupIntentRepo) GetStalePending(_ context.Context, staleBefore time.Time, maxRetries, limit int) ([]*entity.CleanupIntent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*entity.CleanupIntent, 0)
	for _, in := range r.rows {
		if in.Status != entity.IntentPending || in.RetryCount >= maxRetries || !in.UpdatedAt.Before(staleBefore) {
			continue
		}
		in := in
		out = append(out, &in)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

func (r *CleanupIntentRepo) MarkAsProcessingBatch(_ context.Context, ids uuid.UUIDs) error {
	return r.update(ids, func(in *entity.CleanupIntent) {
		in.Status = entity.IntentProcessing
	})
}

func (r *CleanupIntentRepo) IncrementRetryCountBatch(_ context.Context, ids uuid.UUIDs, lastError string) error {
	return r.update(ids, func(in *entity.CleanupIntent) {
		in.RetryCount++
		in.Status = entity.IntentPending
		in.LastError = lastError
	})
}

func (r *CleanupIntentRepo) MarkMaxRetriesAsFailed(_ context.Context, maxRetries int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, in := range r.rows {
		if in.Status == entity.IntentPending && in.RetryCount >= maxRetries {
			in.Status = entity.IntentFailed
			in.UpdatedAt = time.Now().UTC()
			r.rows[id] = in
			n++
		}
	}

	return n, nil
}

func (r *CleanupIntentRepo) RequeueStuckProcessing(_ context.Context, stuckBefore time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, in := range r.rows {
		if in.Status == entity.IntentProcessing && in.UpdatedAt.Before(stuckBefore) {
			in.Status = entity.IntentPending
			in.RetryCount++
			in.UpdatedAt = time.Now().UTC()
			r.rows[id] = in
			n++
		}
	}

	return n, nil
}

func (r *CleanupIntentRepo) DeleteFinishedBefore(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, in := range r.rows {
		finished := in.Status == entity.IntentCompleted || in.Status == entity.IntentFailed
		if finished && in.UpdatedAt.Before(before) {
			delete(r.rows, id)
			n++
		}
	}

	return n, nil
}

// All returns every intent ordered by creation.
func (r *CleanupIntentRepo) All() []entity.CleanupIntent {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]entity.CleanupIntent, 0, len(r.rows))
	for _, in := range r.rows {
		out = append(out, in)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })

	return out
}

// Age moves an intent's timestamps back so it looks stale to the sweep.
func (r *CleanupIntentRepo) Age(id uuid.UUID, by time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if in, ok := r.rows[id]; ok {
		in.CreatedAt = in.CreatedAt.Add(-by)
		in.UpdatedAt = in.UpdatedAt.Add(-by)
		r.rows[id] = in
	}
}

func (r *CleanupIntentRepo) update(ids uuid.UUIDs, f func(in *entity.CleanupIntent)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	for _, id := range ids {
		in, ok := r.rows[id]
		if !ok {
			continue
		}
		f(&in)
		in.UpdatedAt = time.Now().UTC()
		r.rows[id] = in
		n++
	}

	if n == 0 {
		return errs.ErrRecordNotFound
	}

	return nil
}
