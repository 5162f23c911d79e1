package repotest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/dto"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/entity"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/repo"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/types/errs"
)

var _ repo.MediaRepo = (*MediaRepo)(nil)

type MediaRepo struct {
	mu     sync.Mutex
	rows   map[int64]entity.MediaAsset
	nextID int64

	CreateErr error
	UpdateErr error
	DeleteErr error
}

func NewMediaRepo() *MediaRepo {
	return &MediaRepo{rows: make(map[int64]entity.MediaAsset), nextID: 1}
}

func (r *MediaRepo) Snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := make(map[int64]entity.MediaAsset, len(r.rows))
	for id, m := range r.rows {
		rows[id] = m
	}
	nextID := r.nextID

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		r.rows = rows
		r.nextID = nextID
	}
}

func (r *MediaRepo) Create(_ context.Context, media *entity.MediaAsset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CreateErr != nil {
		return fmt.Errorf("%w: %w", errs.ErrStore, r.CreateErr)
	}

	now := time.Now().UTC()
	media.ID = r.nextID
	media.Version = 1
	media.CreatedAt = now
	media.UpdatedAt = now
	r.nextID++

	r.rows[media.ID] = *media

	return nil
}

func (r *MediaRepo) GetByID(_ context.Context, id int64) (*entity.MediaAsset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.rows[id]
	if !ok {
		return nil, errs.ErrRecordNotFound
	}

	return &m, nil
}

func (r *MediaRepo) List(_ context.Context, filter dto.MediaFilter) ([]*entity.MediaAsset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := make([]*entity.MediaAsset, 0)
	for _, m := range r.rows {
		if m.Parent != filter.Parent {
			continue
		}
		if filter.AthleteID != nil && (m.AthleteID == nil || *m.AthleteID != *filter.AthleteID) {
			continue
		}
		m := m
		items = append(items, &m)
	}

	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch {
		case a.Date == nil && b.Date == nil:
			return a.ID > b.ID
		case a.Date == nil:
			return false
		case b.Date == nil:
			return true
		case !a.Date.Equal(*b.Date):
			return a.Date.After(*b.Date)
		default:
			return a.ID > b.ID
		}
	})

	return items, nil
}

func (r *MediaRepo) Update(_ context.Context, media *entity.MediaAsset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.UpdateErr != nil {
		return fmt.Errorf("%w: %w", errs.ErrStore, r.UpdateErr)
	}

	stored, ok := r.rows[media.ID]
	if !ok {
		return errs.ErrRecordNotFound
	}
	if stored.Version != media.Version {
		return errs.ErrConflict
	}

	media.Version++
	media.UpdatedAt = time.Now().UTC()
	r.rows[media.ID] = *media

	return nil
}

func (r *MediaRepo) Delete(_ context.Context, id int64, version int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.DeleteErr != nil {
		return fmt.Errorf("%w: %w", errs.ErrStore, r.DeleteErr)
	}

	stored, ok := r.rows[id]
	if !ok {
		return errs.ErrRecordNotFound
	}
	if version > 0 && stored.Version != version {
		return errs.ErrConflict
	}

	delete(r.rows, id)

	return nil
}

func (r *MediaRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.rows)
}

// Bump simulates a concurrent writer.
func (r *MediaRepo) Bump(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.rows[id]; ok {
		m.Version++
		r.rows[id] = m
	}
}
