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
)

var _ repo.RegistrationImageRepo = (*RegistrationImageRepo)(nil)

// RegistrationImageRepo keys rows by slot, mirroring the unique index.
type RegistrationImageRepo struct {
	mu     sync.Mutex
	rows   map[entity.Slot]entity.RegistrationImage
	nextID int64

	UpsertErr  error
	RelabelErr error
	DeleteErr  error

	// BeforeUpsert runs before Upsert takes the lock, to stage a concurrent
	// writer.
	BeforeUpsert func()
}

func NewRegistrationImageRepo() *RegistrationImageRepo {
	return &RegistrationImageRepo{rows: make(map[entity.Slot]entity.RegistrationImage), nextID: 1}
}

func (r *RegistrationImageRepo) Snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := make(map[entity.Slot]entity.RegistrationImage, len(r.rows))
	for s, img := range r.rows {
		rows[s] = img
	}
	nextID := r.nextID

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		r.rows = rows
		r.nextID = nextID
	}
}

func (r *RegistrationImageRepo) GetBySlot(_ context.Context, slot entity.Slot) (*entity.RegistrationImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	img, ok := r.rows[slot]
	if !ok {
		return nil, errs.ErrRecordNotFound
	}

	return &img, nil
}

func (r *RegistrationImageRepo) List(_ context.Context) ([]*entity.RegistrationImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	images := make([]*entity.RegistrationImage, 0, len(r.rows))
	for _, img := range r.rows {
		img := img
		images = append(images, &img)
	}
	sort.Slice(images, func(i, j int) bool { return images[i].Slot < images[j].Slot })

	return images, nil
}

func (r *RegistrationImageRepo) Upsert(_ context.Context, img *entity.RegistrationImage, prevVersion int64) error {
	if r.BeforeUpsert != nil {
		r.BeforeUpsert()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.UpsertErr != nil {
		return fmt.Errorf("%w: %w", errs.ErrStore, r.UpsertErr)
	}

	existing, ok := r.rows[img.Slot]
	if (ok && existing.Version != prevVersion) || (!ok && prevVersion != 0) {
		return errs.ErrConflict
	}

	if ok {
		img.ID = existing.ID
		img.Version = existing.Version + 1
	} else {
		img.ID = r.nextID
		img.Version = 1
		r.nextID++
	}

	r.rows[img.Slot] = *img

	return nil
}

func (r *RegistrationImageRepo) Relabel(_ context.Context, id, version int64, to entity.Slot, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.RelabelErr != nil {
		return fmt.Errorf("%w: %w", errs.ErrStore, r.RelabelErr)
	}

	from, img, ok := r.findLocked(id)
	if !ok || img.Version != version {
		return errs.ErrConflict
	}
	if _, occupied := r.rows[to]; occupied && from != to {
		return errs.ErrConflict
	}

	delete(r.rows, from)
	img.Slot = to
	img.Version++
	img.UpdatedAt = at
	r.rows[to] = img

	return nil
}

func (r *RegistrationImageRepo) Delete(_ context.Context, id, version int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.DeleteErr != nil {
		return fmt.Errorf("%w: %w", errs.ErrStore, r.DeleteErr)
	}

	slot, img, ok := r.findLocked(id)
	if !ok || img.Version != version {
		return errs.ErrConflict
	}

	delete(r.rows, slot)

	return nil
}

// Set seeds a slot row and returns it with its assigned id.
func (r *RegistrationImageRepo) Set(slot entity.Slot, imageURL, title string) entity.RegistrationImage {
	r.mu.Lock()
	defer r.mu.Unlock()

	img := entity.RegistrationImage{
		ID:        r.nextID,
		Slot:      slot,
		ImageURL:  imageURL,
		Title:     title,
		Version:   1,
		UpdatedAt: time.Now().UTC(),
	}
	r.nextID++
	r.rows[slot] = img

	return img
}

func (r *RegistrationImageRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.rows)
}

func (r *RegistrationImageRepo) findLocked(id int64) (entity.Slot, entity.RegistrationImage, bool) {
	for slot, img := range r.rows {
		if img.ID == id {
			return slot, img, true
		}
	}

	return "", entity.RegistrationImage{}, false
}
