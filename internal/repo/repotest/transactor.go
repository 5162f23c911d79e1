package repotest

import (
	"context"
	"sync"

	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/repo"
)

// Snapshotter is implemented by the in-memory repos so a Transactor can roll
// them back.
type Snapshotter interface {
	Snapshot() (restore func())
}

var _ repo.Transactor = (*Transactor)(nil)

// Transactor serializes transactions and restores every registered repo when
// f fails.
type Transactor struct {
	mu    sync.Mutex
	repos []Snapshotter

	Commits   int
	Rollbacks int
}

func NewTransactor(repos ...Snapshotter) *Transactor {
	return &Transactor{repos: repos}
}

type txKey struct{}

func (t *Transactor) WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return f(ctx)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	restores := make([]func(), 0, len(t.repos))
	for _, r := range t.repos {
		restores = append(restores, r.Snapshot())
	}

	if err := f(context.WithValue(ctx, txKey{}, struct{}{})); err != nil {
		for _, restore := range restores {
			restore()
		}
		t.Rollbacks++

		return err
	}

	t.Commits++

	return nil
}
