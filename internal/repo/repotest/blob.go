// Package repotest holds in-memory implementations of the repo contracts for
// usecase and controller tests.
package repotest

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/repo"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/objectkey"
)

const (
	Bucket = "club-media"
	Domain = "s3.amazonaws.com"
)

var _ repo.BlobRepo = (*BlobRepo)(nil)

type BlobRepo struct {
	mu sync.Mutex

	objects map[string][]byte
	types   map[string]string
	deletes []string
	puts    []string

	// UploadErr fails every upload. DeleteErr fails deletes of the listed
	// keys; "*" fails them all.
	UploadErr  error
	DeleteErr  map[string]error
	PresignErr error
}

func NewBlobRepo() *BlobRepo {
	return &BlobRepo{
		objects:   make(map[string][]byte),
		types:     make(map[string]string),
		DeleteErr: make(map[string]error),
	}
}

func (r *BlobRepo) Upload(_ context.Context, key string, data io.Reader, contentType string, _ int64) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.UploadErr != nil {
		return r.UploadErr
	}

	r.objects[key] = b
	r.types[key] = contentType
	r.puts = append(r.puts, key)

	return nil
}

func (r *BlobRepo) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.deletes = append(r.deletes, key)

	if err, ok := r.DeleteErr[key]; ok {
		return err
	}
	if err, ok := r.DeleteErr["*"]; ok {
		return err
	}

	delete(r.objects, key)
	delete(r.types, key)

	return nil
}

func (r *BlobRepo) PresignPut(_ context.Context, key, contentType string, ttl time.Duration) (string, error) {
	if r.PresignErr != nil {
		return "", r.PresignErr
	}

	return fmt.Sprintf("https://%s.%s/%s?X-Amz-Expires=%d&content-type=%s",
		Bucket, Domain, key, int(ttl.Seconds()), contentType), nil
}

func (r *BlobRepo) PublicURL(key string) string {
	return objectkey.PublicURL(Bucket, Domain, key)
}

// Put seeds an object without counting it as an upload.
func (r *BlobRepo) Put(key string, data []byte) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.objects[key] = data

	return r.PublicURL(key)
}

func (r *BlobRepo) Has(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.objects[key]

	return ok
}

func (r *BlobRepo) Object(key string) ([]byte, string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.objects[key]

	return b, r.types[key], ok
}

// Deletes returns every key a delete was issued for, sorted.
func (r *BlobRepo) Deletes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := append([]string(nil), r.deletes...)
	sort.Strings(out)

	return out
}

func (r *BlobRepo) Puts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.puts...)
}

func (r *BlobRepo) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]string, 0, len(r.objects))
	for k := range r.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}

func (r *BlobRepo) ResetCounters() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.deletes = nil
	r.puts = nil
}
