// Package objectkey maps between blob-store object keys and the public URLs
// persisted in metadata rows.
package objectkey

import (
	"fmt"
	"math/rand"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Marker separates the host part of a public object URL from the key.
const Marker = ".com/"

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

// DeriveKey returns the key encoded in a public object URL. The second value
// is false when url carries no key; callers treat that as nothing to delete.
func DeriveKey(url string) (string, bool) {
	idx := strings.Index(url, Marker)
	if idx < 0 {
		return "", false
	}

	key := url[idx+len(Marker):]
	if key == "" {
		return "", false
	}

	return key, true
}

// DeriveKeys maps urls to their keys, dropping urls without one and
// duplicates.
func DeriveKeys(urls ...string) []string {
	keys := make([]string, 0, len(urls))
	seen := make(map[string]struct{}, len(urls))

	for _, url := range urls {
		key, ok := DeriveKey(url)
		if !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}

	return keys
}

// Token returns a lowercase monotonic ULID.
func Token() string {
	entropyMu.Lock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
	entropyMu.Unlock()

	return strings.ToLower(id.String())
}

// Compose joins prefix, token and the base name of filename:
// "gallery/" + "01j..." + "team photo.jpg" -> "gallery/01j...-team-photo.jpg".
func Compose(prefix, token, filename string) string {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	name := sanitize(filename)
	if name == "" {
		return prefix + token
	}

	return fmt.Sprintf("%s%s-%s", prefix, token, name)
}

// New composes a key with a fresh token.
func New(prefix, filename string) string {
	return Compose(prefix, Token(), filename)
}

// PublicURL builds https://{bucket}.{domain}/{key}.
func PublicURL(bucket, domain, key string) string {
	return fmt.Sprintf("https://%s.%s/%s", bucket, strings.TrimSuffix(domain, "/"), strings.TrimPrefix(key, "/"))
}

func sanitize(filename string) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}

	return strings.Join(strings.Fields(name), "-")
}
