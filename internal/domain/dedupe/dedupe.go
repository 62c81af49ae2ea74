// Package dedupe remembers the outcome of idempotent creation requests.
package dedupe

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Default limits for remembered keys.
const (
	DefaultMaxSize = 50000
	DefaultTTL     = 24 * time.Hour
)

// Deduper replays the result of a previously successful creation keyed by
// an idempotency key.
type Deduper interface {
	// Do runs fn once per key. A repeat within the TTL returns the first
	// result with replayed set. Failed attempts are not remembered.
	Do(ctx context.Context, key string, fn func() (uint64, error)) (id uint64, replayed bool, err error)

	// Forget drops a key so the next Do runs again.
	Forget(ctx context.Context, key string)

	Size() int
}

// inMemoryDeduper implements Deduper over an expirable LRU. The mutex is held
// while fn runs so two requests with the same key cannot both create.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    *expirable.LRU[string, uint64]
	maxSize int
	ttl     time.Duration
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: DefaultMaxSize,
		ttl:     DefaultTTL,
	}

	for _, opt := range opts {
		opt(d)
	}

	d.seen = expirable.NewLRU[string, uint64](d.maxSize, nil, d.ttl)

	return d
}

// Do runs fn unless key already produced a result.
func (d *inMemoryDeduper) Do(ctx context.Context, key string, fn func() (uint64, error)) (uint64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if id, ok := d.seen.Get(key); ok {
		return id, true, nil
	}

	id, err := fn()
	if err != nil {
		return 0, false, err
	}
	d.seen.Add(key, id)

	return id, false, nil
}

// Forget removes a key.
func (d *inMemoryDeduper) Forget(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen.Remove(key)
}

// Size returns the current number of remembered keys.
func (d *inMemoryDeduper) Size() int {
	return d.seen.Len()
}
