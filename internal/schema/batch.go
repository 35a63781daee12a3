package schema

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"arkival/internal/domain"
	"arkival/internal/port"
)

// BatchResolver wraps a ReferenceResolver for the duration of one validation
// batch (an ingest session, or a whole collection on schema change). Lookups
// for the same (collection, item) pair are collapsed into a single round trip
// and memoized, and in-flight calls are bounded. The memo lives and dies with
// the batch: a new batch observes fresh resolver state.
type BatchResolver struct {
	inner port.ReferenceResolver
	sem   *semaphore.Weighted
	group singleflight.Group

	mu   sync.Mutex
	memo map[string]*domain.Asset
}

// NewBatchResolver creates a BatchResolver allowing at most parallelism
// concurrent calls to the underlying resolver.
func NewBatchResolver(inner port.ReferenceResolver, parallelism int64) *BatchResolver {
	if parallelism < 1 {
		parallelism = 1
	}
	return &BatchResolver{
		inner: inner,
		sem:   semaphore.NewWeighted(parallelism),
		memo:  make(map[string]*domain.Asset),
	}
}

// GetRecord implements port.ReferenceResolver.
func (b *BatchResolver) GetRecord(ctx context.Context, collectionID uuid.UUID, itemID string) (*domain.Asset, error) {
	key := collectionID.String() + "/" + itemID

	b.mu.Lock()
	record, hit := b.memo[key]
	b.mu.Unlock()
	if hit {
		return record, nil
	}

	v, err, _ := b.group.Do(key, func() (interface{}, error) {
		if err := b.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer b.sem.Release(1)

		record, err := b.inner.GetRecord(ctx, collectionID, itemID)
		if err != nil {
			return nil, err
		}
		b.mu.Lock()
		b.memo[key] = record
		b.mu.Unlock()
		return record, nil
	})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return v.(*domain.Asset), nil
}
