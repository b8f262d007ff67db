package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/asclepius/pkg/domain/model"
)

type embeddingCacheRepository struct {
	mu      sync.RWMutex
	entries map[model.EmbeddingKey]*model.CachedEmbedding
}

func newEmbeddingCacheRepository() *embeddingCacheRepository {
	return &embeddingCacheRepository{
		entries: make(map[model.EmbeddingKey]*model.CachedEmbedding),
	}
}

func copyEmbedding(e *model.CachedEmbedding) *model.CachedEmbedding {
	copied := *e
	if e.Vector != nil {
		copied.Vector = make([]float32, len(e.Vector))
		copy(copied.Vector, e.Vector)
	}
	return &copied
}

func (r *embeddingCacheRepository) GetMany(ctx context.Context, keys []model.EmbeddingKey) (map[model.EmbeddingKey]*model.CachedEmbedding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[model.EmbeddingKey]*model.CachedEmbedding, len(keys))
	for _, k := range keys {
		if e, ok := r.entries[k]; ok {
			result[k] = copyEmbedding(e)
		}
	}
	return result, nil
}

func (r *embeddingCacheRepository) PutMany(ctx context.Context, entries []*model.CachedEmbedding) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range entries {
		if e == nil || e.Key == "" {
			return goerr.New("embedding cache entry has no key")
		}
		stored := copyEmbedding(e)
		if stored.CreatedAt.IsZero() {
			stored.CreatedAt = time.Now().UTC()
		}
		r.entries[e.Key] = stored
	}
	return nil
}

func (r *embeddingCacheRepository) Prune(ctx context.Context, modelName string, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleted := 0
	for k, e := range r.entries {
		if modelName != "" && e.Model != modelName {
			continue
		}
		if e.CreatedAt.Before(cutoff) {
			delete(r.entries, k)
			deleted++
		}
	}
	return deleted, nil
}
