package interfaces

import (
	"context"
	"time"

	"github.com/secmon-lab/asclepius/pkg/domain/model"
)

// EmbeddingCacheRepository persists document vectors so restarts do not re-encode the knowledge base
type EmbeddingCacheRepository interface {
	// GetMany returns cached entries keyed by EmbeddingKey. Missing keys are simply absent.
	GetMany(ctx context.Context, keys []model.EmbeddingKey) (map[model.EmbeddingKey]*model.CachedEmbedding, error)

	// PutMany stores entries, overwriting existing keys
	PutMany(ctx context.Context, entries []*model.CachedEmbedding) error

	// Prune deletes entries of modelName created before cutoff and returns the number deleted
	Prune(ctx context.Context, modelName string, cutoff time.Time) (int, error)
}

// Repository aggregates all persistence backends
type Repository interface {
	EmbeddingCache() EmbeddingCacheRepository
	Close() error
}
