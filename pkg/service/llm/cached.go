package llm

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/asclepius/pkg/domain/interfaces"
	"github.com/secmon-lab/asclepius/pkg/domain/model"
	"github.com/secmon-lab/asclepius/pkg/utils/errutil"
	"github.com/secmon-lab/asclepius/pkg/utils/logging"
)

// NamedEmbedder is an embedder that can scope its cached vectors by model
type NamedEmbedder interface {
	interfaces.Embedder
	interfaces.ModelNamer
}

// Cached serves embeddings from a repository and only sends misses to the inner embedder.
// Cache failures degrade to direct embedding.
type Cached struct {
	inner NamedEmbedder
	cache interfaces.EmbeddingCacheRepository
	now   func() time.Time
}

// NewCached wraps inner with cache
func NewCached(inner NamedEmbedder, cache interfaces.EmbeddingCacheRepository) *Cached {
	return &Cached{
		inner: inner,
		cache: cache,
		now:   time.Now,
	}
}

// ModelName delegates to the inner embedder
func (c *Cached) ModelName() string {
	return c.inner.ModelName()
}

// Embed returns vectors in input order, filling cache misses from the inner embedder
func (c *Cached) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	modelName := c.inner.ModelName()
	keys := make([]model.EmbeddingKey, len(texts))
	for i, t := range texts {
		keys[i] = model.NewEmbeddingKey(modelName, t)
	}

	hits, err := c.cache.GetMany(ctx, keys)
	if err != nil {
		errutil.Handle(ctx, err, "failed to read embedding cache")
		hits = nil
	}

	out := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int
	for i, k := range keys {
		if e, ok := hits[k]; ok && e != nil && len(e.Vector) > 0 {
			out[i] = e.Vector
			continue
		}
		missTexts = append(missTexts, texts[i])
		missIdx = append(missIdx, i)
	}

	logging.From(ctx).Debug("embedding cache lookup",
		"model", modelName, "hits", len(texts)-len(missTexts), "misses", len(missTexts))

	if len(missTexts) == 0 {
		return out, nil
	}

	vectors, err := c.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(missTexts) {
		return nil, goerr.New("embedding count mismatch",
			goerr.V("expected", len(missTexts)), goerr.V("actual", len(vectors)))
	}

	now := c.now()
	entries := make([]*model.CachedEmbedding, len(vectors))
	for j, v := range vectors {
		i := missIdx[j]
		out[i] = v
		entries[j] = &model.CachedEmbedding{
			Key:       keys[i],
			Model:     modelName,
			Vector:    v,
			CreatedAt: now,
		}
	}

	if err := c.cache.PutMany(ctx, entries); err != nil {
		errutil.Handle(ctx, err, "failed to write embedding cache")
	}
	return out, nil
}
