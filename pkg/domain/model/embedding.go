package model

import (
	"encoding/hex"
	"time"

	"github.com/minio/highwayhash"
)

// hashKey is a fixed HighwayHash key. Cache keys only need to be stable, not secret.
var hashKey = []byte("asclepius-embedding-cache-key-01")

// EmbeddingKey identifies a cached vector by embedding model and exact input text
type EmbeddingKey string

// NewEmbeddingKey derives a stable cache key from the model name and text
func NewEmbeddingKey(modelName, text string) EmbeddingKey {
	h, err := highwayhash.New(hashKey)
	if err != nil {
		// only fails on a key that is not 32 bytes
		panic(err)
	}
	_, _ = h.Write([]byte(modelName))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(text))
	return EmbeddingKey(hex.EncodeToString(h.Sum(nil)))
}

// CachedEmbedding is a persisted vector for one (model, text) pair
type CachedEmbedding struct {
	Key       EmbeddingKey
	Model     string
	Vector    []float32
	CreatedAt time.Time
}
