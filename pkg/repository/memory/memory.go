package memory

import (
	"github.com/secmon-lab/asclepius/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

type Memory struct {
	embeddingCache *embeddingCacheRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		embeddingCache: newEmbeddingCacheRepository(),
	}
}

func (m *Memory) EmbeddingCache() interfaces.EmbeddingCacheRepository {
	return m.embeddingCache
}

func (m *Memory) Close() error {
	return nil
}
