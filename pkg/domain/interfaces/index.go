package interfaces

import (
	"context"

	"github.com/secmon-lab/asclepius/pkg/domain/model"
)

// Searcher retrieves the documents nearest to a query
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]model.SearchResult, error)
}

// Indexer is a Searcher whose contents can be rebuilt
type Indexer interface {
	Searcher
	Build(ctx context.Context, docs []model.Document) error
	Len() int
}
