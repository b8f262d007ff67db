package index

import (
	"context"
	"sort"
	"sync/atomic"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/asclepius/pkg/domain/interfaces"
	"github.com/secmon-lab/asclepius/pkg/domain/model"
	"github.com/secmon-lab/asclepius/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

const (
	defaultBatchSize   = 32
	defaultConcurrency = 4
)

type entry struct {
	vector []float32
	doc    model.Document
}

// snapshot is an immutable built state. Searches read one snapshot for their whole lifetime.
type snapshot struct {
	entries []entry
}

// Index is an exact nearest-neighbour index over document embeddings using squared L2 distance.
// Build and Search are safe for concurrent use; a rebuild swaps the whole state at once.
type Index struct {
	embedder    interfaces.Embedder
	dimension   int
	batchSize   int
	concurrency int

	state atomic.Pointer[snapshot]
}

// Option is a functional option for Index
type Option func(*Index)

// WithDimension overrides the expected vector dimension
func WithDimension(d int) Option {
	return func(x *Index) {
		x.dimension = d
	}
}

// WithBatchSize sets how many documents are sent to the embedder per call
func WithBatchSize(n int) Option {
	return func(x *Index) {
		if n > 0 {
			x.batchSize = n
		}
	}
}

// WithConcurrency limits the number of embedding calls in flight during Build
func WithConcurrency(n int) Option {
	return func(x *Index) {
		if n > 0 {
			x.concurrency = n
		}
	}
}

// New creates an empty, unbuilt index
func New(embedder interfaces.Embedder, opts ...Option) *Index {
	x := &Index{
		embedder:    embedder,
		dimension:   model.EmbeddingDimension,
		batchSize:   defaultBatchSize,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Built reports whether Build has succeeded at least once
func (x *Index) Built() bool {
	return x.state.Load() != nil
}

// Len returns the number of indexed documents
func (x *Index) Len() int {
	s := x.state.Load()
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Build encodes every document and replaces the index contents. On failure the previous state is kept.
func (x *Index) Build(ctx context.Context, docs []model.Document) error {
	vectors, err := x.encodeAll(ctx, docs)
	if err != nil {
		return err
	}

	entries := make([]entry, len(docs))
	for i := range docs {
		entries[i] = entry{vector: vectors[i], doc: docs[i]}
	}
	x.state.Store(&snapshot{entries: entries})

	logging.From(ctx).Info("vector index built", "documents", len(entries), "dimension", x.dimension)
	return nil
}

func (x *Index) encodeAll(ctx context.Context, docs []model.Document) ([][]float32, error) {
	vectors := make([][]float32, len(docs))
	if len(docs) == 0 {
		return vectors, nil
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(x.concurrency)

	for start := 0; start < len(docs); start += x.batchSize {
		end := min(start+x.batchSize, len(docs))
		eg.Go(func() error {
			texts := make([]string, 0, end-start)
			for _, d := range docs[start:end] {
				texts = append(texts, d.Content)
			}

			out, err := x.embedder.Embed(ctx, texts)
			if err != nil {
				return goerr.Wrap(model.ErrIndexBuild, "failed to embed documents",
					goerr.V("offset", start), goerr.V("cause", err.Error()))
			}
			if len(out) != len(texts) {
				return goerr.Wrap(model.ErrIndexBuild, "embedder returned wrong number of vectors",
					goerr.V("expected", len(texts)), goerr.V("actual", len(out)))
			}
			for i, v := range out {
				if len(v) != x.dimension {
					return goerr.Wrap(model.ErrIndexBuild, "embedding dimension mismatch",
						goerr.V("expected", x.dimension), goerr.V("actual", len(v)), goerr.V(model.RecordKey, start+i))
				}
				vectors[start+i] = v
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// Search returns the k documents closest to query, nearest first. Ties keep document order.
// k <= 0 selects DefaultTopK and k larger than the index is clamped.
func (x *Index) Search(ctx context.Context, query string, k int) ([]model.SearchResult, error) {
	s := x.state.Load()
	if s == nil {
		return nil, goerr.Wrap(model.ErrSearch, "index has not been built")
	}
	if k <= 0 {
		k = model.DefaultTopK
	}
	if len(s.entries) == 0 {
		return []model.SearchResult{}, nil
	}

	out, err := x.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, goerr.Wrap(model.ErrSearch, "failed to embed query", goerr.V("cause", err.Error()))
	}
	if len(out) != 1 || len(out[0]) != x.dimension {
		return nil, goerr.Wrap(model.ErrSearch, "query embedding has unexpected shape", goerr.V("vectors", len(out)))
	}
	q := out[0]

	results := make([]model.SearchResult, len(s.entries))
	for i, e := range s.entries {
		results[i] = model.SearchResult{
			Document: e.doc,
			Distance: squaredL2(q, e.vector),
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})

	return results[:min(k, len(results))], nil
}

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
