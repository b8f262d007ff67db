package index_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/asclepius/pkg/domain/model"
	"github.com/secmon-lab/asclepius/pkg/service/index"
	"github.com/secmon-lab/asclepius/pkg/service/llm"
)

// keywordEmbedder puts weight on a fixed axis per known keyword so distances are predictable
type keywordEmbedder struct {
	dim      int
	calls    atomic.Int32
	failWith error
}

var keywords = []string{"diabetes", "asthma", "stroke", "cancer", "heart"}

func (e *keywordEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls.Add(1)
	if e.failWith != nil {
		return nil, e.failWith
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, e.dim)
		lower := strings.ToLower(text)
		for axis, kw := range keywords {
			if strings.Contains(lower, kw) {
				v[axis] = 1
			}
		}
		out[i] = v
	}
	return out, nil
}

func docs(tags ...string) []model.Document {
	out := make([]model.Document, 0, len(tags))
	for _, tag := range tags {
		out = append(out, model.Document{
			Content:  tag + ": about " + tag,
			Metadata: model.Metadata{Tag: tag},
		})
	}
	return out
}

func newEmbedder() *keywordEmbedder {
	return &keywordEmbedder{dim: model.EmbeddingDimension}
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	idx := index.New(newEmbedder())
	gt.NoError(t, idx.Build(ctx, docs("diabetes", "asthma", "stroke", "cancer"))).Required()
	gt.Number(t, idx.Len()).Equal(4)

	t.Run("nearest first", func(t *testing.T) {
		results, err := idx.Search(ctx, "what is asthma", 2)
		gt.NoError(t, err).Required()
		gt.Array(t, results).Length(2).Required()
		gt.Value(t, results[0].Document.Metadata.Tag).Equal("asthma")
		gt.Value(t, results[0].Distance).Equal(float32(0))
		gt.Bool(t, results[0].Distance <= results[1].Distance).True()
	})

	t.Run("default k", func(t *testing.T) {
		results, err := idx.Search(ctx, "stroke", 0)
		gt.NoError(t, err).Required()
		gt.Array(t, results).Length(model.DefaultTopK)
	})

	t.Run("k clamped to index size", func(t *testing.T) {
		results, err := idx.Search(ctx, "stroke", 10)
		gt.NoError(t, err).Required()
		gt.Array(t, results).Length(4)
	})

	t.Run("ties keep document order", func(t *testing.T) {
		results, err := idx.Search(ctx, "unrelated question", 4)
		gt.NoError(t, err).Required()
		gt.Array(t, results).Length(4).Required()
		for i, tag := range []string{"diabetes", "asthma", "stroke", "cancer"} {
			gt.Value(t, results[i].Document.Metadata.Tag).Equal(tag)
		}
	})
}

func TestSearch_HashingEmbedder(t *testing.T) {
	ctx := context.Background()
	corpus := []model.Document{
		{Content: "Asthma causes wheezing and shortness of breath.", Metadata: model.Metadata{Tag: "A"}},
		{Content: "Diabetes affects how the body uses blood sugar.", Metadata: model.Metadata{Tag: "B"}},
		{Content: "A stroke interrupts blood supply to the brain.", Metadata: model.Metadata{Tag: "C"}},
	}

	t.Run("query identical to a document ranks it first at zero distance", func(t *testing.T) {
		idx := index.New(llm.NewHashing())
		gt.NoError(t, idx.Build(ctx, corpus)).Required()

		results, err := idx.Search(ctx, corpus[1].Content, 3)
		gt.NoError(t, err).Required()
		gt.Array(t, results).Length(3).Required()
		gt.Value(t, results[0].Document.Metadata.Tag).Equal("B")
		gt.Value(t, results[0].Distance).Equal(float32(0))
	})

	t.Run("k larger than corpus returns every document ascending", func(t *testing.T) {
		idx := index.New(llm.NewHashing())
		gt.NoError(t, idx.Build(ctx, corpus[:2])).Required()

		results, err := idx.Search(ctx, "what is asthma", 3)
		gt.NoError(t, err).Required()
		gt.Array(t, results).Length(2).Required()
		gt.Bool(t, results[0].Distance <= results[1].Distance).True()
	})
}

func TestSearch_BeforeBuild(t *testing.T) {
	emb := newEmbedder()
	idx := index.New(emb)

	_, err := idx.Search(context.Background(), "diabetes", 3)
	gt.Error(t, err).Is(model.ErrSearch)
	gt.Bool(t, idx.Built()).False()
	gt.Value(t, emb.calls.Load()).Equal(int32(0))
}

func TestBuild_Empty(t *testing.T) {
	emb := newEmbedder()
	idx := index.New(emb)
	ctx := context.Background()

	gt.NoError(t, idx.Build(ctx, nil)).Required()
	gt.Bool(t, idx.Built()).True()
	gt.Number(t, idx.Len()).Equal(0)

	results, err := idx.Search(ctx, "diabetes", 3)
	gt.NoError(t, err)
	gt.Array(t, results).Length(0)
	gt.Value(t, emb.calls.Load()).Equal(int32(0))
}

func TestBuild_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("embedder error", func(t *testing.T) {
		idx := index.New(&keywordEmbedder{dim: model.EmbeddingDimension, failWith: errors.New("quota exceeded")})
		gt.Error(t, idx.Build(ctx, docs("diabetes"))).Is(model.ErrIndexBuild)
		gt.Bool(t, idx.Built()).False()
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		idx := index.New(&keywordEmbedder{dim: 8})
		gt.Error(t, idx.Build(ctx, docs("diabetes"))).Is(model.ErrIndexBuild)
	})

	t.Run("failed rebuild keeps previous state", func(t *testing.T) {
		emb := newEmbedder()
		idx := index.New(emb)
		gt.NoError(t, idx.Build(ctx, docs("diabetes", "asthma"))).Required()

		emb.failWith = errors.New("unavailable")
		gt.Error(t, idx.Build(ctx, docs("stroke"))).Is(model.ErrIndexBuild)
		gt.Number(t, idx.Len()).Equal(2)
	})
}

func TestBuild_Batches(t *testing.T) {
	emb := newEmbedder()
	idx := index.New(emb, index.WithBatchSize(2), index.WithConcurrency(2))

	gt.NoError(t, idx.Build(context.Background(), docs("diabetes", "asthma", "stroke", "cancer", "heart"))).Required()
	gt.Value(t, emb.calls.Load()).Equal(int32(3))
	gt.Number(t, idx.Len()).Equal(5)

	results, err := idx.Search(context.Background(), "heart", 1)
	gt.NoError(t, err).Required()
	gt.Value(t, results[0].Document.Metadata.Tag).Equal("heart")
}

func TestConcurrentRebuildAndSearch(t *testing.T) {
	ctx := context.Background()
	idx := index.New(newEmbedder())
	gt.NoError(t, idx.Build(ctx, docs("diabetes", "asthma"))).Required()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = idx.Build(ctx, docs("diabetes", "asthma", "stroke"))
		}()
		go func() {
			defer wg.Done()
			results, err := idx.Search(ctx, "diabetes", 3)
			if err != nil {
				t.Error(err)
				return
			}
			// always a complete snapshot: either the old two documents or the new three
			if n := len(results); n != 2 && n != 3 {
				t.Errorf("unexpected result count %d", n)
			}
		}()
	}
	wg.Wait()
}
