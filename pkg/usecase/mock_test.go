package usecase_test

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/secmon-lab/asclepius/pkg/domain/model"
)

// ----- mock Searcher -----

type mockSearcher struct {
	calls    atomic.Int32
	searchFn func(ctx context.Context, query string, k int) ([]model.SearchResult, error)
}

func (m *mockSearcher) Search(ctx context.Context, query string, k int) ([]model.SearchResult, error) {
	m.calls.Add(1)
	if m.searchFn != nil {
		return m.searchFn(ctx, query, k)
	}
	return nil, nil
}

// ----- mock Generator -----

type mockGenerator struct {
	calls      atomic.Int32
	lastPrompt atomic.Pointer[string]
	generateFn func(ctx context.Context, prompt string) (string, error)
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.calls.Add(1)
	m.lastPrompt.Store(&prompt)
	if m.generateFn != nil {
		return m.generateFn(ctx, prompt)
	}
	return "generated answer", nil
}

func (m *mockGenerator) prompt() string {
	if p := m.lastPrompt.Load(); p != nil {
		return *p
	}
	return ""
}

// ----- mock Transcriber / Synthesizer -----

type mockTranscriber struct {
	calls        atomic.Int32
	transcribeFn func(ctx context.Context, clip *model.AudioClip) (string, error)
}

func (m *mockTranscriber) Transcribe(ctx context.Context, clip *model.AudioClip) (string, error) {
	m.calls.Add(1)
	if m.transcribeFn != nil {
		return m.transcribeFn(ctx, clip)
	}
	return string(clip.Data), nil
}

type mockSynthesizer struct {
	calls        atomic.Int32
	synthesizeFn func(ctx context.Context, text string) (*model.AudioClip, error)
}

func (m *mockSynthesizer) Synthesize(ctx context.Context, text string) (*model.AudioClip, error) {
	m.calls.Add(1)
	if m.synthesizeFn != nil {
		return m.synthesizeFn(ctx, text)
	}
	return &model.AudioClip{Data: []byte("mp3:" + text), Format: "mp3"}, nil
}

// ----- mock Embedder -----

// keywordEmbedder maps each known keyword to its own axis
type keywordEmbedder struct {
	calls atomic.Int32
}

var testKeywords = []string{"diabetes", "asthma", "stroke", "cancer"}

func (e *keywordEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls.Add(1)
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, model.EmbeddingDimension)
		for axis, kw := range testKeywords {
			if strings.Contains(strings.ToLower(text), kw) {
				v[axis] = 1
			}
		}
		out[i] = v
	}
	return out, nil
}

func results(tags ...string) []model.SearchResult {
	out := make([]model.SearchResult, 0, len(tags))
	for i, tag := range tags {
		out = append(out, model.SearchResult{
			Document: model.Document{
				Content:  tag + ": about " + tag,
				Metadata: model.Metadata{Tag: tag},
			},
			Distance: float32(i),
		})
	}
	return out
}
