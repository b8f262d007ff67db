package llm

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/asclepius/pkg/domain/model"
)

// Gollem adapts a gollem.LLMClient (Gemini on Vertex AI in production) to Generator and Embedder
type Gollem struct {
	client    gollem.LLMClient
	name      string
	dimension int
}

// GollemOption is a functional option for Gollem
type GollemOption func(*Gollem)

// WithGollemModelName sets the name used to scope cached embeddings
func WithGollemModelName(name string) GollemOption {
	return func(g *Gollem) {
		g.name = name
	}
}

// NewGollem wraps client
func NewGollem(client gollem.LLMClient, opts ...GollemOption) (*Gollem, error) {
	if client == nil {
		return nil, goerr.New("LLM client is required")
	}
	g := &Gollem{
		client:    client,
		name:      "gollem",
		dimension: model.EmbeddingDimension,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// ModelName identifies the embedding model
func (g *Gollem) ModelName() string {
	return g.name
}

// Generate runs prompt in a fresh single-turn session and joins the returned text parts
func (g *Gollem) Generate(ctx context.Context, prompt string) (string, error) {
	session, err := g.client.NewSession(ctx)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(prompt))
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate content from LLM")
	}
	if resp == nil {
		return "", nil
	}
	return strings.Join(resp.Texts, ""), nil
}

// Embed requests vectors of the index dimension
func (g *Gollem) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	embeddings, err := g.client.GenerateEmbedding(ctx, g.dimension, texts)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate embedding", goerr.V("count", len(texts)))
	}
	if len(embeddings) != len(texts) {
		return nil, goerr.New("embedding count mismatch",
			goerr.V("expected", len(texts)), goerr.V("actual", len(embeddings)))
	}

	out := make([][]float32, len(embeddings))
	for i, e := range embeddings {
		v := make([]float32, len(e))
		for j, x := range e {
			v[j] = float32(x)
		}
		out[i] = v
	}
	return out, nil
}
