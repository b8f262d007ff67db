package interfaces

import "context"

// Embedder turns texts into fixed-length vectors. It must be deterministic for a fixed model
// and return exactly one vector per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces a free-text answer for a prompt. Output is untrusted and may be empty.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ModelNamer is implemented by embedders that can identify their model, used to scope cached vectors
type ModelNamer interface {
	ModelName() string
}
