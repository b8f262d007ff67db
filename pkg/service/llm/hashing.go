package llm

import (
	"context"
	"math"
	"strings"
	"unicode"

	"github.com/minio/highwayhash"
	"github.com/secmon-lab/asclepius/pkg/domain/model"
)

var hashingKey = []byte("asclepius-feature-hashing-key-01")

// Hashing is an offline embedder using signed feature hashing of word unigrams and bigrams.
// It needs no credentials and is deterministic, which makes it the embedder for tests and air-gapped runs.
type Hashing struct {
	dimension int
}

// NewHashing creates a feature-hashing embedder of the index dimension
func NewHashing() *Hashing {
	return &Hashing{dimension: model.EmbeddingDimension}
}

// ModelName identifies the embedding scheme
func (h *Hashing) ModelName() string {
	return "hashing:v1"
}

// Embed returns one L2-normalized vector per text. Texts without any word map to the zero vector.
func (h *Hashing) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = h.vector(text)
	}
	return out, nil
}

func (h *Hashing) vector(text string) []float32 {
	v := make([]float32, h.dimension)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	for i, w := range words {
		h.add(v, w)
		if i > 0 {
			h.add(v, words[i-1]+" "+w)
		}
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return v
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= scale
	}
	return v
}

func (h *Hashing) add(v []float32, feature string) {
	sum := highwayhash.Sum64([]byte(feature), hashingKey)
	idx := sum % uint64(len(v))
	if sum>>63 == 1 {
		v[idx]--
	} else {
		v[idx]++
	}
}
