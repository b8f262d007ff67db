package model

// EmbeddingDimension is the dimension of every vector held by the index.
// It matches all-MiniLM-L6-v2, the sentence-embedding model the knowledge base was tuned with.
const EmbeddingDimension = 384

// DefaultTopK is the number of documents retrieved per query when the caller does not specify one
const DefaultTopK = 3

// Metadata holds document attributes that are not embedded
type Metadata struct {
	Tag string `json:"tag"`
}

// Document is one normalized knowledge-base entry. It is never mutated after creation.
type Document struct {
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
}

// SearchResult pairs a document with its squared L2 distance to the query. Lower is closer.
type SearchResult struct {
	Document Document `json:"document"`
	Distance float32  `json:"distance"`
}
