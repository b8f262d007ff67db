package llm

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sashabaranov/go-openai"
	"github.com/secmon-lab/asclepius/pkg/domain/model"
)

const (
	DefaultOpenAIChatModel      = openai.GPT4oMini
	DefaultOpenAIEmbeddingModel = "text-embedding-3-small"
)

// OpenAI serves generation and embedding from an OpenAI-compatible endpoint
type OpenAI struct {
	client         *openai.Client
	chatModel      string
	embeddingModel string
	dimension      int
}

// OpenAIOption is a functional option for OpenAI
type OpenAIOption func(*OpenAI)

// WithOpenAIChatModel sets the chat completion model
func WithOpenAIChatModel(name string) OpenAIOption {
	return func(o *OpenAI) {
		if name != "" {
			o.chatModel = name
		}
	}
}

// WithOpenAIEmbeddingModel sets the embedding model. It must support the dimensions parameter.
func WithOpenAIEmbeddingModel(name string) OpenAIOption {
	return func(o *OpenAI) {
		if name != "" {
			o.embeddingModel = name
		}
	}
}

// NewOpenAI creates a client. An empty baseURL uses the public OpenAI API.
func NewOpenAI(apiKey, baseURL string, opts ...OpenAIOption) (*OpenAI, error) {
	if apiKey == "" {
		return nil, goerr.New("OpenAI API key is required")
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	o := &OpenAI{
		client:         openai.NewClientWithConfig(cfg),
		chatModel:      DefaultOpenAIChatModel,
		embeddingModel: DefaultOpenAIEmbeddingModel,
		dimension:      model.EmbeddingDimension,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Client exposes the underlying client for the audio adapters sharing its credentials
func (o *OpenAI) Client() *openai.Client {
	return o.client
}

// ModelName identifies the embedding model
func (o *OpenAI) ModelName() string {
	return "openai:" + o.embeddingModel
}

// Generate sends prompt as a single user message
func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to create chat completion", goerr.V("model", o.chatModel))
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// Embed requests vectors of the index dimension, reordering by the returned index
func (o *OpenAI) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      texts,
		Model:      openai.EmbeddingModel(o.embeddingModel),
		Dimensions: o.dimension,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create embeddings", goerr.V("model", o.embeddingModel))
	}
	if len(resp.Data) != len(texts) {
		return nil, goerr.New("embedding count mismatch",
			goerr.V("expected", len(texts)), goerr.V("actual", len(resp.Data)))
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, goerr.New("embedding index out of range", goerr.V("index", d.Index))
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}
