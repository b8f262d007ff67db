package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/asclepius/pkg/service/llm"
	"github.com/urfave/cli/v3"
)

// OpenAI holds configuration for an OpenAI compatible endpoint.
// The same client serves generation, embeddings and the audio features.
type OpenAI struct {
	apiKey         string
	baseURL        string
	chatModel      string
	embeddingModel string
}

// Flags returns CLI flags for OpenAI configuration
func (o *OpenAI) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "openai-api-key",
			Usage:       "API key for the OpenAI compatible endpoint",
			Category:    "LLM",
			Sources:     cli.EnvVars("ASCLEPIUS_OPENAI_API_KEY", "OPENAI_API_KEY"),
			Destination: &o.apiKey,
		},
		&cli.StringFlag{
			Name:        "openai-base-url",
			Usage:       "Base URL of the OpenAI compatible endpoint (empty for api.openai.com)",
			Category:    "LLM",
			Sources:     cli.EnvVars("ASCLEPIUS_OPENAI_BASE_URL"),
			Destination: &o.baseURL,
		},
		&cli.StringFlag{
			Name:        "openai-chat-model",
			Usage:       "Chat model used for answer generation",
			Category:    "LLM",
			Sources:     cli.EnvVars("ASCLEPIUS_OPENAI_CHAT_MODEL"),
			Destination: &o.chatModel,
		},
		&cli.StringFlag{
			Name:        "openai-embedding-model",
			Usage:       "Embedding model (must support 384 dimensions)",
			Category:    "LLM",
			Sources:     cli.EnvVars("ASCLEPIUS_OPENAI_EMBEDDING_MODEL"),
			Destination: &o.embeddingModel,
		},
	}
}

// LogAttrs returns log attributes for the OpenAI configuration. The API key is never logged.
func (o *OpenAI) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.Bool("api_key_set", o.apiKey != ""),
		slog.String("base_url", o.baseURL),
		slog.String("chat_model", o.chatModel),
		slog.String("embedding_model", o.embeddingModel),
	}
}

// Enabled reports whether an API key is configured
func (o *OpenAI) Enabled() bool {
	return o.apiKey != ""
}

// Configure creates the OpenAI adapter. Returns nil if no API key is configured.
func (o *OpenAI) Configure() (*llm.OpenAI, error) {
	if o.apiKey == "" {
		return nil, nil
	}

	var opts []llm.OpenAIOption
	if o.chatModel != "" {
		opts = append(opts, llm.WithOpenAIChatModel(o.chatModel))
	}
	if o.embeddingModel != "" {
		opts = append(opts, llm.WithOpenAIEmbeddingModel(o.embeddingModel))
	}

	client, err := llm.NewOpenAI(o.apiKey, o.baseURL, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create OpenAI client")
	}
	return client, nil
}
