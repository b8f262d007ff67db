package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/asclepius/pkg/domain/interfaces"
	"github.com/secmon-lab/asclepius/pkg/service/llm"
	"github.com/secmon-lab/asclepius/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Provider names accepted by --embedder and --generator
const (
	ProviderAuto    = "auto"
	ProviderGemini  = "gemini"
	ProviderGenAI   = "genai"
	ProviderOpenAI  = "openai"
	ProviderHashing = "hash"
)

// LLM selects the embedder and generator providers and holds their settings
type LLM struct {
	embedder  string
	generator string

	Gemini Gemini
	GenAI  GenAI
	OpenAI OpenAI
}

// Flags returns CLI flags for provider selection and every provider
func (l *LLM) Flags() []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "embedder",
			Usage:       "Embedding provider (auto, gemini, openai, hash)",
			Category:    "LLM",
			Value:       ProviderAuto,
			Sources:     cli.EnvVars("ASCLEPIUS_EMBEDDER"),
			Destination: &l.embedder,
		},
		&cli.StringFlag{
			Name:        "generator",
			Usage:       "Answer generation provider (auto, gemini, genai, openai)",
			Category:    "LLM",
			Value:       ProviderAuto,
			Sources:     cli.EnvVars("ASCLEPIUS_GENERATOR"),
			Destination: &l.generator,
		},
	}
	flags = append(flags, l.Gemini.Flags()...)
	flags = append(flags, l.GenAI.Flags()...)
	flags = append(flags, l.OpenAI.Flags()...)
	return flags
}

// LLMClients are the adapters built from LLM
type LLMClients struct {
	Embedder  llm.NamedEmbedder
	Generator interfaces.Generator
	// OpenAI is set whenever an OpenAI API key is configured, regardless of provider selection
	OpenAI *llm.OpenAI

	closers []func() error
}

// Close releases provider connections
func (c *LLMClients) Close() {
	for _, fn := range c.closers {
		if err := fn(); err != nil {
			logging.Default().Warn("failed to close LLM client", "error", err.Error())
		}
	}
}

// ResolveEmbedder returns the embedding provider that auto selection picks
func (l *LLM) ResolveEmbedder() string {
	if l.embedder != ProviderAuto && l.embedder != "" {
		return l.embedder
	}
	switch {
	case l.Gemini.projectID != "":
		return ProviderGemini
	case l.OpenAI.Enabled():
		return ProviderOpenAI
	default:
		return ProviderHashing
	}
}

// ResolveGenerator returns the generation provider that auto selection picks.
// An empty result means no provider is configured.
func (l *LLM) ResolveGenerator() string {
	if l.generator != ProviderAuto && l.generator != "" {
		return l.generator
	}
	switch {
	case l.Gemini.projectID != "":
		return ProviderGemini
	case l.GenAI.apiKey != "":
		return ProviderGenAI
	case l.OpenAI.Enabled():
		return ProviderOpenAI
	default:
		return ""
	}
}

// ConfigureEmbedder builds only the embedder. Used by commands that never generate.
func (l *LLM) ConfigureEmbedder(ctx context.Context) (*LLMClients, error) {
	return l.configure(ctx, false)
}

// Configure builds the embedder and the generator
func (l *LLM) Configure(ctx context.Context) (*LLMClients, error) {
	return l.configure(ctx, true)
}

func (l *LLM) configure(ctx context.Context, withGenerator bool) (*LLMClients, error) {
	clients := &LLMClients{}

	openaiClient, err := l.OpenAI.Configure()
	if err != nil {
		return nil, err
	}
	clients.OpenAI = openaiClient

	var gollemClient *llm.Gollem
	gollemAdapter := func() (*llm.Gollem, error) {
		if gollemClient != nil {
			return gollemClient, nil
		}
		client, err := l.Gemini.Configure(ctx)
		if err != nil {
			return nil, err
		}
		if client == nil {
			return nil, goerr.Wrap(ErrMissingOption, "gemini-project is required", goerr.V(OptionKey, "gemini-project"))
		}
		g, err := llm.NewGollem(client, llm.WithGollemModelName(l.Gemini.ModelName()))
		if err != nil {
			return nil, err
		}
		gollemClient = g
		return g, nil
	}

	embedder := l.ResolveEmbedder()
	switch embedder {
	case ProviderGemini:
		g, err := gollemAdapter()
		if err != nil {
			return nil, err
		}
		clients.Embedder = g
	case ProviderOpenAI:
		if openaiClient == nil {
			return nil, goerr.Wrap(ErrMissingOption, "openai-api-key is required", goerr.V(OptionKey, "openai-api-key"))
		}
		clients.Embedder = openaiClient
	case ProviderHashing:
		clients.Embedder = llm.NewHashing()
	default:
		return nil, goerr.Wrap(ErrInvalidConfig, "unknown embedding provider", goerr.V(ProviderKey, embedder))
	}

	if !withGenerator {
		return clients, nil
	}

	generator := l.ResolveGenerator()
	switch generator {
	case ProviderGemini:
		g, err := gollemAdapter()
		if err != nil {
			return nil, err
		}
		clients.Generator = g
	case ProviderGenAI:
		g, err := l.GenAI.Configure(ctx)
		if err != nil {
			return nil, err
		}
		if g == nil {
			return nil, goerr.Wrap(ErrMissingOption, "genai-api-key is required", goerr.V(OptionKey, "genai-api-key"))
		}
		clients.Generator = g
		clients.closers = append(clients.closers, g.Close)
	case ProviderOpenAI:
		if openaiClient == nil {
			return nil, goerr.Wrap(ErrMissingOption, "openai-api-key is required", goerr.V(OptionKey, "openai-api-key"))
		}
		clients.Generator = openaiClient
	case "":
		return nil, goerr.Wrap(ErrMissingOption, "no generation provider configured; set --gemini-project, --genai-api-key or --openai-api-key")
	default:
		return nil, goerr.Wrap(ErrInvalidConfig, "unknown generation provider", goerr.V(ProviderKey, generator))
	}

	logging.From(ctx).Info("LLM providers configured",
		slog.String("embedder", embedder),
		slog.String("embedding_model", clients.Embedder.ModelName()),
		slog.String("generator", generator),
	)

	return clients, nil
}
