package config

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/asclepius/pkg/service/llm"
	"github.com/urfave/cli/v3"
)

// GenAI holds configuration for the Gemini API accessed with an API key
type GenAI struct {
	apiKey string
	model  string
}

// Flags returns CLI flags for GenAI configuration
func (g *GenAI) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "genai-api-key",
			Usage:       "Gemini API key (Google AI Studio)",
			Category:    "LLM",
			Sources:     cli.EnvVars("ASCLEPIUS_GENAI_API_KEY", "GEMINI_API_KEY"),
			Destination: &g.apiKey,
		},
		&cli.StringFlag{
			Name:        "genai-model",
			Usage:       "Gemini model name for generation",
			Category:    "LLM",
			Sources:     cli.EnvVars("ASCLEPIUS_GENAI_MODEL"),
			Destination: &g.model,
		},
	}
}

// Configure creates the GenAI generator. Returns nil if no API key is configured.
// The caller closes the returned client.
func (g *GenAI) Configure(ctx context.Context) (*llm.GenAI, error) {
	if g.apiKey == "" {
		return nil, nil
	}

	client, err := llm.NewGenAI(ctx, g.apiKey, g.model)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create GenAI client")
	}
	return client, nil
}
