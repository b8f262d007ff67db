package llm

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/option"
)

// DefaultGenAIModel is used when no model is configured
const DefaultGenAIModel = "gemini-1.5-flash"

// GenAI generates answers through the Gemini API with an API key instead of Vertex AI credentials
type GenAI struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
}

// NewGenAI creates a Gemini API client for modelName
func NewGenAI(ctx context.Context, apiKey, modelName string) (*GenAI, error) {
	if apiKey == "" {
		return nil, goerr.New("Gemini API key is required")
	}
	if modelName == "" {
		modelName = DefaultGenAIModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Gemini API client")
	}

	return &GenAI{
		client: client,
		model:  client.GenerativeModel(modelName),
		name:   modelName,
	}, nil
}

// Close releases the underlying connection
func (g *GenAI) Close() error {
	return g.client.Close()
}

// Generate concatenates the text parts of every candidate
func (g *GenAI) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate content", goerr.V("model", g.name))
	}

	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
	}
	return b.String(), nil
}
