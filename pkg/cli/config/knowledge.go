package config

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/asclepius/pkg/service/knowledge"
	"github.com/secmon-lab/asclepius/pkg/service/source"
	"github.com/secmon-lab/asclepius/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Knowledge holds the knowledge base and intent table locations
type Knowledge struct {
	documents string
	intents   string
}

// Flags returns CLI flags for knowledge sources
func (k *Knowledge) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "knowledge",
			Aliases:     []string{"k"},
			Usage:       "Disease knowledge base (local path or gs://bucket/object; .json, .yaml or .toml)",
			Category:    "Knowledge",
			Value:       "diseases.json",
			Sources:     cli.EnvVars("ASCLEPIUS_KNOWLEDGE"),
			Destination: &k.documents,
		},
		&cli.StringFlag{
			Name:        "intents",
			Aliases:     []string{"i"},
			Usage:       "Intent table (local path or gs://bucket/object; .json, .yaml or .toml)",
			Category:    "Knowledge",
			Value:       "intents.json",
			Sources:     cli.EnvVars("ASCLEPIUS_INTENTS"),
			Destination: &k.intents,
		},
	}
}

// Sources returns the configured URIs
func (k *Knowledge) Sources() (documents, intents string) {
	return k.documents, k.intents
}

// LocalPaths returns the sources that live on the local filesystem
func (k *Knowledge) LocalPaths() []string {
	var paths []string
	for _, uri := range []string{k.documents, k.intents} {
		if uri != "" && source.IsLocal(uri) {
			paths = append(paths, uri)
		}
	}
	return paths
}

// Configure returns use case options wiring the sources and the knowledge loader
func (k *Knowledge) Configure() ([]usecase.Option, error) {
	if k.documents == "" {
		return nil, goerr.Wrap(ErrMissingOption, "knowledge source is required", goerr.V(OptionKey, "knowledge"))
	}
	if k.intents == "" {
		return nil, goerr.Wrap(ErrMissingOption, "intent source is required", goerr.V(OptionKey, "intents"))
	}

	svc := knowledge.New(knowledge.WithReader(source.New()))
	return []usecase.Option{
		usecase.WithKnowledgeService(svc),
		usecase.WithSources(k.documents, k.intents),
	}, nil
}
