package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/asclepius/pkg/cli/config"
	"github.com/secmon-lab/asclepius/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdCache() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the embedding cache",
		Commands: []*cli.Command{
			cmdCachePrune(),
		},
	}
}

func cmdCachePrune() *cli.Command {
	var modelName string
	var allModels bool
	var ttl time.Duration
	var llmCfg config.LLM
	var repoCfg config.Repository

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "model",
			Usage:       "Embedding model whose entries are pruned (empty for the configured embedder)",
			Destination: &modelName,
		},
		&cli.BoolFlag{
			Name:        "all-models",
			Usage:       "Prune entries of every embedding model",
			Destination: &allModels,
		},
		&cli.DurationFlag{
			Name:        "ttl",
			Usage:       "Delete entries older than this duration",
			Value:       30 * 24 * time.Hour,
			Destination: &ttl,
		},
	}
	flags = append(flags, llmCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:  "prune",
		Usage: "Delete cached embeddings older than a TTL",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if ttl <= 0 {
				return goerr.Wrap(config.ErrInvalidConfig, "ttl must be positive", goerr.V("ttl", ttl))
			}

			if allModels {
				modelName = ""
			} else if modelName == "" {
				clients, err := llmCfg.ConfigureEmbedder(ctx)
				if err != nil {
					return goerr.Wrap(err, "failed to resolve embedding model")
				}
				defer clients.Close()
				modelName = clients.Embedder.ModelName()
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			if repo == nil {
				return goerr.Wrap(config.ErrInvalidConfig, "cache prune needs a repository backend")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			cutoff := time.Now().Add(-ttl)
			deleted, err := repo.EmbeddingCache().Prune(ctx, modelName, cutoff)
			if err != nil {
				return goerr.Wrap(err, "failed to prune embedding cache", goerr.V("model", modelName))
			}

			logging.Default().Info("Embedding cache pruned",
				"model", modelName,
				"cutoff", cutoff,
				"deleted", deleted,
			)
			if _, err := fmt.Fprintf(writerOf(c), "deleted: %d\n", deleted); err != nil {
				return goerr.Wrap(err, "failed to write result")
			}
			return nil
		},
	}
}
