package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/asclepius/pkg/cli/config"
	"github.com/secmon-lab/asclepius/pkg/service/index"
	"github.com/secmon-lab/asclepius/pkg/service/llm"
	"github.com/secmon-lab/asclepius/pkg/usecase"
	"github.com/secmon-lab/asclepius/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdValidate() *cli.Command {
	var knowledgeCfg config.Knowledge
	var profileCfg config.Profile

	var flags []cli.Flag
	flags = append(flags, knowledgeCfg.Flags()...)
	flags = append(flags, profileCfg.Flags()...)

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate the knowledge base, the intent table and the profile",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			composerOpts, err := profileCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "profile validation failed")
			}

			opts, err := knowledgeCfg.Configure()
			if err != nil {
				return err
			}
			opts = append(opts, usecase.WithComposerOptions(composerOpts...))

			// The offline embedder checks that every document can be indexed without credentials
			uc := usecase.New(index.New(llm.NewHashing()), nil, opts...)
			if err := uc.Knowledge.Load(ctx); err != nil {
				return goerr.Wrap(err, "knowledge validation failed")
			}

			stats := uc.Knowledge.Stats()
			documents, intents := knowledgeCfg.Sources()
			logger.Info("Knowledge validation passed",
				"knowledge", documents,
				"intents", intents,
				"document_count", stats.Documents,
				"intent_count", stats.Intents,
			)

			if _, err := fmt.Fprintf(writerOf(c), "documents: %d\nintents: %d\n", stats.Documents, stats.Intents); err != nil {
				return goerr.Wrap(err, "failed to write result")
			}
			return nil
		},
	}
}
