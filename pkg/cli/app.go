package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/asclepius/pkg/cli/config"
	"github.com/secmon-lab/asclepius/pkg/domain/interfaces"
	"github.com/secmon-lab/asclepius/pkg/service/index"
	"github.com/secmon-lab/asclepius/pkg/service/llm"
	"github.com/secmon-lab/asclepius/pkg/usecase"
	"github.com/secmon-lab/asclepius/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// assistantConfig gathers the flags every answering command shares
type assistantConfig struct {
	llm       config.LLM
	knowledge config.Knowledge
	profile   config.Profile
	repo      config.Repository
	audio     config.Audio
}

func (a *assistantConfig) Flags(withAudio bool) []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, a.knowledge.Flags()...)
	flags = append(flags, a.llm.Flags()...)
	flags = append(flags, a.profile.Flags()...)
	flags = append(flags, a.repo.Flags()...)
	if withAudio {
		flags = append(flags, a.audio.Flags()...)
	}
	return flags
}

// build wires the use cases. The returned function releases every client it opened.
func (a *assistantConfig) build(ctx context.Context, withAudio bool) (*usecase.UseCases, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	repo, err := a.repo.Configure(ctx)
	if err != nil {
		return nil, cleanup, goerr.Wrap(err, "failed to initialize repository")
	}
	if repo != nil {
		closers = append(closers, func() {
			if err := repo.Close(); err != nil {
				logging.Default().Error("failed to close repository", "error", err.Error())
			}
		})
	}

	clients, err := a.llm.Configure(ctx)
	if err != nil {
		return nil, cleanup, goerr.Wrap(err, "failed to configure LLM providers")
	}
	closers = append(closers, clients.Close)

	var embedder interfaces.Embedder = clients.Embedder
	if repo != nil && a.llm.ResolveEmbedder() != config.ProviderHashing {
		embedder = llm.NewCached(clients.Embedder, repo.EmbeddingCache())
	}

	opts, err := a.knowledge.Configure()
	if err != nil {
		return nil, cleanup, err
	}

	composerOpts, err := a.profile.Configure()
	if err != nil {
		return nil, cleanup, goerr.Wrap(err, "failed to load profile")
	}
	opts = append(opts, usecase.WithComposerOptions(composerOpts...))

	if withAudio {
		audioOpts, err := a.audio.Configure(clients.OpenAI)
		if err != nil {
			return nil, cleanup, err
		}
		opts = append(opts, audioOpts...)
	}

	return usecase.New(index.New(embedder), clients.Generator, opts...), cleanup, nil
}
