package usecase

import (
	"github.com/secmon-lab/asclepius/pkg/domain/interfaces"
	"github.com/secmon-lab/asclepius/pkg/service/knowledge"
)

// UseCases is the application context built once at startup and shared by every front end
type UseCases struct {
	knowledgeService knowledge.Service
	documentSource   string
	intentSource     string
	transcriber      interfaces.Transcriber
	synthesizer      interfaces.Synthesizer
	composerOpts     []ComposerOption

	Knowledge *KnowledgeUseCase
	Composer  *Composer
	Assistant *Assistant
}

type Option func(*UseCases)

func WithKnowledgeService(svc knowledge.Service) Option {
	return func(uc *UseCases) {
		uc.knowledgeService = svc
	}
}

// WithSources sets the knowledge base and intent table URIs
func WithSources(documents, intents string) Option {
	return func(uc *UseCases) {
		uc.documentSource = documents
		uc.intentSource = intents
	}
}

func WithTranscriber(t interfaces.Transcriber) Option {
	return func(uc *UseCases) {
		uc.transcriber = t
	}
}

func WithSynthesizer(s interfaces.Synthesizer) Option {
	return func(uc *UseCases) {
		uc.synthesizer = s
	}
}

func WithComposerOptions(opts ...ComposerOption) Option {
	return func(uc *UseCases) {
		uc.composerOpts = append(uc.composerOpts, opts...)
	}
}

func New(index interfaces.Indexer, generator interfaces.Generator, opts ...Option) *UseCases {
	uc := &UseCases{}

	for _, opt := range opts {
		opt(uc)
	}
	if uc.knowledgeService == nil {
		uc.knowledgeService = knowledge.New()
	}

	uc.Knowledge = NewKnowledgeUseCase(uc.knowledgeService, index, uc.documentSource, uc.intentSource)
	uc.Composer = NewComposer(index, generator, uc.composerOpts...)
	uc.Assistant = NewAssistant(uc.Composer, uc.Knowledge, uc.transcriber, uc.synthesizer)

	return uc
}
