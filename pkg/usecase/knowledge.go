package usecase

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/asclepius/pkg/domain/interfaces"
	"github.com/secmon-lab/asclepius/pkg/domain/model"
	"github.com/secmon-lab/asclepius/pkg/service/knowledge"
	"github.com/secmon-lab/asclepius/pkg/utils/logging"
	"golang.org/x/sync/singleflight"
)

// KnowledgeStats describes the currently served knowledge base
type KnowledgeStats struct {
	Documents int       `json:"documents"`
	Intents   int       `json:"intents"`
	LoadedAt  time.Time `json:"loaded_at"`
}

// KnowledgeUseCase owns the loaded intent table and keeps the index in step with the sources
type KnowledgeUseCase struct {
	service        knowledge.Service
	index          interfaces.Indexer
	documentSource string
	intentSource   string

	intents  atomic.Pointer[model.IntentTable]
	loadedAt atomic.Pointer[time.Time]
	group    singleflight.Group
}

// NewKnowledgeUseCase creates a KnowledgeUseCase. Nothing is loaded until Load is called.
func NewKnowledgeUseCase(service knowledge.Service, index interfaces.Indexer, documentSource, intentSource string) *KnowledgeUseCase {
	return &KnowledgeUseCase{
		service:        service,
		index:          index,
		documentSource: documentSource,
		intentSource:   intentSource,
	}
}

// Load reads both sources and rebuilds the index. Either everything is replaced or, on error, nothing is.
func (uc *KnowledgeUseCase) Load(ctx context.Context) error {
	if uc.documentSource == "" {
		return goerr.Wrap(model.ErrDataLoad, "knowledge source is not configured")
	}
	if uc.intentSource == "" {
		return goerr.Wrap(model.ErrDataLoad, "intent source is not configured")
	}

	docs, err := uc.service.LoadDocuments(ctx, uc.documentSource)
	if err != nil {
		return err
	}
	intents, err := uc.service.LoadIntents(ctx, uc.intentSource)
	if err != nil {
		return err
	}

	if err := uc.index.Build(ctx, docs); err != nil {
		return err
	}
	uc.intents.Store(intents)
	now := time.Now().UTC()
	uc.loadedAt.Store(&now)

	logging.From(ctx).Info("knowledge base loaded",
		"documents", len(docs),
		"intents", intents.Len(),
	)
	return nil
}

// Reload is Load with concurrent callers sharing a single run
func (uc *KnowledgeUseCase) Reload(ctx context.Context) error {
	_, err, shared := uc.group.Do("reload", func() (any, error) {
		return nil, uc.Load(ctx)
	})
	if shared {
		logging.From(ctx).Debug("joined in-flight knowledge reload")
	}
	return err
}

// Intents returns the current intent table, nil before the first successful Load
func (uc *KnowledgeUseCase) Intents() *model.IntentTable {
	return uc.intents.Load()
}

// Stats reports what is being served
func (uc *KnowledgeUseCase) Stats() KnowledgeStats {
	stats := KnowledgeStats{
		Documents: uc.index.Len(),
		Intents:   uc.intents.Load().Len(),
	}
	if t := uc.loadedAt.Load(); t != nil {
		stats.LoadedAt = *t
	}
	return stats
}

// Sources returns the configured knowledge and intent URIs
func (uc *KnowledgeUseCase) Sources() (documents, intents string) {
	return uc.documentSource, uc.intentSource
}

// Ready returns ErrNotLoaded until the first successful Load
func (uc *KnowledgeUseCase) Ready() error {
	if uc.loadedAt.Load() == nil {
		return goerr.Wrap(ErrNotLoaded, "no successful load yet",
			goerr.V(model.SourceKey, uc.documentSource))
	}
	return nil
}
