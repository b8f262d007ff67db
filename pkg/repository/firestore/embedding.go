package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/asclepius/pkg/domain/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	firestoreGetAllLimit = 100
	pruneBatchSize       = 500
)

// embeddingDoc is the Firestore document representation of model.CachedEmbedding
type embeddingDoc struct {
	Key       string             `firestore:"Key"`
	Model     string             `firestore:"Model"`
	Vector    firestore.Vector32 `firestore:"Vector"`
	CreatedAt time.Time          `firestore:"CreatedAt"`
}

func toEmbeddingDoc(e *model.CachedEmbedding) *embeddingDoc {
	return &embeddingDoc{
		Key:       string(e.Key),
		Model:     e.Model,
		Vector:    firestore.Vector32(e.Vector),
		CreatedAt: e.CreatedAt,
	}
}

func fromEmbeddingDoc(d *embeddingDoc) *model.CachedEmbedding {
	return &model.CachedEmbedding{
		Key:       model.EmbeddingKey(d.Key),
		Model:     d.Model,
		Vector:    []float32(d.Vector),
		CreatedAt: d.CreatedAt,
	}
}

type embeddingCacheRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newEmbeddingCacheRepository(client *firestore.Client) *embeddingCacheRepository {
	return &embeddingCacheRepository{
		client: client,
	}
}

func (r *embeddingCacheRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + DefaultEmbeddingCollection)
}

// GetMany batches lookups so large knowledge bases stay within GetAll limits
func (r *embeddingCacheRepository) GetMany(ctx context.Context, keys []model.EmbeddingKey) (map[model.EmbeddingKey]*model.CachedEmbedding, error) {
	result := make(map[model.EmbeddingKey]*model.CachedEmbedding, len(keys))

	for i := 0; i < len(keys); i += firestoreGetAllLimit {
		batch := keys[i:min(i+firestoreGetAllLimit, len(keys))]

		refs := make([]*firestore.DocumentRef, len(batch))
		for j, k := range batch {
			refs[j] = r.collection().Doc(string(k))
		}

		docs, err := r.client.GetAll(ctx, refs)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to batch get embeddings", goerr.V("count", len(batch)))
		}

		for idx, doc := range docs {
			if !doc.Exists() {
				continue
			}
			var d embeddingDoc
			if err := doc.DataTo(&d); err != nil {
				return nil, goerr.Wrap(err, "failed to unmarshal embedding", goerr.V("key", batch[idx]))
			}
			result[batch[idx]] = fromEmbeddingDoc(&d)
		}
	}

	return result, nil
}

func (r *embeddingCacheRepository) PutMany(ctx context.Context, entries []*model.CachedEmbedding) error {
	if len(entries) == 0 {
		return nil
	}

	bulkWriter := r.client.BulkWriter(ctx)
	defer bulkWriter.End()

	jobs := make([]*firestore.BulkWriterJob, 0, len(entries))
	for _, e := range entries {
		if e == nil || e.Key == "" {
			return goerr.New("embedding cache entry has no key")
		}
		stored := *e
		if stored.CreatedAt.IsZero() {
			stored.CreatedAt = time.Now().UTC()
		}
		job, err := bulkWriter.Set(r.collection().Doc(string(e.Key)), toEmbeddingDoc(&stored))
		if err != nil {
			return goerr.Wrap(err, "failed to add Set operation to bulk writer", goerr.V("key", e.Key))
		}
		jobs = append(jobs, job)
	}

	bulkWriter.Flush()

	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			return goerr.Wrap(err, "failed to write embedding", goerr.V("key", entries[i].Key))
		}
	}
	return nil
}

// Prune deletes in batches. Filtering by model needs the (Model, CreatedAt) composite index created by migrate.
func (r *embeddingCacheRepository) Prune(ctx context.Context, modelName string, cutoff time.Time) (int, error) {
	totalDeleted := 0

	for {
		query := r.collection().Where("CreatedAt", "<", cutoff)
		if modelName != "" {
			query = r.collection().Where("Model", "==", modelName).Where("CreatedAt", "<", cutoff)
		}

		iter := query.Limit(pruneBatchSize).Documents(ctx)
		bulkWriter := r.client.BulkWriter(ctx)
		count := 0

		for {
			doc, err := iter.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				iter.Stop()
				bulkWriter.End()
				if status.Code(err) == codes.FailedPrecondition {
					return totalDeleted, goerr.Wrap(err, "composite index for pruning is missing, run migrate first",
						goerr.V("model", modelName))
				}
				return totalDeleted, goerr.Wrap(err, "failed to iterate embeddings for deletion", goerr.V("model", modelName))
			}

			if _, err := bulkWriter.Delete(doc.Ref); err != nil {
				iter.Stop()
				bulkWriter.End()
				return totalDeleted, goerr.Wrap(err, "failed to delete embedding", goerr.V("model", modelName))
			}
			count++
		}
		iter.Stop()
		bulkWriter.End()

		totalDeleted += count
		if count < pruneBatchSize {
			break
		}
	}

	return totalDeleted, nil
}
