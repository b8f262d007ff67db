package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/asclepius/pkg/domain/interfaces"
	"github.com/secmon-lab/asclepius/pkg/domain/model"
	"github.com/secmon-lab/asclepius/pkg/repository/firestore"
	"github.com/secmon-lab/asclepius/pkg/repository/memory"
)

func newVector(seed float32) []float32 {
	v := make([]float32, model.EmbeddingDimension)
	for i := range v {
		v[i] = seed + float32(i)/float32(model.EmbeddingDimension)
	}
	return v
}

func runEmbeddingCacheRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("PutMany then GetMany returns stored vectors", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		modelName := fmt.Sprintf("test-model-%d", time.Now().UnixNano())

		k1 := model.NewEmbeddingKey(modelName, "diabetes")
		k2 := model.NewEmbeddingKey(modelName, "asthma")
		missing := model.NewEmbeddingKey(modelName, "not stored")

		gt.NoError(t, repo.EmbeddingCache().PutMany(ctx, []*model.CachedEmbedding{
			{Key: k1, Model: modelName, Vector: newVector(0.1), CreatedAt: time.Now().UTC()},
			{Key: k2, Model: modelName, Vector: newVector(0.2), CreatedAt: time.Now().UTC()},
		})).Required()

		got, err := repo.EmbeddingCache().GetMany(ctx, []model.EmbeddingKey{k1, k2, missing})
		gt.NoError(t, err).Required()
		gt.Number(t, len(got)).Equal(2)
		gt.Value(t, got[k1].Model).Equal(modelName)
		gt.Array(t, got[k1].Vector).Length(model.EmbeddingDimension)
		gt.Value(t, got[k2].Vector[0]).Equal(float32(0.2))
		_, ok := got[missing]
		gt.Bool(t, ok).False()
	})

	t.Run("PutMany overwrites existing keys", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		modelName := fmt.Sprintf("test-model-%d", time.Now().UnixNano())
		k := model.NewEmbeddingKey(modelName, "stroke")

		gt.NoError(t, repo.EmbeddingCache().PutMany(ctx, []*model.CachedEmbedding{
			{Key: k, Model: modelName, Vector: newVector(0.1)},
		})).Required()
		gt.NoError(t, repo.EmbeddingCache().PutMany(ctx, []*model.CachedEmbedding{
			{Key: k, Model: modelName, Vector: newVector(0.5)},
		})).Required()

		got, err := repo.EmbeddingCache().GetMany(ctx, []model.EmbeddingKey{k})
		gt.NoError(t, err).Required()
		gt.Value(t, got[k].Vector[0]).Equal(float32(0.5))
		gt.Bool(t, got[k].CreatedAt.IsZero()).False()
	})

	t.Run("GetMany with no keys returns empty map", func(t *testing.T) {
		repo := newRepo(t)
		got, err := repo.EmbeddingCache().GetMany(context.Background(), nil)
		gt.NoError(t, err)
		gt.Number(t, len(got)).Equal(0)
	})

	t.Run("Prune deletes only old entries of the model", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		modelName := fmt.Sprintf("test-model-%d", time.Now().UnixNano())
		otherModel := modelName + "-other"

		old := time.Now().Add(-48 * time.Hour).UTC()
		fresh := time.Now().UTC()
		kOld := model.NewEmbeddingKey(modelName, "old")
		kFresh := model.NewEmbeddingKey(modelName, "fresh")
		kOther := model.NewEmbeddingKey(otherModel, "old")

		gt.NoError(t, repo.EmbeddingCache().PutMany(ctx, []*model.CachedEmbedding{
			{Key: kOld, Model: modelName, Vector: newVector(0.1), CreatedAt: old},
			{Key: kFresh, Model: modelName, Vector: newVector(0.2), CreatedAt: fresh},
			{Key: kOther, Model: otherModel, Vector: newVector(0.3), CreatedAt: old},
		})).Required()

		deleted, err := repo.EmbeddingCache().Prune(ctx, modelName, time.Now().Add(-24*time.Hour))
		gt.NoError(t, err).Required()
		gt.Number(t, deleted).Equal(1)

		got, err := repo.EmbeddingCache().GetMany(ctx, []model.EmbeddingKey{kOld, kFresh, kOther})
		gt.NoError(t, err).Required()
		_, hasOld := got[kOld]
		gt.Bool(t, hasOld).False()
		gt.Value(t, got[kFresh]).NotNil()
		gt.Value(t, got[kOther]).NotNil()
	})
}

func newFirestoreRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}

	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")
	if databaseID == "" {
		t.Skip("TEST_FIRESTORE_DATABASE_ID not set")
	}

	ctx := context.Background()
	repo, err := firestore.New(ctx, projectID, databaseID)
	if err != nil {
		t.Fatalf("failed to create firestore repository: %v", err)
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("failed to close firestore repository: %v", err)
		}
	})
	return repo
}

func TestMemoryEmbeddingCacheRepository(t *testing.T) {
	runEmbeddingCacheRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func TestFirestoreEmbeddingCacheRepository(t *testing.T) {
	runEmbeddingCacheRepositoryTest(t, newFirestoreRepository)

	t.Run("PutMany reports rejected documents", func(t *testing.T) {
		repo := newFirestoreRepository(t)
		modelName := fmt.Sprintf("test-model-%d", time.Now().UnixNano())

		err := repo.EmbeddingCache().PutMany(context.Background(), []*model.CachedEmbedding{
			{Key: model.NewEmbeddingKey(modelName, "valid"), Model: modelName, Vector: newVector(0.1)},
			{Key: model.EmbeddingKey("__reserved__"), Model: modelName, Vector: newVector(0.2)},
		})
		gt.Error(t, err)
	})
}
