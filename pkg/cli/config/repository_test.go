package config_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/asclepius/pkg/cli/config"
)

func TestRepository_Configure(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		repo, err := config.NewRepositoryForTest(config.BackendMemory, "").Configure(t.Context())
		gt.NoError(t, err).Required()
		gt.Value(t, repo).NotNil()
		gt.NoError(t, repo.Close())
	})

	t.Run("none", func(t *testing.T) {
		repo, err := config.NewRepositoryForTest(config.BackendNone, "").Configure(t.Context())
		gt.NoError(t, err)
		gt.Value(t, repo).Nil()
	})

	t.Run("firestore requires project", func(t *testing.T) {
		_, err := config.NewRepositoryForTest(config.BackendFirestore, "").Configure(t.Context())
		gt.True(t, errors.Is(err, config.ErrMissingOption))
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := config.NewRepositoryForTest("redis", "").Configure(t.Context())
		gt.True(t, errors.Is(err, config.ErrInvalidConfig))
	})
}
