package config_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/asclepius/pkg/cli/config"
)

func TestKnowledge(t *testing.T) {
	t.Run("local paths exclude GCS objects", func(t *testing.T) {
		cfg := config.NewKnowledgeForTest("gs://bucket/diseases.json", "data/intents.yaml")
		paths := cfg.LocalPaths()
		gt.A(t, paths).Length(1).Required()
		gt.Value(t, paths[0]).Equal("data/intents.yaml")
	})

	t.Run("configure returns use case options", func(t *testing.T) {
		opts, err := config.NewKnowledgeForTest("diseases.json", "intents.json").Configure()
		gt.NoError(t, err)
		gt.A(t, opts).Length(2)
	})

	t.Run("sources are required", func(t *testing.T) {
		_, err := config.NewKnowledgeForTest("", "intents.json").Configure()
		gt.True(t, errors.Is(err, config.ErrMissingOption))

		_, err = config.NewKnowledgeForTest("diseases.json", "").Configure()
		gt.True(t, errors.Is(err, config.ErrMissingOption))
	})
}
