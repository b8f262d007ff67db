package cli_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/asclepius/pkg/cli"
	"github.com/secmon-lab/asclepius/pkg/cli/config"
	"github.com/secmon-lab/asclepius/pkg/domain/model"
)

const (
	testDiseases = "../service/knowledge/testdata/diseases.json"
	testIntents  = "../service/knowledge/testdata/intents.json"
)

func TestRun_ValidateCommand_ValidKnowledge(t *testing.T) {
	err := cli.Run(context.Background(), []string{
		"asclepius", "validate",
		"--knowledge", testDiseases,
		"--intents", testIntents,
	}, "test")
	gt.NoError(t, err)
}

func TestRun_ValidateCommand_YAMLAndTOML(t *testing.T) {
	err := cli.Run(context.Background(), []string{
		"asclepius", "validate",
		"--knowledge", "../service/knowledge/testdata/diseases.yaml",
		"--intents", "../service/knowledge/testdata/intents.toml",
	}, "test")
	gt.NoError(t, err)
}

func TestRun_ValidateCommand_InvalidKnowledge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diseases.json")
	// Record without a tag
	content := `{"diseases": [{"symptoms": "cough", "treatment": "rest"}]}`
	gt.NoError(t, os.WriteFile(path, []byte(content), 0o600)).Required()

	err := cli.Run(context.Background(), []string{
		"asclepius", "validate",
		"--knowledge", path,
		"--intents", testIntents,
	}, "test")
	gt.True(t, errors.Is(err, model.ErrDataLoad))
}

func TestRun_ValidateCommand_MissingKnowledge(t *testing.T) {
	err := cli.Run(context.Background(), []string{
		"asclepius", "validate",
		"--knowledge", filepath.Join(t.TempDir(), "nonexistent.json"),
		"--intents", testIntents,
	}, "test")
	gt.True(t, errors.Is(err, model.ErrDataLoad))
}

func TestRun_ValidateCommand_InvalidProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.toml")
	gt.NoError(t, os.WriteFile(path, []byte(`top_k = -3`), 0o600)).Required()

	err := cli.Run(context.Background(), []string{
		"asclepius", "validate",
		"--knowledge", testDiseases,
		"--intents", testIntents,
		"--profile", path,
	}, "test")
	gt.True(t, errors.Is(err, config.ErrInvalidConfig))
}

func TestRun_AskCommand_EmptyQuestion(t *testing.T) {
	err := cli.Run(context.Background(), []string{"asclepius", "ask"}, "test")
	gt.True(t, errors.Is(err, model.ErrEmptyQuery))
}

func TestRun_CachePrune_Memory(t *testing.T) {
	err := cli.Run(context.Background(), []string{
		"asclepius", "cache", "prune",
		"--repository-backend", "memory",
		"--embedder", "hash",
		"--ttl", "1h",
	}, "test")
	gt.NoError(t, err)
}

func TestRun_CachePrune_RequiresBackend(t *testing.T) {
	err := cli.Run(context.Background(), []string{
		"asclepius", "cache", "prune",
		"--repository-backend", "none",
		"--all-models",
	}, "test")
	gt.True(t, errors.Is(err, config.ErrInvalidConfig))
}
