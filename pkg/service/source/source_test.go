package source_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/asclepius/pkg/service/source"
)

func TestRead_Local(t *testing.T) {
	ctx := context.Background()
	reader := source.New()

	t.Run("reads existing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "diseases.json")
		gt.NoError(t, os.WriteFile(path, []byte(`{"diseases":[]}`), 0o600)).Required()

		data, err := reader.Read(ctx, path)
		gt.NoError(t, err).Required()
		gt.Value(t, string(data)).Equal(`{"diseases":[]}`)
	})

	t.Run("missing file is ErrNotFound", func(t *testing.T) {
		_, err := reader.Read(ctx, filepath.Join(t.TempDir(), "missing.json"))
		gt.Error(t, err).Is(source.ErrNotFound)
	})

	t.Run("empty URI is rejected", func(t *testing.T) {
		_, err := reader.Read(ctx, "")
		gt.Value(t, err).NotNil()
	})
}

func TestIsLocal(t *testing.T) {
	gt.Bool(t, source.IsLocal("data/diseases.json")).True()
	gt.Bool(t, source.IsLocal("gs://bucket/diseases.json")).False()
}

func TestParseGCSURI(t *testing.T) {
	bucket, object, err := source.ParseGCSURI("gs://kb-bucket/medical/diseases.json")
	gt.NoError(t, err).Required()
	gt.Value(t, bucket).Equal("kb-bucket")
	gt.Value(t, object).Equal("medical/diseases.json")

	for _, bad := range []string{"gs://", "gs://bucket", "gs://bucket/", "gs:///object"} {
		_, _, err := source.ParseGCSURI(bad)
		gt.Value(t, err).NotNil()
	}
}

func TestRead_GCS(t *testing.T) {
	uri := os.Getenv("TEST_GCS_SOURCE_URI")
	if uri == "" {
		t.Skip("TEST_GCS_SOURCE_URI not set")
	}

	data, err := source.New().Read(context.Background(), uri)
	gt.NoError(t, err).Required()
	gt.Number(t, len(data)).Greater(0)
}
