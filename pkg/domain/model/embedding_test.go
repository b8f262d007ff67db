package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/asclepius/pkg/domain/model"
)

func TestNewEmbeddingKey(t *testing.T) {
	k1 := model.NewEmbeddingKey("text-embedding-3-small", "asthma")
	k2 := model.NewEmbeddingKey("text-embedding-3-small", "asthma")
	gt.Value(t, k1).Equal(k2)
	gt.Value(t, len(k1)).Equal(64)

	gt.Value(t, model.NewEmbeddingKey("other-model", "asthma")).NotEqual(k1)
	gt.Value(t, model.NewEmbeddingKey("text-embedding-3-small", "asthma ")).NotEqual(k1)
}

func TestAudioClip_Empty(t *testing.T) {
	var clip *model.AudioClip
	gt.Bool(t, clip.Empty()).True()
	gt.Bool(t, (&model.AudioClip{Format: "wav"}).Empty()).True()
	gt.Bool(t, (&model.AudioClip{Data: []byte{1}}).Empty()).False()
}
