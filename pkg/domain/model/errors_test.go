package model_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/asclepius/pkg/domain/model"
)

func TestErrors_SentinelIdentification(t *testing.T) {
	sentinels := []error{
		model.ErrDataLoad,
		model.ErrIndexBuild,
		model.ErrSearch,
		model.ErrGeneration,
		model.ErrTranscription,
		model.ErrSynthesis,
		model.ErrEmptyQuery,
	}

	for i, s := range sentinels {
		wrapped := goerr.Wrap(s, "wrapped", goerr.V("index", i))
		gt.Error(t, wrapped).Is(s)

		for j, other := range sentinels {
			if i == j {
				continue
			}
			gt.Bool(t, errors.Is(wrapped, other)).False()
		}
	}
}
