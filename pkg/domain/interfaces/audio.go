package interfaces

import (
	"context"

	"github.com/secmon-lab/asclepius/pkg/domain/model"
)

// Transcriber converts recorded speech into query text
type Transcriber interface {
	Transcribe(ctx context.Context, clip *model.AudioClip) (string, error)
}

// Synthesizer converts answer text into speech
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (*model.AudioClip, error)
}
