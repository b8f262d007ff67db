package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/asclepius/pkg/domain/interfaces"
	"github.com/secmon-lab/asclepius/pkg/domain/model"
	"github.com/secmon-lab/asclepius/pkg/utils/logging"
)

// AskOption controls one Ask call
type AskOption struct {
	// Speak requests a synthesized clip of the answer
	Speak bool
}

// IntentProvider supplies the intent table in effect for a request
type IntentProvider interface {
	Intents() *model.IntentTable
}

// Assistant sequences transcribe, compose and synthesize for every front end
type Assistant struct {
	composer    *Composer
	intents     IntentProvider
	transcriber interfaces.Transcriber
	synthesizer interfaces.Synthesizer
}

// NewAssistant creates an Assistant. transcriber and synthesizer may be nil when audio is disabled.
func NewAssistant(composer *Composer, intents IntentProvider, transcriber interfaces.Transcriber, synthesizer interfaces.Synthesizer) *Assistant {
	return &Assistant{
		composer:    composer,
		intents:     intents,
		transcriber: transcriber,
		synthesizer: synthesizer,
	}
}

// SpeechEnabled reports whether answers can be synthesized
func (a *Assistant) SpeechEnabled() bool {
	return a.synthesizer != nil
}

// TranscriptionEnabled reports whether audio queries are accepted
func (a *Assistant) TranscriptionEnabled() bool {
	return a.transcriber != nil
}

// Ask answers a text query. Only an empty query is an error; synthesis failure marks the reply as degraded.
func (a *Assistant) Ask(ctx context.Context, query string, opt AskOption) (*model.Reply, error) {
	if strings.TrimSpace(query) == "" {
		return nil, goerr.Wrap(model.ErrEmptyQuery, "query has no text")
	}

	var intents *model.IntentTable
	if a.intents != nil {
		intents = a.intents.Intents()
	}

	reply := &model.Reply{
		ID:     uuid.Must(uuid.NewV7()).String(),
		Query:  query,
		Answer: *a.composer.Answer(ctx, query, intents),
	}

	logger := logging.From(ctx)
	logger.Info("answered query",
		"reply_id", reply.ID,
		"kind", reply.Answer.Kind,
		"sources", reply.Answer.Sources,
	)

	if !opt.Speak {
		return reply, nil
	}
	if a.synthesizer == nil {
		reply.AudioDegraded = true
		return reply, nil
	}

	clip, err := a.synthesizer.Synthesize(ctx, reply.Answer.Text)
	if err != nil {
		logger.Warn("speech synthesis failed, returning text only", "reply_id", reply.ID, "error", err.Error())
		reply.AudioDegraded = true
		return reply, nil
	}
	reply.Audio = clip
	return reply, nil
}

// AskAudio transcribes clip and answers the result. A failed or empty transcription never reaches the composer.
func (a *Assistant) AskAudio(ctx context.Context, clip *model.AudioClip, opt AskOption) (*model.Reply, error) {
	if a.transcriber == nil {
		return nil, goerr.Wrap(model.ErrTranscription, "transcription is not configured")
	}

	text, err := a.transcriber.Transcribe(ctx, clip)
	if err != nil {
		return nil, goerr.Wrap(model.ErrTranscription, "failed to transcribe audio", goerr.V("cause", err.Error()))
	}
	if strings.TrimSpace(text) == "" {
		return nil, goerr.Wrap(model.ErrTranscription, "no speech recognized")
	}

	logging.From(ctx).Debug("transcribed audio query", "text", text)
	return a.Ask(ctx, text, opt)
}
