package config

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/asclepius/pkg/service/audio"
	"github.com/secmon-lab/asclepius/pkg/service/llm"
	"github.com/secmon-lab/asclepius/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Audio holds CLI flags for speech input and output
type Audio struct {
	disabled bool
	voice    string
	speed    float64
}

// Flags returns CLI flags for audio configuration
func (a *Audio) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "disable-audio",
			Usage:       "Disable transcription and speech synthesis",
			Category:    "Audio",
			Sources:     cli.EnvVars("ASCLEPIUS_DISABLE_AUDIO"),
			Destination: &a.disabled,
		},
		&cli.StringFlag{
			Name:        "voice",
			Usage:       "Speech synthesis voice",
			Category:    "Audio",
			Value:       "alloy",
			Sources:     cli.EnvVars("ASCLEPIUS_VOICE"),
			Destination: &a.voice,
		},
		&cli.FloatFlag{
			Name:        "speech-speed",
			Usage:       "Speech synthesis speed (1.0 is normal)",
			Category:    "Audio",
			Value:       1.0,
			Sources:     cli.EnvVars("ASCLEPIUS_SPEECH_SPEED"),
			Destination: &a.speed,
		},
	}
}

// Configure returns use case options enabling audio when an OpenAI client is available.
// Without one the assistant runs text-only.
func (a *Audio) Configure(client *llm.OpenAI) ([]usecase.Option, error) {
	if a.disabled || client == nil {
		return nil, nil
	}

	c, err := audio.New(client.Client(), audio.WithVoice(a.voice), audio.WithSpeed(a.speed))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create audio client")
	}

	return []usecase.Option{
		usecase.WithTranscriber(c),
		usecase.WithSynthesizer(c),
	}, nil
}
