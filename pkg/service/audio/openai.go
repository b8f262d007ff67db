package audio

import (
	"bytes"
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sashabaranov/go-openai"
	"github.com/secmon-lab/asclepius/pkg/domain/model"
	"github.com/secmon-lab/asclepius/pkg/utils/safe"
)

// maxSpeechSize bounds a synthesized clip
const maxSpeechSize = 16 << 20

// Client transcribes with Whisper and synthesizes with the OpenAI speech endpoint
type Client struct {
	client *openai.Client
	voice  openai.SpeechVoice
	speed  float64
}

// Option is a functional option for Client
type Option func(*Client)

// WithVoice selects the synthesis voice
func WithVoice(voice string) Option {
	return func(c *Client) {
		if voice != "" {
			c.voice = openai.SpeechVoice(voice)
		}
	}
}

// WithSpeed sets the speaking rate, 1.0 being normal
func WithSpeed(speed float64) Option {
	return func(c *Client) {
		if speed > 0 {
			c.speed = speed
		}
	}
}

// New creates an audio client on top of an existing OpenAI client
func New(client *openai.Client, opts ...Option) (*Client, error) {
	if client == nil {
		return nil, goerr.New("OpenAI client is required")
	}
	c := &Client{
		client: client,
		voice:  openai.VoiceAlloy,
		speed:  1.0,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Transcribe returns the recognized text. An empty clip is an error.
func (c *Client) Transcribe(ctx context.Context, clip *model.AudioClip) (string, error) {
	if clip.Empty() {
		return "", goerr.Wrap(model.ErrTranscription, "audio clip is empty")
	}

	format := clip.Format
	if format == "" {
		format = "wav"
	}

	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: "speech." + format,
		Reader:   bytes.NewReader(clip.Data),
	})
	if err != nil {
		return "", goerr.Wrap(model.ErrTranscription, "transcription request failed", goerr.V("cause", err.Error()))
	}
	return strings.TrimSpace(resp.Text), nil
}

// Synthesize returns an MP3 clip of text
func (c *Client) Synthesize(ctx context.Context, text string) (*model.AudioClip, error) {
	if strings.TrimSpace(text) == "" {
		return nil, goerr.Wrap(model.ErrSynthesis, "nothing to synthesize")
	}

	resp, err := c.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          text,
		Voice:          c.voice,
		ResponseFormat: openai.SpeechResponseFormatMp3,
		Speed:          c.speed,
	})
	if err != nil {
		return nil, goerr.Wrap(model.ErrSynthesis, "speech request failed", goerr.V("cause", err.Error()))
	}
	defer safe.Close(ctx, resp)

	data, err := safe.ReadAll(resp, maxSpeechSize)
	if err != nil {
		return nil, goerr.Wrap(model.ErrSynthesis, "failed to read speech", goerr.V("cause", err.Error()))
	}
	return &model.AudioClip{Data: data, Format: "mp3"}, nil
}
