package audio_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/sashabaranov/go-openai"
	"github.com/secmon-lab/asclepius/pkg/domain/model"
	"github.com/secmon-lab/asclepius/pkg/service/audio"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *audio.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := openai.DefaultConfig("sk-test")
	cfg.BaseURL = srv.URL + "/v1"
	c, err := audio.New(openai.NewClientWithConfig(cfg))
	gt.NoError(t, err).Required()
	return c
}

func TestTranscribe(t *testing.T) {
	ctx := context.Background()

	t.Run("returns trimmed text", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gt.String(t, r.URL.Path).Contains("/audio/transcriptions")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"text":"  what is diabetes  "}`))
		})

		text, err := c.Transcribe(ctx, &model.AudioClip{Data: []byte("RIFF"), Format: "wav"})
		gt.NoError(t, err).Required()
		gt.Value(t, text).Equal("what is diabetes")
	})

	t.Run("empty clip", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		})
		_, err := c.Transcribe(ctx, &model.AudioClip{})
		gt.Error(t, err).Is(model.ErrTranscription)
	})

	t.Run("service failure", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"message":"boom"}}`))
		})
		_, err := c.Transcribe(ctx, &model.AudioClip{Data: []byte("RIFF")})
		gt.Error(t, err).Is(model.ErrTranscription)
	})
}

func TestSynthesize(t *testing.T) {
	ctx := context.Background()

	t.Run("returns mp3 clip", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gt.String(t, r.URL.Path).Contains("/audio/speech")
			body, _ := io.ReadAll(r.Body)
			gt.String(t, string(body)).Contains(`"input":"Drink water."`)
			w.Header().Set("Content-Type", "audio/mpeg")
			_, _ = w.Write([]byte("ID3-fake-mp3"))
		})

		clip, err := c.Synthesize(ctx, "Drink water.")
		gt.NoError(t, err).Required()
		gt.Value(t, clip.Format).Equal("mp3")
		gt.Value(t, string(clip.Data)).Equal("ID3-fake-mp3")
	})

	t.Run("blank text", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		})
		_, err := c.Synthesize(ctx, "   ")
		gt.Error(t, err).Is(model.ErrSynthesis)
	})

	t.Run("service failure", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		_, err := c.Synthesize(ctx, strings.Repeat("a", 10))
		gt.Error(t, err).Is(model.ErrSynthesis)
	})
}

func TestNew_RequiresClient(t *testing.T) {
	_, err := audio.New(nil)
	gt.Value(t, err).NotNil()
}
