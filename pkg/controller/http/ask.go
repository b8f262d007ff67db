package http

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/asclepius/pkg/domain/model"
	"github.com/secmon-lab/asclepius/pkg/usecase"
	"github.com/secmon-lab/asclepius/pkg/utils/async"
	"github.com/secmon-lab/asclepius/pkg/utils/errutil"
	"github.com/secmon-lab/asclepius/pkg/utils/safe"
)

// maxAskBodyBytes bounds a JSON ask request
const maxAskBodyBytes = 64 << 10

type askRequest struct {
	Query string `json:"query"`
	Speak bool   `json:"speak"`
}

type replyResponse struct {
	ID            string       `json:"id"`
	Query         string       `json:"query"`
	Answer        model.Answer `json:"answer"`
	Audio         []byte       `json:"audio,omitempty"`
	AudioFormat   string       `json:"audio_format,omitempty"`
	AudioDegraded bool         `json:"audio_degraded,omitempty"`
}

func toReplyResponse(reply *model.Reply) *replyResponse {
	resp := &replyResponse{
		ID:            reply.ID,
		Query:         reply.Query,
		Answer:        reply.Answer,
		AudioDegraded: reply.AudioDegraded,
	}
	if !reply.Audio.Empty() {
		resp.Audio = reply.Audio.Data
		resp.AudioFormat = reply.Audio.Format
	}
	return resp
}

// statusOf maps the error taxonomy to HTTP status codes
func statusOf(err error) int {
	switch {
	case errors.Is(err, model.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrTranscription):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func askHandler(assistant AssistantUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req askRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAskBodyBytes)).Decode(&req); err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "invalid ask request"), http.StatusBadRequest)
			return
		}

		reply, err := assistant.Ask(ctx, req.Query, usecase.AskOption{Speak: req.Speak})
		if err != nil {
			errutil.HandleHTTP(ctx, w, err, statusOf(err))
			return
		}

		writeJSON(ctx, w, http.StatusOK, toReplyResponse(reply))
	}
}

// askAudioHandler takes the raw audio as request body. The format comes from ?format= or the Content-Type.
func askAudioHandler(assistant AssistantUseCase, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if !assistant.TranscriptionEnabled() {
			errutil.HandleHTTP(ctx, w, goerr.New("audio queries are not enabled"), http.StatusNotImplemented)
			return
		}

		data, err := safe.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes), 0)
		if err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to read audio body", goerr.V("limit", maxBytes)), http.StatusRequestEntityTooLarge)
			return
		}
		if len(data) == 0 {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(model.ErrTranscription, "audio body is empty"), http.StatusBadRequest)
			return
		}

		speak, _ := strconv.ParseBool(r.URL.Query().Get("speak"))
		clip := &model.AudioClip{
			Data:   data,
			Format: audioFormat(r),
		}

		reply, err := assistant.AskAudio(ctx, clip, usecase.AskOption{Speak: speak})
		if err != nil {
			errutil.HandleHTTP(ctx, w, err, statusOf(err))
			return
		}

		writeJSON(ctx, w, http.StatusOK, toReplyResponse(reply))
	}
}

var audioMediaTypes = map[string]string{
	"audio/wav":    "wav",
	"audio/x-wav":  "wav",
	"audio/wave":   "wav",
	"audio/mpeg":   "mp3",
	"audio/mp3":    "mp3",
	"audio/mp4":    "m4a",
	"audio/x-m4a":  "m4a",
	"audio/webm":   "webm",
	"audio/ogg":    "ogg",
	"audio/flac":   "flac",
	"audio/x-flac": "flac",
}

func audioFormat(r *http.Request) string {
	if f := strings.TrimSpace(r.URL.Query().Get("format")); f != "" {
		return strings.ToLower(f)
	}
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil {
		if f, ok := audioMediaTypes[mt]; ok {
			return f
		}
	}
	return "wav"
}

// reloadHandler reloads synchronously, or in the background with ?async=true
func reloadHandler(knowledge KnowledgeUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if background, _ := strconv.ParseBool(r.URL.Query().Get("async")); background {
			async.Dispatch(ctx, knowledge.Reload)
			writeJSON(ctx, w, http.StatusAccepted, map[string]string{"status": "reloading"})
			return
		}

		if err := knowledge.Reload(ctx); err != nil {
			errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError)
			return
		}
		writeJSON(ctx, w, http.StatusOK, knowledge.Stats())
	}
}

type healthResponse struct {
	Status string `json:"status"`
	usecase.KnowledgeStats
}

func healthHandler(knowledge KnowledgeUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		resp := healthResponse{
			Status:         "ok",
			KnowledgeStats: knowledge.Stats(),
		}
		if err := knowledge.Ready(); err != nil {
			resp.Status = "loading"
			writeJSON(ctx, w, http.StatusServiceUnavailable, resp)
			return
		}
		writeJSON(ctx, w, http.StatusOK, resp)
	}
}
