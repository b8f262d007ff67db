package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/secmon-lab/asclepius/pkg/domain/model"
	"github.com/secmon-lab/asclepius/pkg/usecase"
	"github.com/secmon-lab/asclepius/pkg/utils/logging"
)

const (
	wsReadLimit  = 16 << 20
	wsPongWait   = 60 * time.Second
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

// Message types of the chat protocol. Text frames carry wsRequest/wsResponse JSON;
// a binary frame is an audio query in the format given by the last "format" field, wav by default.
const (
	wsTypeAsk    = "ask"
	wsTypePing   = "ping"
	wsTypeAnswer = "answer"
	wsTypePong   = "pong"
	wsTypeError  = "error"
)

type wsRequest struct {
	Type   string `json:"type"`
	Query  string `json:"query,omitempty"`
	Speak  bool   `json:"speak,omitempty"`
	Format string `json:"format,omitempty"`
}

type wsResponse struct {
	Type  string         `json:"type"`
	Reply *replyResponse `json:"reply,omitempty"`
	Error string         `json:"error,omitempty"`
}

// wsHandler runs one chat session per connection. Each message is answered independently;
// the session ends after a farewell answer.
func (s *Server) wsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.From(r.Context()).Warn("websocket upgrade failed", "error", err.Error())
		return
	}
	defer conn.Close() //nolint:errcheck // connection is finished

	sessionID := uuid.Must(uuid.NewV7()).String()
	logger := logging.From(r.Context()).With("session_id", sessionID)
	ctx := logging.With(r.Context(), logger)
	logger.Info("chat session started")
	defer logger.Info("chat session ended")

	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	pingDone := make(chan struct{})
	defer close(pingDone)
	go func() {
		ticker := time.NewTicker(wsPingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
					return
				}
			case <-pingDone:
				return
			}
		}
	}()

	audioFormat := "wav"
	speak := false

	for {
		messageType, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket read error", "error", err.Error())
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))

		var reply *model.Reply
		switch messageType {
		case websocket.BinaryMessage:
			if !s.assistant.TranscriptionEnabled() {
				s.wsWrite(conn, wsResponse{Type: wsTypeError, Error: "audio queries are not enabled"})
				continue
			}
			reply, err = s.assistant.AskAudio(ctx, &model.AudioClip{Data: payload, Format: audioFormat}, usecase.AskOption{Speak: speak})

		case websocket.TextMessage:
			var req wsRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				s.wsWrite(conn, wsResponse{Type: wsTypeError, Error: "malformed message"})
				continue
			}
			if req.Format != "" {
				audioFormat = req.Format
			}
			speak = req.Speak

			switch req.Type {
			case wsTypePing:
				s.wsWrite(conn, wsResponse{Type: wsTypePong})
				continue
			case wsTypeAsk:
				reply, err = s.assistant.Ask(ctx, req.Query, usecase.AskOption{Speak: req.Speak})
			default:
				s.wsWrite(conn, wsResponse{Type: wsTypeError, Error: "unknown message type"})
				continue
			}

		default:
			continue
		}

		if err != nil {
			logger.Warn("chat message not answered", "error", err.Error())
			s.wsWrite(conn, wsResponse{Type: wsTypeError, Error: err.Error()})
			continue
		}

		if !s.wsWrite(conn, wsResponse{Type: wsTypeAnswer, Reply: toReplyResponse(reply)}) {
			return
		}
		if reply.Answer.IsFarewell() {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "goodbye"),
				time.Now().Add(wsWriteWait))
			return
		}
	}
}

func (s *Server) wsWrite(conn *websocket.Conn, resp wsResponse) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteJSON(resp); err != nil {
		logging.Default().Warn("websocket write failed", "error", err.Error())
		return false
	}
	return true
}
