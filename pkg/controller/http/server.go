package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/secmon-lab/asclepius/pkg/domain/model"
	"github.com/secmon-lab/asclepius/pkg/usecase"
	"github.com/secmon-lab/asclepius/pkg/utils/logging"
)

// DefaultMaxAudioBytes bounds an uploaded audio query
const DefaultMaxAudioBytes = 10 << 20

// AssistantUseCase is the conversational entry point used by the handlers
type AssistantUseCase interface {
	Ask(ctx context.Context, query string, opt usecase.AskOption) (*model.Reply, error)
	AskAudio(ctx context.Context, clip *model.AudioClip, opt usecase.AskOption) (*model.Reply, error)
	SpeechEnabled() bool
	TranscriptionEnabled() bool
}

// KnowledgeUseCase exposes reload and status of the served knowledge base
type KnowledgeUseCase interface {
	Reload(ctx context.Context) error
	Ready() error
	Stats() usecase.KnowledgeStats
}

type Server struct {
	router        *chi.Mux
	assistant     AssistantUseCase
	knowledge     KnowledgeUseCase
	apiToken      string
	maxAudioBytes int64
	upgrader      websocket.Upgrader
}

type Options func(*Server)

// WithAPIToken requires "Authorization: Bearer <token>" on /api and /ws routes
func WithAPIToken(token string) Options {
	return func(s *Server) {
		s.apiToken = token
	}
}

func WithMaxAudioBytes(n int64) Options {
	return func(s *Server) {
		if n > 0 {
			s.maxAudioBytes = n
		}
	}
}

// WithAllowedOrigins lists origins accepted for WebSocket upgrades. Without it only same-origin requests are accepted.
func WithAllowedOrigins(origins []string) Options {
	return func(s *Server) {
		if len(origins) == 0 {
			return
		}
		allowed := make(map[string]struct{}, len(origins))
		for _, o := range origins {
			allowed[o] = struct{}{}
		}
		s.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			_, ok := allowed[origin]
			return ok
		}
	}
}

func New(assistant AssistantUseCase, knowledge KnowledgeUseCase, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:        r,
		assistant:     assistant,
		knowledge:     knowledge,
		maxAudioBytes: DefaultMaxAudioBytes,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler(s.knowledge))

	r.Group(func(r chi.Router) {
		r.Use(apiTokenMiddleware(s.apiToken))

		r.Route("/api/v1", func(r chi.Router) {
			r.Post("/ask", askHandler(s.assistant))
			r.Post("/ask/audio", askAudioHandler(s.assistant, s.maxAudioBytes))
			r.Post("/knowledge/reload", reloadHandler(s.knowledge))
		})

		r.Get("/ws", s.wsHandler)
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// requestLogger stores a logger tagged with the request ID in the request context
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.Default().With("request_id", middleware.GetReqID(r.Context()))
		ctx := logging.With(r.Context(), logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.From(r.Context()).Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.From(ctx).Error("failed to marshal response", "error", err.Error())
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data) //nolint:errcheck // header already committed
}
