package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/gops/agent"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"

	httpctrl "github.com/secmon-lab/asclepius/pkg/controller/http"
	"github.com/secmon-lab/asclepius/pkg/service/worker"
	"github.com/secmon-lab/asclepius/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var apiToken string
	var allowedOrigins []string
	var maxAudioBytes int64
	var watch bool
	var enableGops bool
	var cfg assistantConfig

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("ASCLEPIUS_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "api-token",
			Usage:       "Bearer token required on /api and /ws (disabled when empty)",
			Category:    "Authentication",
			Sources:     cli.EnvVars("ASCLEPIUS_API_TOKEN"),
			Destination: &apiToken,
		},
		&cli.StringSliceFlag{
			Name:        "allowed-origin",
			Usage:       "Origin allowed to open WebSocket sessions (repeatable; same-origin only when unset)",
			Sources:     cli.EnvVars("ASCLEPIUS_ALLOWED_ORIGINS"),
			Destination: &allowedOrigins,
		},
		&cli.Int64Flag{
			Name:        "max-audio-bytes",
			Usage:       "Upper bound of an uploaded audio clip",
			Value:       10 << 20,
			Sources:     cli.EnvVars("ASCLEPIUS_MAX_AUDIO_BYTES"),
			Destination: &maxAudioBytes,
		},
		&cli.BoolFlag{
			Name:        "watch",
			Usage:       "Reload the knowledge base when local source files change",
			Sources:     cli.EnvVars("ASCLEPIUS_WATCH"),
			Destination: &watch,
		},
		&cli.BoolFlag{
			Name:        "gops",
			Usage:       "Start the gops diagnostics agent",
			Sources:     cli.EnvVars("ASCLEPIUS_GOPS"),
			Destination: &enableGops,
		},
	}
	flags = append(flags, cfg.Flags(true)...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP and WebSocket server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			if enableGops {
				if err := agent.Listen(agent.Options{ShutdownCleanup: true}); err != nil {
					return goerr.Wrap(err, "failed to start gops agent")
				}
				defer agent.Close()
				logger.Info("gops agent started")
			}

			uc, cleanup, err := cfg.build(ctx, true)
			defer cleanup()
			if err != nil {
				return err
			}

			logger.Info("Assistant configured",
				"transcription", uc.Assistant.TranscriptionEnabled(),
				"speech", uc.Assistant.SpeechEnabled(),
			)

			handler := httpctrl.New(uc.Assistant, uc.Knowledge,
				httpctrl.WithAPIToken(apiToken),
				httpctrl.WithAllowedOrigins(allowedOrigins),
				httpctrl.WithMaxAudioBytes(maxAudioBytes),
			)
			server := &http.Server{
				Addr:              addr,
				Handler:           handler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			eg, ctx := errgroup.WithContext(ctx)

			eg.Go(func() error {
				logger.Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return goerr.Wrap(err, "failed to start server")
				}
				return nil
			})

			// The server answers /health with 503 until the first load completes.
			// A failed initial load stops the server.
			eg.Go(func() error {
				started := time.Now()
				if err := uc.Knowledge.Load(ctx); err != nil {
					return goerr.Wrap(err, "failed to load knowledge base")
				}
				stats := uc.Knowledge.Stats()
				logger.Info("Knowledge base loaded",
					"documents", stats.Documents,
					"intents", stats.Intents,
					"elapsed", time.Since(started),
				)

				if !watch {
					return nil
				}
				paths := cfg.knowledge.LocalPaths()
				if len(paths) == 0 {
					logger.Warn("--watch ignored, no local knowledge sources")
					return nil
				}
				watcher, err := worker.NewKnowledgeWatcher(uc.Knowledge, paths, worker.DefaultDebounce)
				if err != nil {
					return goerr.Wrap(err, "failed to create knowledge watcher")
				}
				if err := watcher.Start(ctx); err != nil {
					return goerr.Wrap(err, "failed to start knowledge watcher")
				}
				<-ctx.Done()
				watcher.Stop()
				return nil
			})

			eg.Go(func() error {
				<-ctx.Done()
				logger.Info("Shutting down HTTP server")

				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}
				return nil
			})

			if err := eg.Wait(); err != nil {
				return err
			}
			logger.Info("Server shutdown completed")
			return nil
		},
	}
}
