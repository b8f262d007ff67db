package cli

import (
	"context"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/secmon-lab/asclepius/pkg/cli/config"
	"github.com/secmon-lab/asclepius/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func Run(ctx context.Context, args []string, version string) error {
	var loggerCfg config.Logger
	var sentryCfg config.Sentry
	var envFile string
	var closers []func()

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "env-file",
			Usage:       "Dotenv file loaded before reading the environment",
			Value:       ".env",
			Sources:     cli.EnvVars("ASCLEPIUS_ENV_FILE"),
			Destination: &envFile,
		},
	}
	flags = append(flags, loggerCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	app := &cli.Command{
		Name:    "asclepius",
		Usage:   "Medical question answering assistant over a curated disease knowledge base",
		Version: version,
		Flags:   flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			f, err := loggerCfg.Configure()
			if err != nil {
				return ctx, err
			}
			closers = append(closers, f)

			flush, err := sentryCfg.Configure(version)
			if err != nil {
				return ctx, err
			}
			closers = append(closers, flush)

			logging.Default().Info("Starting asclepius", "version", version, "logger", loggerCfg)
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
			return nil
		},
		Commands: []*cli.Command{
			cmdServe(),
			cmdAsk(),
			cmdChat(),
			cmdValidate(),
			cmdMigrate(),
			cmdCache(),
		},
	}

	// The dotenv file must be applied before flag sources read the environment,
	// so it is located from the raw arguments.
	loadEnvFile(envFileFromArgs(args))

	if err := app.Run(ctx, args); err != nil {
		logging.Default().Error("failed to run app", "error", err)
		return err
	}

	return nil
}

// loadEnvFile applies a dotenv file without overriding variables already set.
// A missing file is not an error.
func loadEnvFile(path string) {
	if path == "" {
		return
	}
	if err := godotenv.Load(path); err != nil {
		logging.Default().Debug("dotenv file not loaded", "path", path, "error", err.Error())
	}
}

func envFileFromArgs(args []string) string {
	for i, arg := range args {
		if arg == "--env-file" && i+1 < len(args) {
			return args[i+1]
		}
		if v, ok := strings.CutPrefix(arg, "--env-file="); ok {
			return v
		}
	}
	if v, ok := os.LookupEnv("ASCLEPIUS_ENV_FILE"); ok {
		return v
	}
	return ".env"
}
