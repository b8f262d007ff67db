package config

import (
	"os"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/asclepius/pkg/service/normalize"
	"github.com/secmon-lab/asclepius/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Profile holds the --profile flag pointing at an optional assistant profile
type Profile struct {
	path string
}

// Flags returns CLI flags for profile configuration
func (p *Profile) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "profile",
			Aliases:     []string{"p"},
			Usage:       "Assistant profile TOML file (messages, exit phrases, misspellings, retrieval)",
			Category:    "Assistant",
			Sources:     cli.EnvVars("ASCLEPIUS_PROFILE"),
			Destination: &p.path,
		},
	}
}

// Configure loads the profile and converts it to composer options.
// No options are returned when --profile is not set.
func (p *Profile) Configure() ([]usecase.ComposerOption, error) {
	if p.path == "" {
		return nil, nil
	}

	cfg, err := LoadAppConfig(p.path)
	if err != nil {
		return nil, err
	}
	return cfg.ComposerOptions()
}

// AppConfig is the assistant profile. Every field is optional.
type AppConfig struct {
	TopK            int               `toml:"top_k"`
	GenerateTimeout string            `toml:"generate_timeout"`
	Messages        MessagesConfig    `toml:"messages"`
	ExitPhrases     []string          `toml:"exit_phrases"`
	Misspellings    map[string]string `toml:"misspellings"`
}

// MessagesConfig overrides the fixed texts of the assistant. The disclaimer is appended to the fallback.
type MessagesConfig struct {
	Disclaimer string `toml:"disclaimer"`
	Farewell   string `toml:"farewell"`
	Fallback   string `toml:"fallback"`
}

// Validate checks if the AppConfig is valid
func (a *AppConfig) Validate() error {
	if a.TopK < 0 {
		return goerr.Wrap(ErrInvalidConfig, "top_k must not be negative", goerr.V("top_k", a.TopK))
	}

	if a.GenerateTimeout != "" {
		d, err := time.ParseDuration(a.GenerateTimeout)
		if err != nil {
			return goerr.Wrap(ErrInvalidConfig, "invalid generate_timeout",
				goerr.V("generate_timeout", a.GenerateTimeout),
				goerr.V("cause", err.Error()))
		}
		if d <= 0 {
			return goerr.Wrap(ErrInvalidConfig, "generate_timeout must be positive", goerr.V("generate_timeout", a.GenerateTimeout))
		}
	}

	for i, phrase := range a.ExitPhrases {
		if strings.TrimSpace(phrase) == "" {
			return goerr.Wrap(ErrInvalidConfig, "exit phrase must not be blank", goerr.V("index", i))
		}
	}

	for from, to := range a.Misspellings {
		if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
			return goerr.Wrap(ErrInvalidConfig, "misspelling entries must not be blank",
				goerr.V("from", from), goerr.V("to", to))
		}
		if from != strings.ToLower(from) {
			return goerr.Wrap(ErrInvalidConfig, "misspelling keys must be lower case", goerr.V("from", from))
		}
	}

	return nil
}

// ComposerOptions converts the profile into composer options
func (a *AppConfig) ComposerOptions() ([]usecase.ComposerOption, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	opts := []usecase.ComposerOption{
		usecase.WithTopK(a.TopK),
		usecase.WithMessages(usecase.Messages{
			Disclaimer: a.Messages.Disclaimer,
			Farewell:   a.Messages.Farewell,
			Fallback:   a.Messages.Fallback,
		}),
	}

	if a.GenerateTimeout != "" {
		d, _ := time.ParseDuration(a.GenerateTimeout)
		opts = append(opts, usecase.WithGenerateTimeout(d))
	}

	var normOpts []normalize.Option
	if len(a.ExitPhrases) > 0 {
		normOpts = append(normOpts, normalize.WithExitPhrases(a.ExitPhrases))
	}
	if len(a.Misspellings) > 0 {
		normOpts = append(normOpts, normalize.WithMisspellings(a.Misspellings))
	}
	if len(normOpts) > 0 {
		opts = append(opts, usecase.WithNormalizer(normalize.New(normOpts...)))
	}

	return opts, nil
}

// LoadAppConfig loads and validates an assistant profile from a TOML file
func LoadAppConfig(path string) (*AppConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.Wrap(ErrConfigNotFound, "profile not found", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read profile", goerr.V(ConfigPathKey, path))
	}

	var cfg AppConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse TOML profile",
			goerr.V(ConfigPathKey, path),
			goerr.V("cause", err.Error()))
	}

	if err := cfg.Validate(); err != nil {
		return nil, goerr.Wrap(err, "profile validation failed", goerr.V(ConfigPathKey, path))
	}

	return &cfg, nil
}
