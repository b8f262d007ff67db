package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/asclepius/pkg/domain/model"
	"github.com/secmon-lab/asclepius/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdAsk() *cli.Command {
	var raw bool
	var cfg assistantConfig

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "raw",
			Usage:       "Print the answer as plain text instead of rendered markdown",
			Destination: &raw,
		},
	}
	flags = append(flags, cfg.Flags(false)...)

	return &cli.Command{
		Name:      "ask",
		Aliases:   []string{"a"},
		Usage:     "Answer a single medical question",
		ArgsUsage: "<question>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if question == "" {
				return goerr.Wrap(model.ErrEmptyQuery, "question is required")
			}

			uc, cleanup, err := cfg.build(ctx, false)
			defer cleanup()
			if err != nil {
				return err
			}
			if err := uc.Knowledge.Load(ctx); err != nil {
				return goerr.Wrap(err, "failed to load knowledge base")
			}

			reply, err := uc.Assistant.Ask(ctx, question, usecase.AskOption{})
			if err != nil {
				return err
			}
			return printAnswer(writerOf(c), &reply.Answer, raw)
		},
	}
}

func writerOf(c *cli.Command) io.Writer {
	if w := c.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

var (
	sourceColor   = color.New(color.FgHiBlack)
	fallbackColor = color.New(color.FgYellow)
)

// printAnswer writes an answer for a terminal. Generated answers are rendered as markdown unless raw is set.
func printAnswer(w io.Writer, answer *model.Answer, raw bool) error {
	text := answer.Text
	if answer.Kind == model.AnswerGenerated && !raw {
		rendered, err := glamour.Render(text, "dark")
		if err != nil {
			return goerr.Wrap(err, "failed to render answer")
		}
		text = rendered
	}

	if answer.Kind == model.AnswerFallback {
		if _, err := fallbackColor.Fprintln(w, text); err != nil {
			return goerr.Wrap(err, "failed to write answer")
		}
	} else if _, err := fmt.Fprintln(w, text); err != nil {
		return goerr.Wrap(err, "failed to write answer")
	}

	if len(answer.Sources) > 0 {
		if _, err := sourceColor.Fprintf(w, "Sources: %s\n", strings.Join(answer.Sources, ", ")); err != nil {
			return goerr.Wrap(err, "failed to write sources")
		}
	}
	return nil
}
