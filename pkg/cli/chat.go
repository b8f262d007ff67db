package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/asclepius/pkg/domain/model"
	"github.com/secmon-lab/asclepius/pkg/usecase"
	"github.com/urfave/cli/v3"
)

const chatBanner = "Medical assistant. Describe your symptoms or ask about a condition. Type 'exit' to quit."

var promptColor = color.New(color.FgCyan, color.Bold)

// asker is the part of usecase.Assistant the REPL drives
type asker interface {
	Ask(ctx context.Context, query string, opt usecase.AskOption) (*model.Reply, error)
}

func cmdChat() *cli.Command {
	var raw bool
	var cfg assistantConfig

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "raw",
			Usage:       "Print answers as plain text instead of rendered markdown",
			Destination: &raw,
		},
	}
	flags = append(flags, cfg.Flags(false)...)

	return &cli.Command{
		Name:    "chat",
		Aliases: []string{"c"},
		Usage:   "Interactive question answering session in the terminal",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, cleanup, err := cfg.build(ctx, false)
			defer cleanup()
			if err != nil {
				return err
			}
			if err := uc.Knowledge.Load(ctx); err != nil {
				return goerr.Wrap(err, "failed to load knowledge base")
			}

			in := c.Root().Reader
			if in == nil {
				in = os.Stdin
			}
			return runChat(ctx, uc.Assistant, in, writerOf(c), raw)
		},
	}
}

// runChat reads one question per line until a farewell or end of input
func runChat(ctx context.Context, assistant asker, in io.Reader, out io.Writer, raw bool) error {
	if _, err := io.WriteString(out, chatBanner+"\n"); err != nil {
		return goerr.Wrap(err, "failed to write banner")
	}

	scanner := bufio.NewScanner(in)
	for {
		if _, err := promptColor.Fprint(out, "> "); err != nil {
			return goerr.Wrap(err, "failed to write prompt")
		}
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		reply, err := assistant.Ask(ctx, line, usecase.AskOption{})
		if err != nil {
			if errors.Is(err, model.ErrEmptyQuery) {
				continue
			}
			return err
		}

		if err := printAnswer(out, &reply.Answer, raw); err != nil {
			return err
		}
		if reply.Answer.IsFarewell() {
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		return goerr.Wrap(err, "failed to read input")
	}
	return nil
}
