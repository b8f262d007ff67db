package cli

import (
	"context"
	"io"

	"github.com/secmon-lab/asclepius/pkg/domain/model"
)

// Asker exposes the REPL's dependency for tests
type Asker = asker

// RunChat exposes runChat for tests
func RunChat(ctx context.Context, assistant Asker, in io.Reader, out io.Writer, raw bool) error {
	return runChat(ctx, assistant, in, out, raw)
}

// PrintAnswer exposes printAnswer for tests
func PrintAnswer(w io.Writer, answer *model.Answer, raw bool) error {
	return printAnswer(w, answer, raw)
}
