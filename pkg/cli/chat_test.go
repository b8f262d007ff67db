package cli_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/asclepius/pkg/cli"
	"github.com/secmon-lab/asclepius/pkg/domain/model"
	"github.com/secmon-lab/asclepius/pkg/usecase"
)

type scriptedAsker struct {
	asked []string
	err   error
}

func (a *scriptedAsker) Ask(_ context.Context, query string, _ usecase.AskOption) (*model.Reply, error) {
	a.asked = append(a.asked, query)
	if a.err != nil {
		return nil, a.err
	}
	if query == "exit" {
		return &model.Reply{Query: query, Answer: model.Answer{Text: usecase.Farewell, Kind: model.AnswerFarewell}}, nil
	}
	return &model.Reply{Query: query, Answer: model.Answer{
		Text:    "answer to " + query,
		Kind:    model.AnswerGenerated,
		Sources: []string{"diabetes"},
	}}, nil
}

func TestRunChat(t *testing.T) {
	t.Run("stops on farewell", func(t *testing.T) {
		asker := &scriptedAsker{}
		var out bytes.Buffer
		in := strings.NewReader("what is diabetes\n\n   \nexit\nignored\n")

		gt.NoError(t, cli.RunChat(t.Context(), asker, in, &out, true))
		gt.A(t, asker.asked).Length(2)
		gt.Value(t, asker.asked[0]).Equal("what is diabetes")
		gt.Value(t, asker.asked[1]).Equal("exit")

		gt.String(t, out.String()).Contains("answer to what is diabetes")
		gt.String(t, out.String()).Contains("Sources: diabetes")
		gt.String(t, out.String()).Contains(usecase.Farewell)
	})

	t.Run("ends at end of input", func(t *testing.T) {
		asker := &scriptedAsker{}
		var out bytes.Buffer
		gt.NoError(t, cli.RunChat(t.Context(), asker, strings.NewReader("asthma"), &out, true))
		gt.A(t, asker.asked).Length(1)
	})

	t.Run("propagates assistant errors", func(t *testing.T) {
		asker := &scriptedAsker{err: errors.New("boom")}
		var out bytes.Buffer
		err := cli.RunChat(t.Context(), asker, strings.NewReader("asthma\n"), &out, true)
		gt.Value(t, err).NotNil()
	})
}

func TestPrintAnswer(t *testing.T) {
	t.Run("renders generated answers as markdown", func(t *testing.T) {
		var out bytes.Buffer
		answer := &model.Answer{Text: "**Diabetes** is chronic.", Kind: model.AnswerGenerated}
		gt.NoError(t, cli.PrintAnswer(&out, answer, false))
		gt.String(t, out.String()).Contains("Diabetes")
		gt.False(t, strings.Contains(out.String(), "**Diabetes**"))
	})

	t.Run("raw output keeps the text", func(t *testing.T) {
		var out bytes.Buffer
		answer := &model.Answer{Text: "**Diabetes** is chronic.", Kind: model.AnswerGenerated}
		gt.NoError(t, cli.PrintAnswer(&out, answer, true))
		gt.String(t, out.String()).Contains("**Diabetes** is chronic.")
	})

	t.Run("farewell is never rendered", func(t *testing.T) {
		var out bytes.Buffer
		answer := &model.Answer{Text: usecase.Farewell, Kind: model.AnswerFarewell}
		gt.NoError(t, cli.PrintAnswer(&out, answer, false))
		gt.String(t, out.String()).Contains(usecase.Farewell)
	})
}
