package usecase

import (
	"bytes"
	"context"
	_ "embed"
	"strings"
	"text/template"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/asclepius/pkg/domain/interfaces"
	"github.com/secmon-lab/asclepius/pkg/domain/model"
	"github.com/secmon-lab/asclepius/pkg/service/normalize"
	"github.com/secmon-lab/asclepius/pkg/utils/errutil"
	"github.com/secmon-lab/asclepius/pkg/utils/logging"
)

//go:embed prompt/answer.md
var answerPromptTmpl string

var answerPrompt = template.Must(template.New("answer").Parse(answerPromptTmpl))

const (
	// Disclaimer is appended to every generated answer
	Disclaimer = "\nDisclaimer: This information is for educational purposes only. Please consult a healthcare professional for medical advice, diagnosis, or treatment."
	// Farewell is returned as-is for exit requests
	Farewell = "Thank you for using our medical assistance service. Remember to consult healthcare professionals for medical advice. Goodbye!"
	// Apology is the fallback body when no answer could be generated
	Apology = "I apologize, but I'm having trouble generating a response. Please try again or consult a healthcare professional for medical advice."

	// DefaultGenerateTimeout bounds a single generator call
	DefaultGenerateTimeout = 30 * time.Second
)

// Messages are the fixed texts the composer emits. Fallback is the body only; Disclaimer is appended when emitted.
type Messages struct {
	Disclaimer string
	Farewell   string
	Fallback   string
}

// DefaultMessages returns the built-in texts
func DefaultMessages() Messages {
	return Messages{
		Disclaimer: Disclaimer,
		Farewell:   Farewell,
		Fallback:   Apology,
	}
}

// Composer turns one query into one bounded answer. It holds no conversational state.
type Composer struct {
	normalizer *normalize.Normalizer
	searcher   interfaces.Searcher
	generator  interfaces.Generator
	topK       int
	timeout    time.Duration
	messages   Messages
}

// ComposerOption is a functional option for Composer
type ComposerOption func(*Composer)

// WithNormalizer replaces the default normalizer
func WithNormalizer(n *normalize.Normalizer) ComposerOption {
	return func(c *Composer) {
		if n != nil {
			c.normalizer = n
		}
	}
}

// WithTopK sets the number of documents retrieved per query
func WithTopK(k int) ComposerOption {
	return func(c *Composer) {
		if k > 0 {
			c.topK = k
		}
	}
}

// WithGenerateTimeout bounds each generator call
func WithGenerateTimeout(d time.Duration) ComposerOption {
	return func(c *Composer) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMessages overrides the fixed texts. Empty fields keep their defaults.
func WithMessages(m Messages) ComposerOption {
	return func(c *Composer) {
		if m.Disclaimer != "" {
			c.messages.Disclaimer = m.Disclaimer
		}
		if m.Farewell != "" {
			c.messages.Farewell = m.Farewell
		}
		if m.Fallback != "" {
			c.messages.Fallback = m.Fallback
		}
	}
}

// NewComposer creates a Composer. searcher may be nil, in which case answers have no context.
func NewComposer(searcher interfaces.Searcher, generator interfaces.Generator, opts ...ComposerOption) *Composer {
	c := &Composer{
		normalizer: normalize.New(),
		searcher:   searcher,
		generator:  generator,
		topK:       model.DefaultTopK,
		timeout:    DefaultGenerateTimeout,
		messages:   DefaultMessages(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose returns the answer text for query. It never fails.
func (c *Composer) Compose(ctx context.Context, query string, intents *model.IntentTable) string {
	return c.Answer(ctx, query, intents).Text
}

// Answer runs the full pipeline: exit check, normalization, retrieval, intent match, generation, merge.
// Search and generation failures degrade to empty context and the fallback text.
func (c *Composer) Answer(ctx context.Context, query string, intents *model.IntentTable) *model.Answer {
	if c.normalizer.IsExitRequest(query) {
		return &model.Answer{Text: c.messages.Farewell, Kind: model.AnswerFarewell}
	}

	normalized := c.normalizer.Normalize(query)
	contextText, sources := c.retrieve(ctx, normalized)

	var intentResponse string
	if entry, ok := intents.Match(normalized); ok {
		intentResponse = entry.Response()
	}

	generated, err := c.generate(ctx, query, contextText)
	if err != nil {
		_ = errutil.Handle(ctx, err, "failed to generate answer")
		return &model.Answer{
			Text:    c.messages.Fallback + c.messages.Disclaimer,
			Kind:    model.AnswerFallback,
			Sources: sources,
		}
	}

	text := generated
	if intentResponse != "" && !strings.Contains(text, intentResponse) {
		text += "\n\n" + intentResponse
	}

	return &model.Answer{
		Text:    text + c.messages.Disclaimer,
		Kind:    model.AnswerGenerated,
		Sources: sources,
		Intent:  intentResponse,
	}
}

func (c *Composer) retrieve(ctx context.Context, normalized string) (string, []string) {
	if c.searcher == nil {
		return "", nil
	}

	results, err := c.searcher.Search(ctx, normalized, c.topK)
	if err != nil {
		logging.From(ctx).Warn("search failed, answering without context", "error", err.Error())
		return "", nil
	}

	contents := make([]string, 0, len(results))
	sources := make([]string, 0, len(results))
	for _, r := range results {
		contents = append(contents, r.Document.Content)
		sources = append(sources, r.Document.Metadata.Tag)
	}
	return strings.Join(contents, "\n\n"), sources
}

type answerPromptData struct {
	Context  string
	Question string
}

// BuildPrompt renders the answer prompt for the original question and retrieved context
func BuildPrompt(question, contextText string) (string, error) {
	var buf bytes.Buffer
	if err := answerPrompt.Execute(&buf, answerPromptData{Context: contextText, Question: question}); err != nil {
		return "", goerr.Wrap(err, "failed to execute answer prompt template")
	}
	return buf.String(), nil
}

type generateResult struct {
	text string
	err  error
}

// generate calls the generator under the timeout. A generator that ignores cancellation is abandoned.
func (c *Composer) generate(ctx context.Context, query, contextText string) (string, error) {
	if c.generator == nil {
		return "", goerr.Wrap(model.ErrGeneration, "no generator configured")
	}

	prompt, err := BuildPrompt(query, contextText)
	if err != nil {
		return "", goerr.Wrap(model.ErrGeneration, "failed to build prompt", goerr.V("cause", err.Error()))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ch := make(chan generateResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- generateResult{err: goerr.New("generator panicked", goerr.V("panic", r))}
			}
		}()
		text, err := c.generator.Generate(ctx, prompt)
		ch <- generateResult{text: text, err: err}
	}()

	var res generateResult
	select {
	case res = <-ch:
	case <-ctx.Done():
		return "", goerr.Wrap(model.ErrGeneration, "generator did not respond in time",
			goerr.V("timeout", c.timeout.String()), goerr.V("cause", ctx.Err().Error()))
	}

	if res.err != nil {
		return "", goerr.Wrap(model.ErrGeneration, "generator failed", goerr.V("cause", res.err.Error()))
	}
	text := strings.TrimSpace(res.text)
	if text == "" {
		return "", goerr.Wrap(model.ErrGeneration, "generator returned empty output")
	}
	return text, nil
}
