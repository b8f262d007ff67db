package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/asclepius/pkg/domain/model"
	"github.com/secmon-lab/asclepius/pkg/service/source"
	"github.com/secmon-lab/asclepius/pkg/utils/logging"
	"gopkg.in/yaml.v3"
)

// client implements Service interface
type client struct {
	reader source.Reader
}

// Option is a functional option for client configuration
type Option func(*client)

// WithReader replaces the default local/Cloud Storage reader
func WithReader(r source.Reader) Option {
	return func(c *client) {
		c.reader = r
	}
}

// New creates a new knowledge loader
func New(opts ...Option) Service {
	c := &client{
		reader: source.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FormatOf picks the serialization from the extension of uri. Unknown extensions are read as JSON.
func FormatOf(uri string) Format {
	switch strings.ToLower(path.Ext(uri)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatJSON
	}
}

func (c *client) LoadDocuments(ctx context.Context, uri string) ([]model.Document, error) {
	var raw map[string]any
	if err := c.decode(ctx, uri, &raw); err != nil {
		return nil, err
	}

	value, ok := raw[fieldDiseases]
	if !ok {
		return nil, goerr.Wrap(model.ErrDataLoad, "missing top-level diseases key", goerr.V(model.SourceKey, uri))
	}
	records, ok := value.([]any)
	if !ok {
		return nil, goerr.Wrap(model.ErrDataLoad, "diseases must be a list", goerr.V(model.SourceKey, uri))
	}

	docs := make([]model.Document, 0, len(records))
	for i, r := range records {
		record, ok := r.(map[string]any)
		if !ok {
			return nil, goerr.Wrap(model.ErrDataLoad, "disease record must be a mapping",
				goerr.V(model.SourceKey, uri), goerr.V(model.RecordKey, i))
		}
		doc, err := toDocument(record)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid disease record",
				goerr.V(model.SourceKey, uri), goerr.V(model.RecordKey, i))
		}
		docs = append(docs, doc)
	}

	logging.From(ctx).Info("loaded medical knowledge", "source", uri, "documents", len(docs))
	return docs, nil
}

func (c *client) LoadIntents(ctx context.Context, uri string) (*model.IntentTable, error) {
	var raw struct {
		Intents *[]model.IntentEntry `json:"intents" yaml:"intents" toml:"intents"`
	}
	if err := c.decode(ctx, uri, &raw); err != nil {
		return nil, err
	}
	if raw.Intents == nil {
		return nil, goerr.Wrap(model.ErrDataLoad, "missing top-level intents key", goerr.V(model.SourceKey, uri))
	}

	table := &model.IntentTable{Intents: *raw.Intents}
	logging.From(ctx).Info("loaded intents", "source", uri, "intents", table.Len())
	return table, nil
}

func (c *client) decode(ctx context.Context, uri string, v any) error {
	data, err := c.reader.Read(ctx, uri)
	if err != nil {
		return goerr.Wrap(model.ErrDataLoad, "failed to read source",
			goerr.V(model.SourceKey, uri), goerr.V("cause", err.Error()))
	}

	if err := Decode(FormatOf(uri), data, v); err != nil {
		return goerr.Wrap(model.ErrDataLoad, "failed to parse source",
			goerr.V(model.SourceKey, uri), goerr.V("cause", err.Error()))
	}
	return nil
}

// Decode unmarshals data in the given format into v
func Decode(format Format, data []byte, v any) error {
	switch format {
	case FormatYAML:
		return yaml.Unmarshal(data, v)
	case FormatTOML:
		return toml.Unmarshal(data, v)
	default:
		return json.Unmarshal(data, v)
	}
}

func toDocument(record map[string]any) (model.Document, error) {
	tagValue, ok := record[fieldTag]
	if !ok {
		return model.Document{}, goerr.Wrap(model.ErrDataLoad, "record has no tag")
	}
	tag := render(tagValue)
	if tag == "" {
		return model.Document{}, goerr.Wrap(model.ErrDataLoad, "record tag is empty")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", tag, render(record[tag]))
	fmt.Fprintf(&b, "Symptoms: %s\n", render(record[fieldSymptoms]))
	fmt.Fprintf(&b, "Treatment: %s\n", render(record[fieldTreatment]))
	if v, ok := record[fieldTypes]; ok {
		fmt.Fprintf(&b, "Types: %s\n", render(v))
	}
	if v, ok := record[fieldPrevention]; ok {
		fmt.Fprintf(&b, "Prevention: %s", render(v))
	}

	return model.Document{
		Content:  b.String(),
		Metadata: model.Metadata{Tag: tag},
	}, nil
}

// render turns a decoded field into text. Absent and null fields become "", lists are joined with ", ".
func render(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			parts = append(parts, render(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(x)
	}
}
