package knowledge

import (
	"context"

	"github.com/secmon-lab/asclepius/pkg/domain/model"
)

// Service loads the medical knowledge base and the intent table from their sources
type Service interface {
	// LoadDocuments reads the disease records at uri and normalizes each into a Document, preserving order
	LoadDocuments(ctx context.Context, uri string) ([]model.Document, error)
	// LoadIntents reads the intent table at uri, preserving order
	LoadIntents(ctx context.Context, uri string) (*model.IntentTable, error)
}

// Format is the serialization of a source file, chosen by extension
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// Record field names. The tag value names the field holding the description.
const (
	fieldDiseases   = "diseases"
	fieldTag        = "tag"
	fieldSymptoms   = "symptoms"
	fieldTreatment  = "treatment"
	fieldTypes      = "types"
	fieldPrevention = "prevention"
)
