package model

import "github.com/m-mizutani/goerr/v2"

// Error taxonomy shared by every layer. Callers branch with errors.Is.
var (
	// ErrDataLoad means a knowledge or intent source is missing or malformed. Fatal to startup.
	ErrDataLoad = goerr.New("failed to load data")
	// ErrIndexBuild means encoding documents or constructing the vector index failed
	ErrIndexBuild = goerr.New("failed to build index")
	// ErrSearch means search ran before build or the query could not be encoded
	ErrSearch = goerr.New("failed to search index")
	// ErrGeneration means the generative model failed or returned nothing
	ErrGeneration = goerr.New("failed to generate answer")
	// ErrTranscription means audio could not be turned into a query
	ErrTranscription = goerr.New("failed to transcribe audio")
	// ErrSynthesis means the answer could not be turned into audio
	ErrSynthesis = goerr.New("failed to synthesize speech")
	// ErrEmptyQuery means the caller supplied nothing to answer
	ErrEmptyQuery = goerr.New("query is empty")
)

// Context keys for error values
const (
	SourceKey   = "source"
	RecordKey   = "record"
	DocCountKey = "documents"
	ProviderKey = "provider"
)
