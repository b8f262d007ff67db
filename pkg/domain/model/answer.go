package model

// AnswerKind tells front ends which composer path produced an answer
type AnswerKind string

const (
	// AnswerGenerated is a model answer with the disclaimer appended
	AnswerGenerated AnswerKind = "generated"
	// AnswerFarewell ends the conversation
	AnswerFarewell AnswerKind = "farewell"
	// AnswerFallback replaces a failed or empty generation
	AnswerFallback AnswerKind = "fallback"
)

// Answer is the composed reply to one query
type Answer struct {
	Text string     `json:"text"`
	Kind AnswerKind `json:"kind"`
	// Sources are the tags of the retrieved documents, nearest first
	Sources []string `json:"sources,omitempty"`
	// Intent is the first response of the matched intent, if any
	Intent string `json:"intent,omitempty"`
}

// IsFarewell reports whether the conversation should end after this answer
func (a *Answer) IsFarewell() bool {
	return a != nil && a.Kind == AnswerFarewell
}
