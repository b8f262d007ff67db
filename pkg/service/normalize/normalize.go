package normalize

import (
	"strings"
	"unicode"
)

// DefaultMisspellings maps common whole-query misspellings to the canonical disease term
var DefaultMisspellings = map[string]string{
	"canser":            "cancer",
	"diabetis":          "diabetes",
	"artritis":          "arthritis",
	"highbloodpressure": "hypertension",
	"asma":              "asthma",
	"hart":              "heart",
	"stroke":            "stroke",
	"alzheimers":        "alzheimer",
	"highblood":         "hypertension",
}

// DefaultExitPhrases end a conversation when contained in the lower-cased input
var DefaultExitPhrases = []string{
	"quit",
	"exit",
	"bye",
	"goodbye",
	"terminate",
	"end",
	"sign off",
	"terminate the call",
	"end call",
}

// Normalizer canonicalizes user queries and detects exit requests. It is immutable after New.
type Normalizer struct {
	misspellings map[string]string
	exitPhrases  []string
}

// Option is a functional option for Normalizer
type Option func(*Normalizer)

// WithMisspellings replaces the misspelling table
func WithMisspellings(m map[string]string) Option {
	return func(n *Normalizer) {
		n.misspellings = make(map[string]string, len(m))
		for k, v := range m {
			n.misspellings[k] = v
		}
	}
}

// WithExitPhrases replaces the exit phrase list
func WithExitPhrases(phrases []string) Option {
	return func(n *Normalizer) {
		n.exitPhrases = make([]string, 0, len(phrases))
		for _, p := range phrases {
			if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
				n.exitPhrases = append(n.exitPhrases, p)
			}
		}
	}
}

// New creates a Normalizer with the default tables unless overridden
func New(opts ...Option) *Normalizer {
	n := &Normalizer{}
	WithMisspellings(DefaultMisspellings)(n)
	WithExitPhrases(DefaultExitPhrases)(n)
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize lower-cases q, strips everything except letters, digits, underscore and whitespace,
// collapses whitespace to single spaces, then replaces the whole result if it is a known misspelling.
// Misspellings embedded in longer queries are left untouched.
func (n *Normalizer) Normalize(q string) string {
	var b strings.Builder
	b.Grow(len(q))
	for _, r := range strings.ToLower(q) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	out := strings.Join(strings.Fields(b.String()), " ")

	if fixed, ok := n.misspellings[out]; ok {
		return fixed
	}
	return out
}

// IsExitRequest reports whether the trimmed, lower-cased text contains any exit phrase.
// Matching is by substring, so "weekend" counts as "end".
func (n *Normalizer) IsExitRequest(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return false
	}
	for _, p := range n.exitPhrases {
		if strings.Contains(t, p) {
			return true
		}
	}
	return false
}
