package model

import "strings"

// IntentEntry maps trigger patterns to canned responses. Only the first response is used.
type IntentEntry struct {
	Patterns  []string `json:"patterns" yaml:"patterns" toml:"patterns"`
	Responses []string `json:"responses" yaml:"responses" toml:"responses"`
}

// Response returns the first response, or "" when the entry has none
func (e *IntentEntry) Response() string {
	if len(e.Responses) == 0 {
		return ""
	}
	return e.Responses[0]
}

// matches reports whether any non-empty pattern, lower-cased, is contained in query
func (e *IntentEntry) matches(query string) bool {
	for _, p := range e.Patterns {
		p = strings.ToLower(p)
		if p == "" {
			continue
		}
		if strings.Contains(query, p) {
			return true
		}
	}
	return false
}

// IntentTable is the read-only, ordered intent lookup table
type IntentTable struct {
	Intents []IntentEntry `json:"intents" yaml:"intents" toml:"intents"`
}

// Len returns the number of intents. A nil table has none.
func (t *IntentTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Intents)
}

// Match returns the first intent in table order with a pattern contained in the normalized query.
// Scanning stops at the first hit.
func (t *IntentTable) Match(normalizedQuery string) (*IntentEntry, bool) {
	if t == nil {
		return nil, false
	}
	for i := range t.Intents {
		if t.Intents[i].matches(normalizedQuery) {
			return &t.Intents[i], true
		}
	}
	return nil, false
}
