package service

import "strings"

// SafetyFilter rejects messages containing denylisted terms before any
// classification or retrieval happens.
type SafetyFilter struct {
	denylist []string
}

// NewSafetyFilter creates a new safety filter.
// Parameters:
//   - denylist: terms to match; matching is case-insensitive substring.
// Returns:
//   - *SafetyFilter: filter instance over a lowercased copy of the terms.
func NewSafetyFilter(denylist []string) *SafetyFilter {
	terms := make([]string, 0, len(denylist))
	for _, term := range denylist {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" {
			terms = append(terms, term)
		}
	}
	return &SafetyFilter{denylist: terms}
}

// IsBlocked reports whether the message contains any denylisted term.
func (f *SafetyFilter) IsBlocked(message string) bool {
	lowered := strings.ToLower(message)
	for _, term := range f.denylist {
		if strings.Contains(lowered, term) {
			return true
		}
	}
	return false
}
