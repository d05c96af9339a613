package types

import (
	"fmt"
	"strings"
	"time"
)

// SuggestionType classifies what kind of repetitive behavior a
// suggestion was mined from.
type SuggestionType string

const (
	SuggestionWindowTransition SuggestionType = "window_transition"
	SuggestionClickPattern     SuggestionType = "click_pattern"
	SuggestionAppTimePattern   SuggestionType = "app_time_pattern"
	SuggestionTimeBased        SuggestionType = "time_based_suggestion"
)

// Suggestion is a scored, typed recommendation to automate a detected
// behavior. Identity is value equality over the pattern-bearing fields
// (see Key); ID and timestamps are bookkeeping and do not participate.
type Suggestion struct {
	ID          string         `json:"id"`
	Type        SuggestionType `json:"type"`
	Description string         `json:"description"`

	// Pattern fields; which are set depends on Type.
	Source      string    `json:"source_window,omitempty"`
	Destination string    `json:"destination_window,omitempty"`
	Window      string    `json:"window,omitempty"`
	Position    *Position `json:"position,omitempty"`
	App         string    `json:"app,omitempty"`
	Hour        int       `json:"hour"`

	// Confidence is clamped to [0, 0.95]; each type has a tighter cap.
	Confidence float64 `json:"confidence"`
	Count      int     `json:"count"`
	Prompt     string  `json:"suggestion"`

	CreatedAt   time.Time `json:"created_at"`
	Dismissed   bool      `json:"is_dismissed"`
	Implemented bool      `json:"is_implemented"`
}

// Key returns the value-identity of the suggestion. Two suggestions
// with equal keys are the same suggestion and must not coexist in an
// active list.
func (s Suggestion) Key() string {
	parts := []string{
		string(s.Type),
		s.Source,
		s.Destination,
		s.Window,
		s.App,
		fmt.Sprintf("%d", s.Hour),
	}
	if s.Position != nil {
		parts = append(parts, fmt.Sprintf("%d,%d", s.Position.X, s.Position.Y))
	}
	return strings.Join(parts, "|")
}

// Settled reports whether the suggestion reached a terminal state.
func (s Suggestion) Settled() bool {
	return s.Dismissed || s.Implemented
}
