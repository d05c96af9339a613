package types

import "time"

// Step is the normalized, replayable form of a recorded input event.
// Exactly one payload group is set depending on Kind:
// mouse_click uses Position+Button, mouse_scroll uses Position+Scroll,
// key_press uses Key, key_text uses Text.
type Step struct {
	Kind     EventKind    `json:"type"`
	Position *Position    `json:"position,omitempty"`
	Button   MouseButton  `json:"button,omitempty"`
	Scroll   *ScrollDelta `json:"scroll,omitempty"`
	Key      string       `json:"key,omitempty"`
	Text     string       `json:"text,omitempty"`

	// Time is seconds since recording start.
	Time float64 `json:"time"`
	// Delay is seconds to pause before the next step, derived from Time
	// deltas during normalization. Never negative.
	Delay float64 `json:"delay"`
}

// Automation is a named, ordered sequence of replayable steps.
type Automation struct {
	Name           string     `json:"name"`
	Created        time.Time  `json:"created"`
	Duration       float64    `json:"duration"`
	Steps          []Step     `json:"steps"`
	ExecutionCount int        `json:"execution_count"`
	LastExecuted   *time.Time `json:"last_executed,omitempty"`
}

// StopResult is returned by the recorder when a recording ends. Saved
// distinguishes durable completion from in-memory completion: the
// automation is usable either way, but Saved=false means the write to
// disk failed and only the in-memory copy exists.
type StopResult struct {
	Automation *Automation `json:"automation"`
	Saved      bool        `json:"saved"`
}
