package types

import "time"

// EventKind identifies the four replayable input event kinds.
type EventKind string

const (
	EventMouseClick  EventKind = "mouse_click"
	EventMouseScroll EventKind = "mouse_scroll"
	EventKeyPress    EventKind = "key_press"
	EventKeyText     EventKind = "key_text"
)

// Valid reports whether k is one of the known event kinds.
func (k EventKind) Valid() bool {
	switch k {
	case EventMouseClick, EventMouseScroll, EventKeyPress, EventKeyText:
		return true
	}
	return false
}

// MouseButton identifies which mouse button produced a click.
type MouseButton string

const (
	ButtonLeft   MouseButton = "left"
	ButtonRight  MouseButton = "right"
	ButtonMiddle MouseButton = "middle"
)

// Position is a screen coordinate in pixels.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ScrollDelta is the horizontal and vertical scroll amount of a scroll event.
type ScrollDelta struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
}

// InputEvent is a raw timestamped event delivered by the capture collaborator.
// Events are immutable once recorded.
type InputEvent struct {
	Kind     EventKind    `json:"kind"`
	At       time.Time    `json:"at"`
	Position *Position    `json:"position,omitempty"`
	Button   MouseButton  `json:"button,omitempty"`
	Scroll   *ScrollDelta `json:"scroll,omitempty"`
	Key      string       `json:"key,omitempty"`
	Text     string       `json:"text,omitempty"`
	// Pressed distinguishes press from release for clicks and keys.
	// Releases are ignored by the recorder.
	Pressed bool `json:"pressed"`
}
