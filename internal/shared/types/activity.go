package types

import "time"

// ActivityEvent is one sample of desktop state delivered by the
// screen/window-info collaborator: the focused window, the applications
// detected on screen, and the mouse position at sample time.
type ActivityEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Window    string    `json:"window_title"`
	Apps      []string  `json:"detected_apps"`
	Mouse     Position  `json:"mouse_position"`
}

// ActivityRecord is a persisted activity log row.
type ActivityRecord struct {
	ID          int64     `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Type        string    `json:"activity_type"`
	Description string    `json:"description,omitempty"`
	Data        string    `json:"data,omitempty"`
}
