// Package blackboard holds the mutable state shared between the
// capture, detection, and automation workers. It replaces a free-form
// key-value map with named, mutex-guarded fields so every cross-worker
// read and write goes through an explicit accessor.
package blackboard

import (
	"slices"
	"sync"
	"time"

	"github.com/deskpilot/deskpilot/internal/shared/types"
)

// Board is the shared state blackboard. The zero value is usable.
type Board struct {
	mu           sync.RWMutex
	activeWindow string
	detectedApps []string
	mousePos     types.Position
	recording    bool
	sampledAt    time.Time
}

// New creates an empty board.
func New() *Board {
	return &Board{}
}

// UpdateActivity records the latest desktop sample.
func (b *Board) UpdateActivity(ev types.ActivityEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.activeWindow = ev.Window
	b.detectedApps = slices.Clone(ev.Apps)
	b.mousePos = ev.Mouse
	b.sampledAt = ev.Timestamp
}

// ActiveWindow returns the title of the focused window.
func (b *Board) ActiveWindow() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.activeWindow
}

// DetectedApps returns a copy of the applications detected on screen.
func (b *Board) DetectedApps() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.detectedApps)
}

// AppDetected reports whether name is currently on screen.
func (b *Board) AppDetected(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Contains(b.detectedApps, name)
}

// MousePosition returns the last sampled mouse position.
func (b *Board) MousePosition() types.Position {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.mousePos
}

// Snapshot returns the current sample as an ActivityEvent.
func (b *Board) Snapshot() types.ActivityEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return types.ActivityEvent{
		Timestamp: b.sampledAt,
		Window:    b.activeWindow,
		Apps:      slices.Clone(b.detectedApps),
		Mouse:     b.mousePos,
	}
}

// SetRecording flags whether an automation recording is in progress.
// Written by the recorder, read by the GUI layer.
func (b *Board) SetRecording(v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recording = v
}

// Recording reports whether a recording is in progress.
func (b *Board) Recording() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.recording
}
