package blackboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/deskpilot/deskpilot/internal/shared/types"
)

func TestUpdateAndSnapshot(t *testing.T) {
	b := New()
	at := time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC)
	b.UpdateActivity(types.ActivityEvent{
		Timestamp: at,
		Window:    "editor - main.go",
		Apps:      []string{"editor", "browser"},
		Mouse:     types.Position{X: 10, Y: 20},
	})

	assert.Equal(t, "editor - main.go", b.ActiveWindow())
	assert.True(t, b.AppDetected("browser"))
	assert.False(t, b.AppDetected("terminal"))
	assert.Equal(t, types.Position{X: 10, Y: 20}, b.MousePosition())

	snap := b.Snapshot()
	assert.Equal(t, at, snap.Timestamp)
	assert.Equal(t, []string{"editor", "browser"}, snap.Apps)
}

func TestSnapshotDoesNotAliasApps(t *testing.T) {
	b := New()
	b.UpdateActivity(types.ActivityEvent{Apps: []string{"editor"}})

	snap := b.Snapshot()
	snap.Apps[0] = "mutated"
	assert.Equal(t, []string{"editor"}, b.DetectedApps())
}

func TestRecordingFlag(t *testing.T) {
	b := New()
	assert.False(t, b.Recording())
	b.SetRecording(true)
	assert.True(t, b.Recording())
	b.SetRecording(false)
	assert.False(t, b.Recording())
}
