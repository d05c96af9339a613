package automation

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskpilot/deskpilot/internal/infrastructure/logging"
	"github.com/deskpilot/deskpilot/internal/shared/types"
)

func testAutomation(name string) *types.Automation {
	return &types.Automation{
		Name:     name,
		Created:  time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Duration: 2.5,
		Steps: []types.Step{
			{Kind: types.EventMouseClick, Position: pos(100, 100), Button: types.ButtonLeft, Time: 0.1, Delay: 0},
			{Kind: types.EventMouseScroll, Position: pos(100, 100), Scroll: &types.ScrollDelta{DX: 0, DY: -3}, Time: 0.6, Delay: 0.5},
			{Kind: types.EventKeyPress, Key: "Key.enter", Time: 1.1, Delay: 0.5},
			{Kind: types.EventKeyText, Text: "hello", Time: 2.0, Delay: 0.9},
		},
	}
}

func TestStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, logging.Nop())
	require.NoError(t, err)

	original := testAutomation("demo")
	require.NoError(t, store.Save(original))

	// A fresh store reads the JSON document back from disk.
	reloaded, err := NewStore(dir, logging.Nop())
	require.NoError(t, err)

	got, ok := reloaded.Get("demo")
	require.True(t, ok)
	assert.Equal(t, original.Name, got.Name)
	assert.True(t, original.Created.Equal(got.Created))
	assert.Equal(t, original.Duration, got.Duration)
	assert.Equal(t, original.Steps, got.Steps)
	assert.Equal(t, original.ExecutionCount, got.ExecutionCount)
}

func TestStoreGetUnknown(t *testing.T) {
	store, err := NewStore(t.TempDir(), logging.Nop())
	require.NoError(t, err)

	_, ok := store.Get("missing")
	assert.False(t, ok)
}

func TestStoreDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, logging.Nop())
	require.NoError(t, err)
	require.NoError(t, store.Save(testAutomation("gone")))

	assert.True(t, store.Delete("gone"))
	_, ok := store.Get("gone")
	assert.False(t, ok)
	assert.NoFileExists(t, filepath.Join(dir, "gone.json"))

	assert.False(t, store.Delete("gone"))
	assert.False(t, store.Delete("never-existed"))
}

func TestStoreSkipsMalformedFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, logging.Nop())
	require.NoError(t, err)
	require.NoError(t, store.Save(testAutomation("good")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0o644))

	reloaded, err := NewStore(dir, logging.Nop())
	require.NoError(t, err)

	_, ok := reloaded.Get("good")
	assert.True(t, ok)
	assert.Len(t, reloaded.List(), 1)
}

func TestStoreTouch(t *testing.T) {
	store, err := NewStore(t.TempDir(), logging.Nop())
	require.NoError(t, err)
	require.NoError(t, store.Save(testAutomation("demo")))

	at := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	store.Touch("demo", at)
	store.Touch("demo", at.Add(time.Minute))

	got, ok := store.Get("demo")
	require.True(t, ok)
	assert.Equal(t, 2, got.ExecutionCount)
	require.NotNil(t, got.LastExecuted)
	assert.True(t, got.LastExecuted.Equal(at.Add(time.Minute)))

	// Touching the copy returned by Get must not alias store state.
	got.ExecutionCount = 99
	again, _ := store.Get("demo")
	assert.Equal(t, 2, again.ExecutionCount)
}

func TestStoreListNewestFirst(t *testing.T) {
	store, err := NewStore(t.TempDir(), logging.Nop())
	require.NoError(t, err)

	older := testAutomation("older")
	newer := testAutomation("newer")
	newer.Created = older.Created.Add(time.Hour)
	require.NoError(t, store.Save(older))
	require.NoError(t, store.Save(newer))

	list := store.List()
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].Name)
	assert.Equal(t, "older", list[1].Name)
}
