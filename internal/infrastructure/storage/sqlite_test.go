package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskpilot/deskpilot/internal/infrastructure/logging"
	"github.com/deskpilot/deskpilot/internal/shared/types"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "tracker.db"), logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestActivityLogRoundTrip(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC)

	id, err := db.LogActivity("window_change", "editor -> browser", `{"from":"editor"}`, base)
	require.NoError(t, err)
	assert.Positive(t, id)
	_, err = db.LogActivity("mouse_click", "", "", base.Add(time.Minute))
	require.NoError(t, err)

	recent, err := db.RecentActivities(10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "mouse_click", recent[0].Type)
	assert.Equal(t, "window_change", recent[1].Type)
	assert.Equal(t, "editor -> browser", recent[1].Description)
	assert.JSONEq(t, `{"from":"editor"}`, recent[1].Data)
	assert.True(t, recent[1].Timestamp.Equal(base))
}

func TestActivityLogRejectsEmptyType(t *testing.T) {
	db := openTestDB(t)
	_, err := db.LogActivity("", "desc", "", time.Now())
	assert.Error(t, err)
}

func TestRecentActivitiesLimit(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := db.LogActivity("mouse_click", "", "", base.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
	}
	recent, err := db.RecentActivities(3)
	require.NoError(t, err)
	assert.Len(t, recent, 3)
}

func TestAutomationTaskLifecycle(t *testing.T) {
	db := openTestDB(t)
	a := &types.Automation{
		Name:    "demo",
		Created: time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC),
		Steps: []types.Step{
			{Kind: types.EventKeyText, Text: "hello", Time: 0.5},
		},
	}
	require.NoError(t, db.SaveAutomationTask(a))

	n, err := db.AutomationTaskCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, db.RecordExecution("demo"))
	require.NoError(t, db.RecordExecution("demo"))

	var count int
	require.NoError(t, db.db.QueryRow(
		`SELECT execution_count FROM automation_tasks WHERE name = ?`, "demo").Scan(&count))
	assert.Equal(t, 2, count)

	// Each execution leaves an activity trail.
	recent, err := db.RecentActivities(10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "automation", recent[0].Type)

	require.NoError(t, db.DeactivateAutomationTask("demo"))
	n, err = db.AutomationTaskCount()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	assert.Error(t, db.RecordExecution("missing"))
	assert.Error(t, db.DeactivateAutomationTask("missing"))
}

func TestSuggestionPersistence(t *testing.T) {
	db := openTestDB(t)
	s := types.Suggestion{
		ID:          "s-1",
		Type:        types.SuggestionWindowTransition,
		Description: "You often switch from 'editor' to 'browser'",
		Source:      "editor",
		Destination: "browser",
		Confidence:  0.3,
		Count:       3,
		CreatedAt:   time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.SaveSuggestion(s))

	// Re-detection updates the score without resetting the flags.
	s.Confidence = 0.5
	require.NoError(t, db.SaveSuggestion(s))

	listed, err := db.ListSuggestions(false)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "s-1", listed[0].ID)
	assert.Equal(t, 0.5, listed[0].Confidence)
	assert.Equal(t, "browser", listed[0].Destination)

	require.NoError(t, db.SetSuggestionDismissed("s-1"))
	listed, err = db.ListSuggestions(false)
	require.NoError(t, err)
	assert.Empty(t, listed)

	all, err := db.ListSuggestions(true)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Dismissed)

	// An upsert after dismissal must not clear the flag.
	s.Confidence = 0.9
	require.NoError(t, db.SaveSuggestion(s))
	listed, err = db.ListSuggestions(false)
	require.NoError(t, err)
	assert.Empty(t, listed)

	assert.Error(t, db.SetSuggestionImplemented("missing"))
}

func TestCleanupOlderThan(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC)

	_, err := db.LogActivity("mouse_click", "old", "", base.AddDate(0, 0, -10))
	require.NoError(t, err)
	_, err = db.LogActivity("mouse_click", "fresh", "", base)
	require.NoError(t, err)

	old := types.Suggestion{ID: "old", Type: types.SuggestionClickPattern, CreatedAt: base.AddDate(0, 0, -10), Dismissed: true}
	require.NoError(t, db.SaveSuggestion(old))
	keep := types.Suggestion{ID: "keep", Type: types.SuggestionClickPattern, CreatedAt: base.AddDate(0, 0, -10)}
	require.NoError(t, db.SaveSuggestion(keep))

	removed, err := db.CleanupOlderThan(base.AddDate(0, 0, -7))
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	recent, err := db.RecentActivities(10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "fresh", recent[0].Description)

	// Active suggestions survive cleanup regardless of age.
	all, err := db.ListSuggestions(true)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "keep", all[0].ID)
}
