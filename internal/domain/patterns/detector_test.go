package patterns

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskpilot/deskpilot/internal/infrastructure/config"
	"github.com/deskpilot/deskpilot/internal/infrastructure/logging"
	"github.com/deskpilot/deskpilot/internal/infrastructure/scheduler"
	"github.com/deskpilot/deskpilot/internal/shared/blackboard"
	"github.com/deskpilot/deskpilot/internal/shared/types"
)

type captureSink struct {
	mu       sync.Mutex
	replaced [][]types.Suggestion
	merged   [][]types.Suggestion
}

func (c *captureSink) ReplaceCycle(batch []types.Suggestion) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replaced = append(c.replaced, batch)
}

func (c *captureSink) Merge(batch []types.Suggestion) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.merged = append(c.merged, batch)
}

func (c *captureSink) lastCycle() []types.Suggestion {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.replaced) == 0 {
		return nil
	}
	return c.replaced[len(c.replaced)-1]
}

func detectorFixture(t *testing.T) (*Detector, *captureSink, *blackboard.Board, *scheduler.Fake) {
	t.Helper()
	cfg := config.Default().Detector
	board := blackboard.New()
	sink := &captureSink{}
	clock := scheduler.NewFake(time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC))
	d := NewDetector(cfg, t.TempDir(), board, sink, clock, logging.Nop())
	return d, sink, board, clock
}

func sample(board *blackboard.Board, at time.Time, window string, apps ...string) {
	board.UpdateActivity(types.ActivityEvent{Timestamp: at, Window: window, Apps: apps})
}

func byType(batch []types.Suggestion, kind types.SuggestionType) []types.Suggestion {
	var out []types.Suggestion
	for _, s := range batch {
		if s.Type == kind {
			out = append(out, s)
		}
	}
	return out
}

func TestDetectorTransitionThreshold(t *testing.T) {
	d, sink, board, clock := detectorFixture(t)

	// Two round trips: editor->browser twice, still below threshold.
	for i := 0; i < 2; i++ {
		sample(board, clock.Now(), "editor")
		d.Observe()
		sample(board, clock.Now(), "browser")
		d.Observe()
	}
	require.NoError(t, d.AnalyzeCycle())
	assert.Empty(t, byType(sink.lastCycle(), types.SuggestionWindowTransition))

	// A third occurrence crosses min repetitions.
	sample(board, clock.Now(), "editor")
	d.Observe()
	sample(board, clock.Now(), "browser")
	d.Observe()
	require.NoError(t, d.AnalyzeCycle())

	got := byType(sink.lastCycle(), types.SuggestionWindowTransition)
	var found *types.Suggestion
	for i := range got {
		if got[i].Source == "editor" && got[i].Destination == "browser" {
			found = &got[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, 3, found.Count)
	assert.InDelta(t, 0.3, found.Confidence, 1e-9)
	assert.Contains(t, found.Prompt, "'browser'")
	assert.NotEmpty(t, found.ID)
}

func TestDetectorTransitionConfidenceCap(t *testing.T) {
	d, sink, board, _ := detectorFixture(t)

	sample(board, time.Time{}, "editor")
	d.Observe()
	for i := 0; i < 15; i++ {
		sample(board, time.Time{}, "browser")
		d.Observe()
		sample(board, time.Time{}, "editor")
		d.Observe()
	}
	require.NoError(t, d.AnalyzeCycle())

	for _, s := range byType(sink.lastCycle(), types.SuggestionWindowTransition) {
		assert.LessOrEqual(t, s.Confidence, 0.95)
		assert.Equal(t, 0.95, s.Confidence)
	}
}

func TestDetectorClickPatternCenters(t *testing.T) {
	d, sink, _, _ := detectorFixture(t)

	for i := 0; i < 4; i++ {
		d.ObserveClick("editor", types.Position{X: 400 + i, Y: 380})
	}
	d.ObserveClick("editor", types.Position{X: 1000, Y: 700})
	require.NoError(t, d.AnalyzeCycle())

	got := byType(sink.lastCycle(), types.SuggestionClickPattern)
	require.Len(t, got, 1)
	s := got[0]
	assert.Equal(t, "editor", s.Window)
	require.NotNil(t, s.Position)
	assert.Equal(t, types.Position{X: 480, Y: 378}, *s.Position)
	assert.Equal(t, 4, s.Count)
	assert.InDelta(t, 0.4, s.Confidence, 1e-9)
}

func TestDetectorAppPeakHour(t *testing.T) {
	d, sink, board, clock := detectorFixture(t)

	// Five sightings at 09:00, two at 14:00.
	for i := 0; i < 5; i++ {
		sample(board, clock.Now(), "desk", "Slack")
		d.Observe()
	}
	clock.Advance(5 * time.Hour)
	for i := 0; i < 2; i++ {
		sample(board, clock.Now(), "desk", "Slack")
		d.Observe()
	}
	require.NoError(t, d.AnalyzeCycle())

	got := byType(sink.lastCycle(), types.SuggestionAppTimePattern)
	require.Len(t, got, 1)
	assert.Equal(t, "Slack", got[0].App)
	assert.Equal(t, 9, got[0].Hour)
	assert.Equal(t, 5, got[0].Count)
	assert.InDelta(t, 0.5, got[0].Confidence, 1e-9)
	assert.Contains(t, got[0].Description, "9:00")
}

func TestDetectorTimeCheckSkipsDetectedApps(t *testing.T) {
	d, sink, board, clock := detectorFixture(t)

	for i := 0; i < 9; i++ {
		sample(board, clock.Now(), "desk", "Slack")
		d.Observe()
	}

	// Slack is on screen; no nudge.
	d.TimeCheck()
	assert.Empty(t, sink.merged)

	// Slack disappears; the nudge fires for the current hour.
	sample(board, clock.Now(), "desk")
	d.TimeCheck()
	require.Len(t, sink.merged, 1)
	nudges := sink.merged[0]
	require.Len(t, nudges, 1)
	s := nudges[0]
	assert.Equal(t, types.SuggestionTimeBased, s.Type)
	assert.Equal(t, "Slack", s.App)
	assert.Equal(t, 9, s.Hour)
	assert.Equal(t, 9, s.Count)
	// The nudge cap is tighter than the raw count/10 score.
	assert.InDelta(t, 0.8, s.Confidence, 1e-9)
}

func TestDetectorTimeCheckBelowThreshold(t *testing.T) {
	d, sink, board, clock := detectorFixture(t)
	sample(board, clock.Now(), "desk", "Slack")
	d.Observe()
	sample(board, clock.Now(), "desk")
	d.TimeCheck()
	assert.Empty(t, sink.merged)
}

func TestDetectorActivityBufferBound(t *testing.T) {
	d, _, board, clock := detectorFixture(t)
	for i := 0; i < 1100; i++ {
		sample(board, clock.Now(), "desk")
		d.Observe()
	}
	assert.Equal(t, 1000, d.ActivityLen())
}

func TestDetectorStatePersistsAcrossRestart(t *testing.T) {
	cfg := config.Default().Detector
	board := blackboard.New()
	clock := scheduler.NewFake(time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC))
	dir := t.TempDir()

	first := NewDetector(cfg, dir, board, &captureSink{}, clock, logging.Nop())
	sample(board, clock.Now(), "editor")
	first.Observe()
	for i := 0; i < 3; i++ {
		sample(board, clock.Now(), "browser")
		first.Observe()
		sample(board, clock.Now(), "editor")
		first.Observe()
	}
	require.NoError(t, first.SaveState())

	sink := &captureSink{}
	second := NewDetector(cfg, dir, board, sink, clock, logging.Nop())
	require.NoError(t, second.AnalyzeCycle())
	assert.NotEmpty(t, byType(sink.lastCycle(), types.SuggestionWindowTransition))
}

func TestDetectorCyclesAreDeterministic(t *testing.T) {
	d, sink, board, clock := detectorFixture(t)
	windows := []string{"a", "b", "c", "d"}
	for i := 0; i < 5; i++ {
		for _, w := range windows {
			sample(board, clock.Now(), w)
			d.Observe()
		}
	}

	require.NoError(t, d.AnalyzeCycle())
	first := sink.lastCycle()
	require.NoError(t, d.AnalyzeCycle())
	second := sink.lastCycle()

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Key(), second[i].Key())
	}
}
