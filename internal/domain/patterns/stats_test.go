package patterns

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/deskpilot/deskpilot/internal/shared/types"
)

func TestTransitionStatsCounts(t *testing.T) {
	stats := NewTransitionStats(100)
	stats.Record("editor", "browser")
	stats.Record("editor", "browser")
	stats.Record("editor", "terminal")
	stats.Record("browser", "editor")

	assert.Equal(t, map[string]int{"browser": 2, "terminal": 1}, stats.Counts("editor"))
	assert.Equal(t, map[string]int{"editor": 1}, stats.Counts("browser"))
	assert.Equal(t, []string{"browser", "editor"}, stats.Sources())
	assert.Empty(t, stats.Counts("unknown"))
}

func TestTransitionStatsHistoryBound(t *testing.T) {
	stats := NewTransitionStats(5)
	for i := 0; i < 20; i++ {
		stats.Record("src", fmt.Sprintf("dest-%d", i))
	}
	history := stats.History("src")
	assert.Len(t, history, 5)
	assert.Equal(t, "dest-15", history[0])
	assert.Equal(t, "dest-19", history[4])
}

func TestClickGridCellMapping(t *testing.T) {
	grid := NewClickGrid(10, 1920, 1080)

	// Nearby clicks land in the same cell; distant ones do not.
	grid.Record("editor", types.Position{X: 400, Y: 380})
	grid.Record("editor", types.Position{X: 410, Y: 390})
	grid.Record("editor", types.Position{X: 1000, Y: 700})

	counts := grid.Counts("editor")
	assert.Equal(t, 2, counts[Cell{X: 2, Y: 3}])
	assert.Equal(t, 1, counts[Cell{X: 5, Y: 6}])
	assert.Equal(t, []string{"editor"}, grid.Windows())
}

func TestClickGridCenter(t *testing.T) {
	grid := NewClickGrid(10, 1920, 1080)
	center := grid.Center(Cell{X: 2, Y: 3})
	assert.Equal(t, types.Position{X: 480, Y: 378}, center)
}

func TestClickGridIgnoresEmptyWindow(t *testing.T) {
	grid := NewClickGrid(10, 1920, 1080)
	grid.Record("", types.Position{X: 100, Y: 100})
	assert.Empty(t, grid.Windows())
}

func TestAppHourStatsPeak(t *testing.T) {
	stats := NewAppHourStats()
	for i := 0; i < 5; i++ {
		stats.Record("Slack", 9)
	}
	for i := 0; i < 2; i++ {
		stats.Record("Slack", 14)
	}

	hour, count := stats.Peak("Slack")
	assert.Equal(t, 9, hour)
	assert.Equal(t, 5, count)
	assert.Equal(t, 2, stats.Count("Slack", 14))
	assert.Equal(t, 0, stats.Count("Slack", 3))

	hour, count = stats.Peak("unknown")
	assert.Equal(t, 0, hour)
	assert.Equal(t, 0, count)
}

func TestAppHourStatsProfile(t *testing.T) {
	stats := NewAppHourStats()
	for i := 0; i < 12; i++ {
		stats.Record("Slack", 9)
	}
	for i := 0; i < 12; i++ {
		stats.Record("Slack", 10)
	}

	p := stats.Profile("Slack")
	assert.Equal(t, "Slack", p.App)
	assert.Equal(t, 12, p.Counts[9])
	assert.Equal(t, 12, p.Counts[10])
	assert.InDelta(t, 1.0, p.Mean, 1e-9)
	assert.Greater(t, p.StdDev, 0.0)
	assert.Equal(t, 9, p.PeakHour)
	assert.Equal(t, 12, p.PeakCount)
}

func TestDayHourStats(t *testing.T) {
	stats := NewDayHourStats()
	stats.Record("Monday", 9)
	stats.Record("Monday", 9)
	stats.Record("Tuesday", 14)

	assert.Equal(t, 2, stats.Count("Monday", 9))
	assert.Equal(t, 1, stats.Count("Tuesday", 14))
	assert.Equal(t, 0, stats.Count("Monday", 10))
}
