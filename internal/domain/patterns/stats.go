package patterns

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/deskpilot/deskpilot/internal/shared/types"
)

// TransitionStats tracks window focus transitions as a bounded history
// of destinations per source window.
type TransitionStats struct {
	maxHistory int
	sequences  map[string][]string
}

// NewTransitionStats creates an empty transition tracker. maxHistory
// bounds how many destinations are remembered per source window.
func NewTransitionStats(maxHistory int) *TransitionStats {
	if maxHistory <= 0 {
		maxHistory = 100
	}
	return &TransitionStats{
		maxHistory: maxHistory,
		sequences:  make(map[string][]string),
	}
}

// Record notes a focus change from source to dest.
func (t *TransitionStats) Record(source, dest string) {
	seq := append(t.sequences[source], dest)
	if len(seq) > t.maxHistory {
		seq = seq[len(seq)-t.maxHistory:]
	}
	t.sequences[source] = seq
}

// Counts returns how often each destination follows source.
func (t *TransitionStats) Counts(source string) map[string]int {
	counts := make(map[string]int, len(t.sequences[source]))
	for _, dest := range t.sequences[source] {
		counts[dest]++
	}
	return counts
}

// Sources returns the source windows with recorded transitions, sorted.
func (t *TransitionStats) Sources() []string {
	out := make([]string, 0, len(t.sequences))
	for source := range t.sequences {
		out = append(out, source)
	}
	sort.Strings(out)
	return out
}

// History returns the raw destination history for source.
func (t *TransitionStats) History(source string) []string {
	return t.sequences[source]
}

// Cell is a grid coordinate on the screen.
type Cell struct {
	X int
	Y int
}

// ClickGrid maps clicks onto a coarse screen grid per window, so
// nearby clicks collapse into one repeated location.
type ClickGrid struct {
	gridSize     int
	screenWidth  int
	screenHeight int
	cells        map[string]map[Cell]int
}

// NewClickGrid creates an empty click tracker for the given screen
// dimensions divided into gridSize x gridSize cells.
func NewClickGrid(gridSize, screenWidth, screenHeight int) *ClickGrid {
	if gridSize <= 0 {
		gridSize = 10
	}
	return &ClickGrid{
		gridSize:     gridSize,
		screenWidth:  screenWidth,
		screenHeight: screenHeight,
		cells:        make(map[string]map[Cell]int),
	}
}

// Record maps a click in window to its grid cell and bumps the count.
func (g *ClickGrid) Record(window string, p types.Position) {
	if window == "" {
		return
	}
	cell := Cell{
		X: p.X * g.gridSize / g.screenWidth,
		Y: p.Y * g.gridSize / g.screenHeight,
	}
	m := g.cells[window]
	if m == nil {
		m = make(map[Cell]int)
		g.cells[window] = m
	}
	m[cell]++
}

// Center returns the pixel center of a grid cell.
func (g *ClickGrid) Center(c Cell) types.Position {
	cellWidth := float64(g.screenWidth) / float64(g.gridSize)
	cellHeight := float64(g.screenHeight) / float64(g.gridSize)
	return types.Position{
		X: int((float64(c.X) + 0.5) * cellWidth),
		Y: int((float64(c.Y) + 0.5) * cellHeight),
	}
}

// Windows returns the windows with recorded clicks, sorted.
func (g *ClickGrid) Windows() []string {
	out := make([]string, 0, len(g.cells))
	for window := range g.cells {
		out = append(out, window)
	}
	sort.Strings(out)
	return out
}

// Counts returns the per-cell click counts for window.
func (g *ClickGrid) Counts(window string) map[Cell]int {
	return g.cells[window]
}

// AppHourStats counts application sightings per hour of day.
type AppHourStats struct {
	usage map[string]map[int]int
}

// NewAppHourStats creates an empty app usage tracker.
func NewAppHourStats() *AppHourStats {
	return &AppHourStats{usage: make(map[string]map[int]int)}
}

// Record bumps the sighting count for app at hour.
func (a *AppHourStats) Record(app string, hour int) {
	m := a.usage[app]
	if m == nil {
		m = make(map[int]int)
		a.usage[app] = m
	}
	m[hour]++
}

// Count returns how often app was seen at hour.
func (a *AppHourStats) Count(app string, hour int) int {
	return a.usage[app][hour]
}

// Apps returns the tracked application names, sorted.
func (a *AppHourStats) Apps() []string {
	out := make([]string, 0, len(a.usage))
	for app := range a.usage {
		out = append(out, app)
	}
	sort.Strings(out)
	return out
}

// Peak returns the hour with the most sightings of app and its count.
// Ties resolve to the earliest hour.
func (a *AppHourStats) Peak(app string) (hour, count int) {
	for h := 0; h < 24; h++ {
		if c := a.usage[app][h]; c > count {
			hour, count = h, c
		}
	}
	return hour, count
}

// HourlyProfile summarizes one application's usage distribution over
// the day.
type HourlyProfile struct {
	App       string  `json:"app"`
	Counts    [24]int `json:"counts"`
	Mean      float64 `json:"mean"`
	StdDev    float64 `json:"std_dev"`
	PeakHour  int     `json:"peak_hour"`
	PeakCount int     `json:"peak_count"`
}

// Profile computes the hourly distribution summary for app.
func (a *AppHourStats) Profile(app string) HourlyProfile {
	p := HourlyProfile{App: app}
	values := make([]float64, 24)
	for h := 0; h < 24; h++ {
		c := a.usage[app][h]
		p.Counts[h] = c
		values[h] = float64(c)
	}
	p.Mean, p.StdDev = stat.MeanStdDev(values, nil)
	p.PeakHour, p.PeakCount = a.Peak(app)
	return p
}

// DayHourStats counts activity per weekday and hour, feeding the
// persisted time pattern table.
type DayHourStats struct {
	usage map[string]map[int]int
}

// NewDayHourStats creates an empty weekday tracker.
func NewDayHourStats() *DayHourStats {
	return &DayHourStats{usage: make(map[string]map[int]int)}
}

// Record bumps the activity count for day at hour.
func (d *DayHourStats) Record(day string, hour int) {
	m := d.usage[day]
	if m == nil {
		m = make(map[int]int)
		d.usage[day] = m
	}
	m[hour]++
}

// Count returns the activity count for day at hour.
func (d *DayHourStats) Count(day string, hour int) int {
	return d.usage[day][hour]
}
