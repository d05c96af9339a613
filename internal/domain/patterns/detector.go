package patterns

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/deskpilot/deskpilot/internal/infrastructure/config"
	"github.com/deskpilot/deskpilot/internal/infrastructure/logging"
	"github.com/deskpilot/deskpilot/internal/infrastructure/monitoring"
	"github.com/deskpilot/deskpilot/internal/infrastructure/scheduler"
	"github.com/deskpilot/deskpilot/internal/shared/blackboard"
	"github.com/deskpilot/deskpilot/internal/shared/id"
	"github.com/deskpilot/deskpilot/internal/shared/types"
)

const patternStateFile = "pattern_data.json"

// SuggestionSink receives mined suggestions. ReplaceCycle delivers a
// full analysis result that supersedes the previous cycle's active
// set; Merge adds opportunistic suggestions between cycles.
type SuggestionSink interface {
	ReplaceCycle(batch []types.Suggestion)
	Merge(batch []types.Suggestion)
}

// Detector mines the activity stream for repetitive behavior and emits
// automation suggestions.
type Detector struct {
	cfg     config.DetectorConfig
	dir     string
	board   *blackboard.Board
	sink    SuggestionSink
	clock   scheduler.Clock
	logger  *logging.Logger
	metrics *monitoring.Metrics

	mu          sync.Mutex
	activity    []types.ActivityEvent
	transitions *TransitionStats
	clicks      *ClickGrid
	appHours    *AppHourStats
	dayHours    *DayHourStats
}

// NewDetector creates a detector and loads any persisted pattern
// statistics from dir. A corrupt state file is logged and ignored.
func NewDetector(cfg config.DetectorConfig, dir string, board *blackboard.Board, sink SuggestionSink, clock scheduler.Clock, logger *logging.Logger) *Detector {
	d := &Detector{
		cfg:         cfg,
		dir:         dir,
		board:       board,
		sink:        sink,
		clock:       clock,
		logger:      logger,
		transitions: NewTransitionStats(cfg.TransitionHistory),
		clicks:      NewClickGrid(cfg.GridSize, cfg.ScreenWidth, cfg.ScreenHeight),
		appHours:    NewAppHourStats(),
		dayHours:    NewDayHourStats(),
	}
	if err := loadState(d.statePath(), d.transitions, d.clicks, d.appHours, d.dayHours); err != nil {
		logger.Error("Failed to load pattern state", zap.Error(err))
	} else {
		logger.Info("Pattern state loaded",
			zap.Int("sources", len(d.transitions.sequences)),
			zap.Int("apps", len(d.appHours.usage)),
		)
	}
	return d
}

// WithMetrics adds metrics tracking to the detector.
func (d *Detector) WithMetrics(m *monitoring.Metrics) *Detector {
	d.metrics = m
	return d
}

func (d *Detector) statePath() string {
	return filepath.Join(d.dir, patternStateFile)
}

// Observe samples the current desktop state off the blackboard and
// folds it into the rolling statistics. Called on every analysis tick.
func (d *Detector) Observe() {
	snapshot := d.board.Snapshot()
	now := d.clock.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if n := len(d.activity); n > 0 {
		prev := d.activity[n-1].Window
		if prev != snapshot.Window {
			d.transitions.Record(prev, snapshot.Window)
		}
	}
	d.activity = append(d.activity, snapshot)
	if len(d.activity) > d.cfg.ActivityBuffer {
		d.activity = d.activity[len(d.activity)-d.cfg.ActivityBuffer:]
	}

	hour := now.Hour()
	for _, app := range snapshot.Apps {
		d.appHours.Record(app, hour)
	}
	d.dayHours.Record(now.Weekday().String(), hour)
}

// ObserveClick folds a single click into the grid statistics.
func (d *Detector) ObserveClick(window string, p types.Position) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clicks.Record(window, p)
}

// ActivityLen returns the current length of the activity buffer.
func (d *Detector) ActivityLen() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.activity)
}

// AnalyzeCycle runs a full mining pass over the collected statistics
// and hands the resulting batch to the suggestion sink, superseding
// the previous cycle. Pattern state is persisted afterwards.
func (d *Detector) AnalyzeCycle() error {
	start := d.clock.Now()

	d.mu.Lock()
	batch := d.mineTransitions()
	batch = append(batch, d.mineClicks()...)
	batch = append(batch, d.mineAppUsage()...)
	d.mu.Unlock()

	// Map iteration order is random; keep cycles deterministic.
	sort.Slice(batch, func(i, j int) bool { return batch[i].Key() < batch[j].Key() })

	d.sink.ReplaceCycle(batch)

	if err := d.SaveState(); err != nil {
		if d.metrics != nil {
			d.metrics.RecordAnalysis("error", d.clock.Now().Sub(start))
		}
		return err
	}
	if d.metrics != nil {
		d.metrics.RecordAnalysis("ok", d.clock.Now().Sub(start))
		for _, s := range batch {
			d.metrics.SuggestionsEmitted.WithLabelValues(string(s.Type)).Inc()
		}
	}
	d.logger.Debug("Analysis cycle complete", zap.Int("suggestions", len(batch)))
	return nil
}

// TimeCheck emits nudges for applications that are usually in use at
// the current hour but are not detected right now. Runs on a shorter
// interval than the full analysis.
func (d *Detector) TimeCheck() {
	now := d.clock.Now()
	hour := now.Hour()

	d.mu.Lock()
	var batch []types.Suggestion
	for _, app := range d.appHours.Apps() {
		count := d.appHours.Count(app, hour)
		if count < d.cfg.MinRepetitions || d.board.AppDetected(app) {
			continue
		}
		batch = append(batch, types.Suggestion{
			ID:          id.NewSuggestionID().String(),
			Type:        types.SuggestionTimeBased,
			Description: fmt.Sprintf("You usually use '%s' at this time", app),
			App:         app,
			Hour:        hour,
			Confidence:  cappedConfidence(count, 0.8),
			Count:       count,
			Prompt:      fmt.Sprintf("Would you like to open '%s' now?", app),
			CreatedAt:   now,
		})
	}
	d.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	d.sink.Merge(batch)
	d.logger.Debug("Time check emitted suggestions", zap.Int("count", len(batch)))
}

// SaveState persists the pattern statistics to disk.
func (d *Detector) SaveState() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return saveState(d.statePath(), d.transitions, d.clicks, d.appHours, d.dayHours)
}

// Profiles returns the hourly usage distribution of every tracked app.
func (d *Detector) Profiles() []HourlyProfile {
	d.mu.Lock()
	defer d.mu.Unlock()
	apps := d.appHours.Apps()
	out := make([]HourlyProfile, 0, len(apps))
	for _, app := range apps {
		out = append(out, d.appHours.Profile(app))
	}
	return out
}

// cappedConfidence scores a repetition count on the count/10 scale,
// clamped to the per-type limit.
func cappedConfidence(count int, limit float64) float64 {
	c := float64(count) / 10
	if c > limit {
		return limit
	}
	return c
}

func (d *Detector) mineTransitions() []types.Suggestion {
	var out []types.Suggestion
	now := d.clock.Now()
	for _, source := range d.transitions.Sources() {
		for dest, count := range d.transitions.Counts(source) {
			if count < d.cfg.MinRepetitions {
				continue
			}
			out = append(out, types.Suggestion{
				ID:          id.NewSuggestionID().String(),
				Type:        types.SuggestionWindowTransition,
				Description: fmt.Sprintf("You often switch from '%s' to '%s'", source, dest),
				Source:      source,
				Destination: dest,
				Confidence:  cappedConfidence(count, 0.95),
				Count:       count,
				Prompt:      fmt.Sprintf("Would you like to automate opening '%s' after '%s'?", dest, source),
				CreatedAt:   now,
			})
		}
	}
	return out
}

func (d *Detector) mineClicks() []types.Suggestion {
	var out []types.Suggestion
	now := d.clock.Now()
	for _, window := range d.clicks.Windows() {
		for cell, count := range d.clicks.Counts(window) {
			if count < d.cfg.MinRepetitions {
				continue
			}
			center := d.clicks.Center(cell)
			out = append(out, types.Suggestion{
				ID:          id.NewSuggestionID().String(),
				Type:        types.SuggestionClickPattern,
				Description: fmt.Sprintf("You often click in the same area in '%s'", window),
				Window:      window,
				Position:    &center,
				Confidence:  cappedConfidence(count, 0.9),
				Count:       count,
				Prompt:      fmt.Sprintf("Would you like to automate clicking this area in '%s'?", window),
				CreatedAt:   now,
			})
		}
	}
	return out
}

func (d *Detector) mineAppUsage() []types.Suggestion {
	var out []types.Suggestion
	now := d.clock.Now()
	for _, app := range d.appHours.Apps() {
		hour, count := d.appHours.Peak(app)
		if count < d.cfg.MinRepetitions {
			continue
		}
		out = append(out, types.Suggestion{
			ID:          id.NewSuggestionID().String(),
			Type:        types.SuggestionAppTimePattern,
			Description: fmt.Sprintf("You often use '%s' around %d:00", app, hour),
			App:         app,
			Hour:        hour,
			Confidence:  cappedConfidence(count, 0.8),
			Count:       count,
			Prompt:      fmt.Sprintf("Would you like to automatically open '%s' at %d:00?", app, hour),
			CreatedAt:   now,
		})
	}
	return out
}
