package automation

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/deskpilot/deskpilot/internal/capture"
	"github.com/deskpilot/deskpilot/internal/infrastructure/logging"
	"github.com/deskpilot/deskpilot/internal/infrastructure/monitoring"
	"github.com/deskpilot/deskpilot/internal/infrastructure/scheduler"
	"github.com/deskpilot/deskpilot/internal/shared/blackboard"
	"github.com/deskpilot/deskpilot/internal/shared/types"
)

// Recorder captures a live input stream into a replayable automation.
// It is a two-state machine: idle or recording. Start while recording
// fails; Stop while idle is a no-op returning nil.
type Recorder struct {
	source  capture.EventSource
	store   *Store
	board   *blackboard.Board
	gate    *Gate
	clock   scheduler.Clock
	logger  *logging.Logger
	metrics *monitoring.Metrics

	mu        sync.Mutex
	recording bool
	start     time.Time
	steps     []types.Step
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewRecorder creates a recorder.
func NewRecorder(source capture.EventSource, store *Store, board *blackboard.Board, gate *Gate, clock scheduler.Clock, logger *logging.Logger) *Recorder {
	return &Recorder{
		source: source,
		store:  store,
		board:  board,
		gate:   gate,
		clock:  clock,
		logger: logger,
	}
}

// WithMetrics adds metrics tracking to the recorder.
func (r *Recorder) WithMetrics(m *monitoring.Metrics) *Recorder {
	r.metrics = m
	return r
}

// Recording reports whether a recording is in progress.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// StepCount returns the number of raw steps captured so far.
func (r *Recorder) StepCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.steps)
}

// Start begins a new recording session. Returns false when already
// recording, when a replay holds the input channel, or when the
// capture source cannot be attached.
func (r *Recorder) Start() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recording {
		r.logger.Warn("Already recording an automation")
		return false
	}
	if !r.gate.TryAcquire("recorder") {
		r.logger.Warn("Input channel busy", zap.String("owner", r.gate.Owner()))
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	events, err := r.source.Subscribe(ctx)
	if err != nil {
		cancel()
		r.gate.Release()
		r.logger.Error("Failed to attach capture source", zap.Error(err))
		return false
	}

	r.logger.Info("Starting automation recording")
	r.recording = true
	r.start = r.clock.Now()
	r.steps = nil
	r.cancel = cancel
	r.done = make(chan struct{})
	r.board.SetRecording(true)
	if r.metrics != nil {
		r.metrics.RecordingsStarted.Inc()
	}

	go r.consume(events, r.done)
	return true
}

func (r *Recorder) consume(events <-chan types.InputEvent, done chan struct{}) {
	defer close(done)
	for ev := range events {
		r.observe(ev)
	}
}

func (r *Recorder) observe(ev types.InputEvent) {
	// Releases carry no replay information.
	if (ev.Kind == types.EventMouseClick || ev.Kind == types.EventKeyPress) && !ev.Pressed {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return
	}

	at := ev.At
	if at.IsZero() {
		at = r.clock.Now()
	}
	r.steps = append(r.steps, types.Step{
		Kind:     ev.Kind,
		Position: ev.Position,
		Button:   ev.Button,
		Scroll:   ev.Scroll,
		Key:      ev.Key,
		Text:     ev.Text,
		Time:     at.Sub(r.start).Seconds(),
	})
	if r.metrics != nil {
		r.metrics.RecordEvent(string(ev.Kind))
	}
}

// Stop ends the recording, normalizes the captured steps, and saves
// the automation. A nil result means no recording was in progress.
// The result's Saved field is false when the disk write failed; the
// automation is still registered in memory in that case.
func (r *Recorder) Stop(name string) *types.StopResult {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		r.logger.Warn("Not currently recording an automation")
		return nil
	}
	r.recording = false
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	r.logger.Info("Stopping automation recording")
	cancel()
	<-done
	r.board.SetRecording(false)
	r.gate.Release()

	r.mu.Lock()
	raw := r.steps
	r.steps = nil
	start := r.start
	r.mu.Unlock()

	now := r.clock.Now()
	if name == "" {
		name = "Automation_" + now.Format("20060102_150405")
	}
	duration := now.Sub(start).Seconds()

	a := &types.Automation{
		Name:     name,
		Created:  now,
		Duration: duration,
		Steps:    Normalize(raw, duration),
	}

	saved := true
	if err := r.store.Save(a); err != nil {
		// In-memory copy stays authoritative; the caller sees the gap
		// through Saved=false instead of a silent success.
		r.logger.Error("Failed to save automation", zap.String("name", name), zap.Error(err))
		saved = false
	} else {
		r.logger.Info("Automation saved", zap.String("name", name), zap.Int("steps", len(a.Steps)))
		if r.metrics != nil {
			r.metrics.RecordingsSaved.Inc()
		}
	}

	return &types.StopResult{Automation: a, Saved: saved}
}
