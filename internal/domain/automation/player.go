package automation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/deskpilot/deskpilot/internal/capture"
	"github.com/deskpilot/deskpilot/internal/infrastructure/logging"
	"github.com/deskpilot/deskpilot/internal/infrastructure/monitoring"
	"github.com/deskpilot/deskpilot/internal/infrastructure/scheduler"
	"github.com/deskpilot/deskpilot/internal/shared/types"
)

// ExecutionSink receives a notification after each successful replay,
// typically backed by the relational activity store.
type ExecutionSink interface {
	RecordExecution(name string) error
}

// Player replays stored automations against the input injection
// collaborator. Replays are not transactional: an injection failure
// aborts the remaining steps and reports failure, but already-injected
// steps are not rolled back.
type Player struct {
	store        *Store
	injector     capture.Injector
	gate         *Gate
	clock        scheduler.Clock
	logger       *logging.Logger
	metrics      *monitoring.Metrics
	sink         ExecutionSink
	defaultDelay time.Duration
}

// NewPlayer creates a player. defaultDelay paces steps that carry no
// recorded delay.
func NewPlayer(store *Store, injector capture.Injector, gate *Gate, clock scheduler.Clock, logger *logging.Logger, defaultDelay time.Duration) *Player {
	if defaultDelay <= 0 {
		defaultDelay = 50 * time.Millisecond
	}
	return &Player{
		store:        store,
		injector:     injector,
		gate:         gate,
		clock:        clock,
		logger:       logger,
		defaultDelay: defaultDelay,
	}
}

// WithMetrics adds metrics tracking to the player.
func (p *Player) WithMetrics(m *monitoring.Metrics) *Player {
	p.metrics = m
	return p
}

// WithExecutionSink adds a post-replay execution recorder.
func (p *Player) WithExecutionSink(sink ExecutionSink) *Player {
	p.sink = sink
	return p
}

// Execute replays the named automation. Returns false when the id is
// unknown, the input channel is held by a recording, an injection
// fails mid-sequence, or ctx is cancelled during pacing.
func (p *Player) Execute(ctx context.Context, id string) bool {
	a, ok := p.store.Get(id)
	if !ok {
		p.logger.Error("Automation not found", zap.String("name", id))
		return false
	}

	if !p.gate.TryAcquire("player") {
		p.logger.Warn("Replay refused, input channel busy",
			zap.String("name", id),
			zap.String("owner", p.gate.Owner()),
		)
		return false
	}
	defer p.gate.Release()

	p.logger.Info("Executing automation", zap.String("name", id), zap.Int("steps", len(a.Steps)))
	start := p.clock.Now()

	for i, step := range a.Steps {
		if err := p.dispatch(ctx, step); err != nil {
			p.logger.Error("Error executing automation",
				zap.String("name", id),
				zap.Int("step", i),
				zap.Error(err),
			)
			p.recordReplay("error", start)
			return false
		}
		if i == len(a.Steps)-1 {
			break
		}
		if err := p.clock.Sleep(ctx, p.stepDelay(step)); err != nil {
			p.logger.Warn("Replay cancelled", zap.String("name", id), zap.Int("step", i))
			p.recordReplay("cancelled", start)
			return false
		}
	}

	now := p.clock.Now()
	p.store.Touch(id, now)
	if p.sink != nil {
		if err := p.sink.RecordExecution(id); err != nil {
			p.logger.Error("Failed to record execution", zap.String("name", id), zap.Error(err))
		}
	}
	p.recordReplay("ok", start)
	p.logger.Info("Automation executed", zap.String("name", id))
	return true
}

func (p *Player) stepDelay(step types.Step) time.Duration {
	if step.Delay > 0 {
		return time.Duration(step.Delay * float64(time.Second))
	}
	return p.defaultDelay
}

func (p *Player) recordReplay(status string, start time.Time) {
	if p.metrics != nil {
		p.metrics.RecordReplay(status, p.clock.Now().Sub(start))
	}
}

// dispatch routes one step to the matching injection primitive. The
// switch is exhaustive over the four step kinds.
func (p *Player) dispatch(ctx context.Context, step types.Step) error {
	switch step.Kind {
	case types.EventMouseClick:
		if step.Position == nil {
			return fmt.Errorf("mouse_click step has no position")
		}
		button := step.Button
		if button == "" {
			button = types.ButtonLeft
		}
		return p.injector.Click(ctx, *step.Position, button)

	case types.EventMouseScroll:
		if step.Position == nil || step.Scroll == nil {
			return fmt.Errorf("mouse_scroll step has no position or delta")
		}
		return p.injector.Scroll(ctx, *step.Position, *step.Scroll)

	case types.EventKeyPress:
		if name, isSpecial := strings.CutPrefix(step.Key, "Key."); isSpecial {
			mapped, known := specialKeys[name]
			if !known {
				p.logger.Debug("Skipping unmapped special key", zap.String("key", step.Key))
				return nil
			}
			return p.injector.PressKey(ctx, mapped)
		}
		return p.injector.PressKey(ctx, step.Key)

	case types.EventKeyText:
		return p.injector.TypeText(ctx, step.Text)

	default:
		return fmt.Errorf("unknown step type %q", step.Kind)
	}
}
