package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/deskpilot/deskpilot/internal/infrastructure/logging"
)

// Worker runs a function on a fixed cadence until its context is
// cancelled. Errors never escape the loop: a failing iteration is
// logged and followed by a backoff sleep that doubles on consecutive
// failures, resetting after the first success.
type Worker struct {
	Name     string
	Interval time.Duration
	// ErrBackoff is the sleep after a failed iteration. Defaults to 1m.
	ErrBackoff time.Duration
	// MaxBackoff caps the doubled backoff. Defaults to 5m.
	MaxBackoff time.Duration
	Clock      Clock
	Logger     *logging.Logger
	Fn         func(ctx context.Context) error

	wg sync.WaitGroup
}

// Start launches the worker loop in its own goroutine.
func (w *Worker) Start(ctx context.Context) {
	if w.Clock == nil {
		w.Clock = Real()
	}
	if w.Logger == nil {
		w.Logger = logging.Nop()
	}
	if w.ErrBackoff <= 0 {
		w.ErrBackoff = time.Minute
	}
	if w.MaxBackoff <= 0 {
		w.MaxBackoff = 5 * time.Minute
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()
}

// Wait blocks until the worker loop has exited.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context) {
	backoff := w.ErrBackoff
	for {
		if ctx.Err() != nil {
			return
		}

		if err := w.safeCall(ctx); err != nil {
			w.Logger.Error("Worker iteration failed",
				zap.String("worker", w.Name),
				zap.Duration("backoff", backoff),
				zap.Error(err),
			)
			if w.Clock.Sleep(ctx, backoff) != nil {
				return
			}
			backoff = min(backoff*2, w.MaxBackoff)
			continue
		}

		backoff = w.ErrBackoff
		if w.Clock.Sleep(ctx, w.Interval) != nil {
			return
		}
	}
}

// safeCall invokes Fn, converting a panic into an error so one bad
// iteration cannot kill the worker.
func (w *Worker) safeCall(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.Fn(ctx)
}
