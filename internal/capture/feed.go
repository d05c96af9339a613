package capture

import (
	"context"
	"sync"

	"github.com/deskpilot/deskpilot/internal/shared/types"
)

const feedBuffer = 256

// Feed is an in-process EventSource. The capture agent pushes events
// through Publish (typically via the HTTP ingest endpoint) and the
// recorder consumes them through Subscribe. Events published while no
// subscriber is attached are dropped; events that would overflow a slow
// subscriber are dropped rather than blocking the publisher.
type Feed struct {
	mu  sync.Mutex
	sub chan types.InputEvent
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{}
}

// Publish delivers an event to the current subscriber, if any.
func (f *Feed) Publish(ev types.InputEvent) {
	f.mu.Lock()
	sub := f.sub
	f.mu.Unlock()
	if sub == nil {
		return
	}
	select {
	case sub <- ev:
	default:
	}
}

// Subscribe attaches the single subscriber. The returned channel is
// closed when ctx is cancelled. A second concurrent subscriber replaces
// the first.
func (f *Feed) Subscribe(ctx context.Context) (<-chan types.InputEvent, error) {
	ch := make(chan types.InputEvent, feedBuffer)

	f.mu.Lock()
	f.sub = ch
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		if f.sub == ch {
			f.sub = nil
		}
		f.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}
