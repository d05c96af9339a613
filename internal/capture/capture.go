// Package capture defines the collaborator interfaces at the boundary
// of the tracker core: the source of raw input events, the input
// injection sink used by replay, and the screen/window sampler. The
// implementations that hook the OS live outside this module; Feed is
// the in-process bridge the API layer pushes into.
package capture

import (
	"context"

	"github.com/deskpilot/deskpilot/internal/shared/types"
)

// EventSource delivers raw input events. Subscribe returns a channel
// that is closed when ctx is cancelled; only one subscriber is active
// at a time (the recorder).
type EventSource interface {
	Subscribe(ctx context.Context) (<-chan types.InputEvent, error)
}

// Injector accepts replay commands and performs the actual input
// injection. All methods may fail mid-sequence; the player aborts on
// the first error.
type Injector interface {
	Click(ctx context.Context, pos types.Position, button types.MouseButton) error
	Scroll(ctx context.Context, pos types.Position, delta types.ScrollDelta) error
	PressKey(ctx context.Context, key string) error
	TypeText(ctx context.Context, text string) error
}

// ScreenSampler delivers desktop state samples: the focused window,
// applications detected on screen, and the mouse position.
type ScreenSampler interface {
	Sample(ctx context.Context) (types.ActivityEvent, error)
}
