package capture

import (
	"context"

	"go.uber.org/zap"

	"github.com/deskpilot/deskpilot/internal/infrastructure/logging"
	"github.com/deskpilot/deskpilot/internal/shared/types"
)

// NopInjector logs replay commands instead of injecting them. Used
// when no OS-level injection collaborator is configured, so replays
// can be exercised end to end without moving the real cursor.
type NopInjector struct {
	Logger *logging.Logger
}

func (n *NopInjector) log(msg string, fields ...zap.Field) {
	if n.Logger != nil {
		n.Logger.Debug(msg, fields...)
	}
}

func (n *NopInjector) Click(_ context.Context, pos types.Position, button types.MouseButton) error {
	n.log("inject click", zap.Int("x", pos.X), zap.Int("y", pos.Y), zap.String("button", string(button)))
	return nil
}

func (n *NopInjector) Scroll(_ context.Context, pos types.Position, delta types.ScrollDelta) error {
	n.log("inject scroll", zap.Int("x", pos.X), zap.Int("y", pos.Y), zap.Int("dy", delta.DY))
	return nil
}

func (n *NopInjector) PressKey(_ context.Context, key string) error {
	n.log("inject key", zap.String("key", key))
	return nil
}

func (n *NopInjector) TypeText(_ context.Context, text string) error {
	n.log("inject text", zap.Int("len", len(text)))
	return nil
}
