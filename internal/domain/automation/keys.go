package automation

// specialKeys maps recorded special-key identifiers ("Key.enter" style
// from the capture collaborator, prefix stripped) to the injection
// sink's key names. Unmapped special keys are skipped during replay.
var specialKeys = map[string]string{
	"space":     "space",
	"enter":     "enter",
	"tab":       "tab",
	"esc":       "escape",
	"backspace": "backspace",
	"delete":    "delete",
	"up":        "up",
	"down":      "down",
	"left":      "left",
	"right":     "right",
}
