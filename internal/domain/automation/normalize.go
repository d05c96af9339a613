package automation

import (
	"unicode/utf8"

	"github.com/deskpilot/deskpilot/internal/shared/types"
)

const (
	// coalesceGap is the maximum pause between two character
	// keystrokes that still merge into one text step.
	coalesceGap = 0.5
	// charBackdate approximates typing time per character when
	// back-dating a flushed text step to its start.
	charBackdate = 0.05
)

// Normalize collapses consecutive single-character key presses into
// key_text steps and derives each step's replay delay from the
// recorded timestamps. endTime (seconds since recording start) stamps
// a text buffer still open at end of stream. Characters are never
// lost, and buffers never merge across a pause longer than the gap.
//
// Normalizing an already-normalized sequence is a no-op: key_text
// steps pass through untouched and the derived delays are identical.
func Normalize(steps []types.Step, endTime float64) []types.Step {
	if len(steps) == 0 {
		return nil
	}

	out := make([]types.Step, 0, len(steps))
	var text string
	lastKeyTime := -1.0

	flush := func(at float64) {
		if text == "" {
			return
		}
		out = append(out, types.Step{
			Kind: types.EventKeyText,
			Text: text,
			Time: at - float64(utf8.RuneCountInString(text))*charBackdate,
		})
		text = ""
		lastKeyTime = -1.0
	}

	for _, step := range steps {
		if step.Kind == types.EventKeyPress && utf8.RuneCountInString(step.Key) == 1 {
			if lastKeyTime < 0 || step.Time-lastKeyTime < coalesceGap {
				text += step.Key
			} else {
				// Pause too long: close the buffer and open a new one.
				flush(step.Time)
				text = step.Key
			}
			lastKeyTime = step.Time
			continue
		}

		flush(step.Time)
		out = append(out, step)
	}
	flush(endTime)

	for i := range out {
		if i == 0 {
			out[i].Delay = 0
			continue
		}
		out[i].Delay = max(0, out[i].Time-out[i-1].Time)
	}
	return out
}
