// Package automation records live input streams into replayable step
// sequences and plays stored sequences back through the input
// injection collaborator.
//
// The recorder is a two-state machine (idle, recording). Stopping a
// recording normalizes the captured steps: consecutive short-gap
// character keystrokes coalesce into single text-insertion steps, and
// each step's replay delay is derived from the recorded timestamps.
//
// Recording and replay share the machine's input channel, so a Gate
// serializes them: a replay cannot start while a recording is active
// and vice versa.
package automation
