// Package types provides shared data structures for the tracker core.
//
// This package defines the types exchanged between the capture,
// automation, pattern-detection, and API layers:
//
//   - InputEvent: raw timestamped input from the capture collaborator
//   - Step, Automation: normalized replayable sequences
//   - ActivityEvent: desktop state samples (window, apps, mouse)
//   - Suggestion: scored automation recommendations
//
// Suggestions are identified by value equality over their
// pattern-bearing fields (Suggestion.Key), not by ID.
package types
