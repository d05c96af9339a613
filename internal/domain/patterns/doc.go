// Package patterns mines the activity stream for repetitive behavior.
// The detector keeps rolling statistics (window transitions, click
// locations on a screen grid, per-app hourly usage) and periodically
// turns them into scored automation suggestions. Statistics survive
// restarts through a JSON state file.
package patterns
