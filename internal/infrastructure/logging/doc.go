// Package logging provides structured logging using uber/zap.
//
// Two modes are offered:
//   - Production: JSON output for machine parsing
//   - Development: colored console output for human readability
//
// Example usage:
//
//	logger := logging.NewDefault()
//	logger.Info("Recorder started", zap.String("automation", name))
//	logger.Error("Failed to save", zap.Error(err))
package logging
