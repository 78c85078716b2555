// Package logging provides structured logging using uber/zap.
//
// Two output modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// This is the daemon's operational log. The user-facing device console
// (discovery messages, connection tips, session output) lives in
// internal/domain/logstream and is unrelated to these levels.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("Server starting", zap.String("port", "8765"))
//	logger.Warn("adb connect failed", zap.String("endpoint", ep), zap.Error(err))
package logging
