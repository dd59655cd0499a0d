// Package logger provides a structured logging interface for the listing crawler.
//
// It wraps zerolog behind a small Logger interface:
//   - Leveled logging (Debug, Info, Warn, Error)
//   - Structured fields via WithField, WithFields and WithError
//   - Colored console output on stderr, optional append-only log file
//   - A global logger for command-level code
//
// Basic Usage:
//
//	err := logger.Initialize(&config.LoggingConfig{Level: "info"})
//
//	log := logger.GetLogger().WithField("component", "crawler")
//	log.InfoWithFields("page written", map[string]interface{}{
//	    "page":    12,
//	    "records": 20,
//	})
//
// Tests use NewTestLogger to capture messages, or NewNopLogger to discard them.
package logger
