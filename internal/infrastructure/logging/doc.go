// Package logging provides structured logging for mbconv.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the CLI and the compile service.
//
// # Features
//
//   - Text output for interactive use, JSON for log collectors
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Thread-safe for concurrent use
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "text"     # json, text
//	  output: "stderr"   # stderr, stdout, discard
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("compiled device", "device", name, "requests", n)
//	logger.Error("failed to publish", "error", err)
package logging
